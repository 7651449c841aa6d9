package storage

import "strings"

var likeEscaper = strings.NewReplacer(
	`\`, `\\`,
	"%", `\%`,
	"_", `\_`,
)

// escapeLikeTerm neutralizes SQLite LIKE metacharacters in user input
// before it is embedded in a pattern. Queries using the result must
// pair it with ESCAPE '\'. Injection itself is off the table via
// parameterized queries; this only stops wildcard abuse in name and
// course searches.
func escapeLikeTerm(term string) string {
	return likeEscaper.Replace(term)
}
