package bot

import (
	"regexp"
	"slices"
	"strings"

	"github.com/huahelper/hua-messengerbot-go/internal/resolve"
)

// PostbackSplitChar separates the fields of a postback payload.
// Example: "professor$email$varlamis@hua.gr".
const PostbackSplitChar = "$"

// BuildKeywordRegex creates a pattern matching any of the keywords at
// the start of normalized text. Keywords are normalized the same way
// queries are (resolve.Normalize), so "Καθηγητής", "καθηγητης" and
// "ΚΑΘΗΓΗΤΗΣ" all hit a "καθηγητης" keyword. Longest keywords sort
// first to stop "email" shadowing "emails", and the match must be
// followed by a space or the end of text. Panics on an empty list.
func BuildKeywordRegex(keywords []string) *regexp.Regexp {
	if len(keywords) == 0 {
		panic("bot: BuildKeywordRegex requires at least one keyword")
	}

	normalized := make([]string, len(keywords))
	for i, kw := range keywords {
		normalized[i] = regexp.QuoteMeta(resolve.Normalize(kw))
	}
	slices.SortFunc(normalized, func(a, b string) int {
		return len(b) - len(a)
	})

	pattern := "^(" + strings.Join(normalized, "|") + ")(?:\\s|$)"
	return regexp.MustCompile(pattern)
}

// MatchKeyword returns the keyword the regex matched in the normalized
// form of text, or "" when nothing matched.
func MatchKeyword(re *regexp.Regexp, text string) string {
	m := re.FindStringSubmatch(resolve.Normalize(strings.TrimSpace(text)))
	if len(m) < 2 {
		return ""
	}
	return m[1]
}

// ExtractSearchTerm removes the matched keyword from the normalized
// text and returns the remainder, trimmed. The term comes back in
// normalized form, which is what the resolver and the LIKE searches
// compare against anyway.
func ExtractSearchTerm(text, keyword string) string {
	norm := resolve.Normalize(strings.TrimSpace(text))
	if keyword == "" {
		return norm
	}

	switch {
	case strings.HasPrefix(norm, keyword):
		return strings.TrimSpace(strings.TrimPrefix(norm, keyword))
	case strings.HasSuffix(norm, keyword):
		return strings.TrimSpace(strings.TrimSuffix(norm, keyword))
	default:
		return strings.TrimSpace(strings.Replace(norm, keyword, "", 1))
	}
}

// punctRegex matches everything except letters, digits, whitespace and
// the @ . - characters; question marks, quotes («») and emoji are noise
// for keyword matching and name resolution alike.
var punctRegex = regexp.MustCompile(`[^\p{L}\p{N}\s@.\-]+`)

// Sanitize prepares raw user text for dispatch: trim, strip
// punctuation (keeping @, dot and dash so email addresses and course
// codes survive) and collapse whitespace runs.
func Sanitize(text string) string {
	text = strings.TrimSpace(text)
	text = punctRegex.ReplaceAllString(text, " ")
	return strings.Join(strings.Fields(text), " ")
}
