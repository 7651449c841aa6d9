package resolve

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// greekFold maps every precomposed Greek letter carrying a tonos and/or
// dialytika to its bare lower-case base letter. Upper-case forms fold
// directly to lower case so the table can run before general lowering.
var greekFold = map[rune]rune{
	'ά': 'α', 'έ': 'ε', 'ή': 'η', 'ί': 'ι', 'ϊ': 'ι', 'ΐ': 'ι',
	'ό': 'ο', 'ύ': 'υ', 'ϋ': 'υ', 'ΰ': 'υ', 'ώ': 'ω',
	'Ά': 'α', 'Έ': 'ε', 'Ή': 'η', 'Ί': 'ι', 'Ϊ': 'ι',
	'Ό': 'ο', 'Ύ': 'υ', 'Ϋ': 'υ', 'Ώ': 'ω',
}

// Normalize maps text to its canonical comparison form: NFC composition,
// accent stripping via the fixed Greek table, then full Unicode lowering.
//
// Lowering uses x/text/cases rather than strings.ToLower because Greek
// needs the contextual final-sigma rule: "ΒΑΡΛΑΜΗΣ" must lower to
// "βαρλαμης" (ς), not "βαρλαμησ", or all-caps queries would never equal
// their mixed-case counterparts.
//
// Normalize is a pure function and idempotent:
// Normalize(Normalize(s)) == Normalize(s) for every s. Empty input
// normalizes to the empty string.
func Normalize(text string) string {
	if text == "" {
		return ""
	}
	text = norm.NFC.String(text)
	text = strings.Map(foldGreek, text)
	return cases.Lower(language.Und).String(text)
}

func foldGreek(r rune) rune {
	if base, ok := greekFold[r]; ok {
		return base
	}
	return r
}
