// Package normalize reduces instructor names to a canonical comparable form.
//
// A normalized name is upper-case, carries no academic title, no accents and
// no characters other than A-Z, Ñ and single spaces. Normalization is pure and
// safe for concurrent use.
package normalize

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
)

var parenthesized = regexp.MustCompile(`\s*\(.*?\)`)

// accentFold maps the accented vowels used by both sources to their bare form.
var accentFold = map[rune]rune{
	'Á': 'A', 'É': 'E', 'Í': 'I', 'Ó': 'O', 'Ú': 'U',
	'á': 'A', 'é': 'E', 'í': 'I', 'ó': 'O', 'ú': 'U',
	'ü': 'U', 'Ü': 'U',
}

var connectors = map[string]struct{}{
	"DE": {}, "DEL": {}, "LA": {}, "LAS": {}, "LOS": {}, "Y": {},
}

// IsConnector reports whether token is a Spanish name particle.
func IsConnector(token string) bool {
	_, ok := connectors[token]
	return ok
}

func foldAccent(r rune) rune {
	if f, ok := accentFold[r]; ok {
		return f
	}
	return r
}

func dropped(r rune) bool {
	return !(r >= 'A' && r <= 'Z') && r != 'Ñ' && !unicode.IsSpace(r)
}

// Normalize returns the canonical form of raw. With stripConnectors the
// particles DE, DEL, LA, LAS, LOS and Y are removed as whole tokens.
func Normalize(raw string, stripConnectors bool) string {
	if raw == "" {
		return ""
	}
	name := parenthesized.ReplaceAllString(raw, "")
	name = strings.TrimSpace(strings.ReplaceAll(name, "\n", " "))
	name = strings.ToUpper(StripTitle(name))

	// transform chains hold state; build one per call.
	t := transform.Chain(runes.Map(foldAccent), runes.Remove(runes.Predicate(dropped)))
	folded, _, err := transform.String(t, name)
	if err != nil {
		return ""
	}

	tokens := strings.Fields(folded)
	if stripConnectors {
		kept := tokens[:0]
		for _, tok := range tokens {
			if !IsConnector(tok) {
				kept = append(kept, tok)
			}
		}
		tokens = kept
	}
	// A title may only surface after folding or connector removal.
	for len(tokens) > 0 && isTitleToken(tokens[0]) {
		tokens = tokens[1:]
	}
	return strings.Join(tokens, " ")
}
