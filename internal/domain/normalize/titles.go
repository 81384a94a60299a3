package normalize

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// academicTitles lists every honorific variant seen in the schedule and
// ratings sources, dotted and undotted.
var academicTitles = []string{
	"DR", "DR.", "DRA", "DRA.", "DOC", "DOC.",
	"M.C.", "MC", "M.C", "MC.",
	"M.C.Q.", "MCQ", "MCQ.", "M.C.Q", "MC.Q", "M.CQ",
	"M.I.", "MI", "M.I", "MI.",
	"M.A.", "MA", "MA.", "M.A",
	"M.E.", "ME", "ME.", "M.E",
	"MTRO", "MTRO.", "MTRA", "MTRA.",
	"M.SC.", "MSC", "M.SC", "MSC.",
	"ING", "ING.", "LIC", "LIC.", "ARQ", "ARQ.", "PROF", "PROF.",
	"C.P.", "CP", "CP.", "C.P",
	"L.C.C.", "LCC", "LCC.", "L.C.C", "L.CC", "LC.C",
	"L.A.", "LA", "LA.", "L.A",
	"C.D.", "CD", "CD.", "C.D",
	"Q.F.B.", "QFB", "QFB.", "Q.F.B", "Q.FB", "QF.B",
	"M.D.", "MD", "MD.", "M.D",
	"PH.D.", "PHD", "PHD.", "PH.D", "P.H.D.",
}

// titlesByLength is academicTitles ordered longest first, ties lexical.
var titlesByLength = func() []string {
	out := append([]string(nil), academicTitles...)
	sort.Slice(out, func(i, j int) bool {
		if len(out[i]) != len(out[j]) {
			return len(out[i]) > len(out[j])
		}
		return out[i] < out[j]
	})
	return out
}()

// titleTokens holds every title with its dots removed, the form a title
// takes once a name is normalized.
var titleTokens = func() map[string]struct{} {
	out := make(map[string]struct{}, len(academicTitles))
	for _, t := range academicTitles {
		out[strings.ReplaceAll(t, ".", "")] = struct{}{}
	}
	return out
}()

// isTitleToken reports whether a normalized token is an academic title.
func isTitleToken(token string) bool {
	_, ok := titleTokens[token]
	return ok
}

// StripTitle removes leading academic titles, so "Dr. Ing. Juan" loses both.
// A title only counts when it is followed by whitespace or ends the name, so
// INGRID keeps its ING.
func StripTitle(name string) string {
	name = strings.TrimSpace(name)
	for name != "" {
		rest, ok := stripOne(name)
		if !ok {
			break
		}
		name = rest
	}
	return name
}

func stripOne(name string) (string, bool) {
	for _, title := range titlesByLength {
		if !hasPrefixFold(name, title) {
			continue
		}
		rest := name[len(title):]
		if rest == "" {
			return "", true
		}
		if r, _ := utf8.DecodeRuneInString(rest); unicode.IsSpace(r) {
			return strings.TrimLeft(rest, ". "), true
		}
	}
	return name, false
}

// hasPrefixFold compares an ASCII prefix case-insensitively.
func hasPrefixFold(s, prefix string) bool {
	if len(s) < len(prefix) {
		return false
	}
	for i := 0; i < len(prefix); i++ {
		c := s[i]
		if c >= 'a' && c <= 'z' {
			c -= 'a' - 'A'
		}
		if c != prefix[i] {
			return false
		}
	}
	return true
}
