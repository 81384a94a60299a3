package normalize

import (
	"sort"
	"strings"
)

// Tokens splits a normalized name into distinct tokens in first-seen order.
func Tokens(normalized string) []string {
	fields := strings.Fields(normalized)
	seen := make(map[string]struct{}, len(fields))
	out := fields[:0]
	for _, f := range fields {
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	return out
}

// TokenKey is the order-insensitive identity of a normalized name: its
// distinct tokens sorted and joined by a single space.
func TokenKey(normalized string) string {
	tokens := Tokens(normalized)
	sort.Strings(tokens)
	return strings.Join(tokens, " ")
}
