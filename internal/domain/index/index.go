// Package index builds the lookup structures the matcher resolves against.
//
// An Index is immutable once built and safe for concurrent reads.
package index

import (
	"github.com/chow-chow/rubik/internal/domain/model"
	"github.com/chow-chow/rubik/internal/domain/normalize"
)

// TokenSet is a set of name tokens.
type TokenSet map[string]struct{}

// NewTokenSet builds a set from tokens.
func NewTokenSet(tokens ...string) TokenSet {
	s := make(TokenSet, len(tokens))
	for _, t := range tokens {
		s[t] = struct{}{}
	}
	return s
}

// SubsetOf reports whether every token of s is in other.
func (s TokenSet) SubsetOf(other TokenSet) bool {
	if len(s) > len(other) {
		return false
	}
	for t := range s {
		if _, ok := other[t]; !ok {
			return false
		}
	}
	return true
}

// Entry is one roster record with its precomputed keys.
type Entry struct {
	Professor *model.Professor
	// Key is the connector-stripped normalized full name.
	Key string
	// Tokens are the distinct tokens of Key.
	Tokens TokenSet
	// NameTokens counts the distinct tokens of the stored full name,
	// connectors included. Ambiguous matches prefer the larger count.
	NameTokens int
}

// Bucket groups every entry sharing one token-set key.
type Bucket struct {
	Key     string
	Tokens  TokenSet
	Entries []*Entry
}

// Index holds the exact and token-set indexes over a roster.
type Index struct {
	entries []*Entry
	exact   map[string]*Entry
	buckets []*Bucket
	byToken map[string]*Bucket
	skipped int
}

// Build indexes roster in order. Records whose stripped name is empty are
// left out; two records with the same stripped name leave the later one in
// the exact index.
func Build(roster []model.Professor) *Index {
	idx := &Index{
		entries: make([]*Entry, 0, len(roster)),
		exact:   make(map[string]*Entry, len(roster)),
		byToken: make(map[string]*Bucket, len(roster)),
	}
	for i := range roster {
		p := &roster[i]
		key := normalize.Normalize(p.FullName, true)
		if key == "" {
			idx.skipped++
			continue
		}
		tokens := normalize.Tokens(key)
		e := &Entry{
			Professor:  p,
			Key:        key,
			Tokens:     NewTokenSet(tokens...),
			NameTokens: len(normalize.Tokens(p.FullName)),
		}
		idx.entries = append(idx.entries, e)
		idx.exact[key] = e

		tk := normalize.TokenKey(key)
		b, ok := idx.byToken[tk]
		if !ok {
			b = &Bucket{Key: tk, Tokens: e.Tokens}
			idx.byToken[tk] = b
			idx.buckets = append(idx.buckets, b)
		}
		b.Entries = append(b.Entries, e)
	}
	return idx
}

// Exact returns the entry whose stripped name equals key.
func (idx *Index) Exact(key string) (*Entry, bool) {
	e, ok := idx.exact[key]
	return e, ok
}

// Buckets returns token buckets in first-seen roster order.
func (idx *Index) Buckets() []*Bucket { return idx.buckets }

// Entries returns indexed entries in roster order.
func (idx *Index) Entries() []*Entry { return idx.entries }

// Len returns the number of indexed entries.
func (idx *Index) Len() int { return len(idx.entries) }

// Skipped returns how many roster records had no usable name.
func (idx *Index) Skipped() int { return idx.skipped }
