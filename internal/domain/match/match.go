// Package match resolves raw instructor names against a canonical roster.
//
// Resolution runs an ordered list of strategies over an immutable
// ResolutionContext and stops at the first one that selects a record.
package match

import (
	"github.com/chow-chow/rubik/internal/domain/index"
	"github.com/chow-chow/rubik/internal/domain/model"
	"github.com/chow-chow/rubik/internal/domain/normalize"
)

// ResolutionContext is the roster and its indexes for one linkage pass.
type ResolutionContext struct {
	roster []model.Professor
	idx    *index.Index
}

// NewContext copies roster and indexes it.
func NewContext(roster []model.Professor) *ResolutionContext {
	own := make([]model.Professor, len(roster))
	copy(own, roster)
	return &ResolutionContext{roster: own, idx: index.Build(own)}
}

// Index returns the built indexes.
func (rc *ResolutionContext) Index() *index.Index { return rc.idx }

// Roster returns the records the context was built from.
func (rc *ResolutionContext) Roster() []model.Professor { return rc.roster }

// Len returns the roster size.
func (rc *ResolutionContext) Len() int { return len(rc.roster) }

// Matcher runs strategies in order. It is safe for concurrent use.
type Matcher struct {
	rc         *ResolutionContext
	strategies []Strategy
}

// New creates a Matcher over rc.
func New(rc *ResolutionContext) *Matcher {
	m := &Matcher{rc: rc, strategies: DefaultStrategies()}
	if m.rc == nil {
		m.rc = NewContext(nil)
	}
	return m
}

// Context returns the context the matcher resolves against.
func (m *Matcher) Context() *ResolutionContext { return m.rc }

// Match resolves one raw name.
func (m *Matcher) Match(raw string) Result {
	key := normalize.Normalize(raw, true)
	if key == "" {
		return Result{Kind: NoMatch}
	}
	q := Query{Key: key, Tokens: index.NewTokenSet(normalize.Tokens(key)...)}
	for _, s := range m.strategies {
		if r, ok := s.Resolve(m.rc, q); ok {
			r.Query = key
			return r
		}
	}
	return Result{Kind: NoMatch, Query: key}
}
