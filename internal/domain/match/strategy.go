package match

import (
	"sort"

	"github.com/chow-chow/rubik/internal/domain/index"
	"github.com/chow-chow/rubik/internal/domain/model"
)

// Strategy names.
const (
	StrategyExact         = "exact"
	StrategyTokenSubset   = "token_subset"
	StrategyReverseSubset = "reverse_subset"
)

// Query is a normalized raw name ready for resolution.
type Query struct {
	Key    string
	Tokens index.TokenSet
}

// Strategy resolves a query against a context. ok is false when the strategy
// has nothing to say and the next one should run.
type Strategy interface {
	Name() string
	Resolve(rc *ResolutionContext, q Query) (Result, bool)
}

// DefaultStrategies returns the cascade in order of confidence.
func DefaultStrategies() []Strategy {
	return []Strategy{exactStrategy{}, tokenSubsetStrategy{}, reverseSubsetStrategy{}}
}

type exactStrategy struct{}

func (exactStrategy) Name() string { return StrategyExact }

func (s exactStrategy) Resolve(rc *ResolutionContext, q Query) (Result, bool) {
	e, ok := rc.Index().Exact(q.Key)
	if !ok {
		return Result{}, false
	}
	return Result{Kind: Matched, Professor: e.Professor, Strategy: s.Name()}, true
}

// tokenSubsetStrategy pools every record whose token set is contained in the
// query, tolerating extra middle names or suffixes in the raw name.
type tokenSubsetStrategy struct{}

func (tokenSubsetStrategy) Name() string { return StrategyTokenSubset }

func (s tokenSubsetStrategy) Resolve(rc *ResolutionContext, q Query) (Result, bool) {
	var pool []*index.Entry
	seen := make(map[model.ID]struct{})
	for _, b := range rc.Index().Buckets() {
		if !b.Tokens.SubsetOf(q.Tokens) {
			continue
		}
		for _, e := range b.Entries {
			if _, dup := seen[e.Professor.ID]; dup {
				continue
			}
			seen[e.Professor.ID] = struct{}{}
			pool = append(pool, e)
		}
	}

	switch len(pool) {
	case 0:
		return Result{}, false
	case 1:
		return Result{Kind: Matched, Professor: pool[0].Professor, Strategy: s.Name()}, true
	}

	// most specific name first
	sort.SliceStable(pool, func(i, j int) bool {
		return pool[i].NameTokens > pool[j].NameTokens
	})
	candidates := make([]*model.Professor, len(pool))
	for i, e := range pool {
		candidates[i] = e.Professor
	}
	return Result{
		Kind:       AmbiguousMatched,
		Professor:  candidates[0],
		Strategy:   s.Name(),
		Candidates: candidates,
	}, true
}

// reverseSubsetStrategy takes the first record, in roster order, whose token
// set contains every query token.
type reverseSubsetStrategy struct{}

func (reverseSubsetStrategy) Name() string { return StrategyReverseSubset }

func (s reverseSubsetStrategy) Resolve(rc *ResolutionContext, q Query) (Result, bool) {
	for _, e := range rc.Index().Entries() {
		if q.Tokens.SubsetOf(e.Tokens) {
			return Result{Kind: Matched, Professor: e.Professor, Strategy: s.Name()}, true
		}
	}
	return Result{}, false
}
