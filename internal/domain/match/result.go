package match

import "github.com/chow-chow/rubik/internal/domain/model"

// Kind tags a Result.
type Kind int

// Result kinds.
const (
	NoMatch Kind = iota
	Matched
	AmbiguousMatched
)

// String returns the kind name used in logs and the HTTP surface.
func (k Kind) String() string {
	switch k {
	case Matched:
		return "matched"
	case AmbiguousMatched:
		return "ambiguous"
	default:
		return "no_match"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// Result is the outcome of resolving one raw name.
type Result struct {
	Kind Kind `json:"kind"`
	// Query is the connector-stripped normalized form of the raw name.
	Query string `json:"query"`
	// Professor is the selected record; nil for NoMatch.
	Professor *model.Professor `json:"professor,omitempty"`
	// Strategy names the strategy that produced the selection.
	Strategy string `json:"strategy,omitempty"`
	// Candidates lists every contender of an ambiguous match, best first.
	Candidates []*model.Professor `json:"candidates,omitempty"`
}

// Ok reports whether a record was selected.
func (r Result) Ok() bool { return r.Kind != NoMatch && r.Professor != nil }

// Ambiguous reports whether the selection was a tie-break.
func (r Result) Ambiguous() bool { return r.Kind == AmbiguousMatched }

// CandidateNames returns the full names of the contenders.
func (r Result) CandidateNames() []string {
	names := make([]string, len(r.Candidates))
	for i, c := range r.Candidates {
		names[i] = c.FullName
	}
	return names
}
