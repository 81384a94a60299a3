// Package types contains common types used across the application
package types

import (
	"time"

	"github.com/chow-chow/rubik/internal/domain/model"
)

// Ambiguity records a name resolved by tie-breaking, kept for data-quality review.
type Ambiguity struct {
	Name       string   `json:"name"`
	Query      string   `json:"query"`
	Selected   model.ID `json:"selected_id"`
	Candidates []string `json:"candidates"`
	References int      `json:"references"`
}

// Report aggregates one linkage pass.
type Report struct {
	PassID     string        `json:"pass_id"`
	StartedAt  time.Time     `json:"started_at"`
	Duration   time.Duration `json:"duration_ns"`
	RosterSize int           `json:"roster_size"`

	// RosterSkipped counts roster records whose name normalizes to nothing.
	RosterSkipped int `json:"roster_skipped"`

	GroupsScanned int `json:"groups_scanned"`
	GroupsSkipped int `json:"groups_skipped"`
	GroupsWritten int `json:"groups_written"`
	GroupsFailed  int `json:"groups_failed"`

	DistinctNames int `json:"distinct_names"`
	Total         int `json:"total"`
	Matched       int `json:"matched"`
	Unmatched     int `json:"unmatched"`
	// AmbiguousReferences counts references linked through a tie-break.
	AmbiguousReferences int `json:"ambiguous_references"`

	StrategyHits map[string]int `json:"strategy_hits"`
	Ambiguities  []Ambiguity    `json:"ambiguities"`
}

// MatchRate returns matched over total. ok is false when nothing was scanned.
func (r Report) MatchRate() (rate float64, ok bool) {
	if r.Total == 0 {
		return 0, false
	}
	return float64(r.Matched) / float64(r.Total), true
}

// ConsolidationReport describes one roster rebuild.
type ConsolidationReport struct {
	Observations int           `json:"observations"`
	Rejected     int           `json:"rejected"`
	Discarded    int           `json:"discarded"`
	Merged       int           `json:"merged"`
	RosterSize   int           `json:"roster_size"`
	Duration     time.Duration `json:"duration_ns"`
}

// Resolution is the read shape of a single name lookup.
type Resolution struct {
	Name       string   `json:"name"`
	Query      string   `json:"query"`
	Kind       string   `json:"kind"`
	Strategy   string   `json:"strategy,omitempty"`
	ID         model.ID `json:"professor_id,omitempty"`
	FullName   string   `json:"full_name,omitempty"`
	Rating     float64  `json:"rating,omitempty"`
	NumRatings int      `json:"num_ratings,omitempty"`
	Candidates []string `json:"candidates,omitempty"`
}

// Stats is the monitoring snapshot served on /stats.
type Stats struct {
	Started     bool   `json:"started"`
	Backend     string `json:"backend,omitempty"`
	WorkerCount int    `json:"worker_count"`
	QueueSize   int    `json:"queue_size"`
	Enrich      bool   `json:"enrich"`
	RosterSize  int    `json:"roster_size"`

	LastPass *PassStats `json:"last_pass,omitempty"`
}

// PassStats summarizes the most recent linkage pass.
type PassStats struct {
	PassID    string    `json:"pass_id"`
	StartedAt time.Time `json:"started_at"`
	Total     int       `json:"total"`
	Matched   int       `json:"matched"`
	Unmatched int       `json:"unmatched"`
	Ambiguous int       `json:"ambiguous_references"`
	// MatchRate is nil when the pass scanned no references.
	MatchRate *float64 `json:"match_rate,omitempty"`
}
