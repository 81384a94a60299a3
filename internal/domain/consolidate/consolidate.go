// Package consolidate folds duplicate ratings-site entries into canonical
// roster records.
package consolidate

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/chow-chow/rubik/internal/domain/model"
	"github.com/chow-chow/rubik/internal/domain/normalize"
)

// MinRatings is the smallest rating count an observation needs to be kept.
const MinRatings = 2

// Summary describes one consolidation run.
type Summary struct {
	Input     int `json:"input"`
	Discarded int `json:"discarded"`
	Merged    int `json:"merged"`
	Output    int `json:"output"`
}

// NewObservation builds an observation from a ratings-site entry. The name is
// normalized without connector stripping so exact duplicates fold together.
func NewObservation(id, first, last string, numRatings int, rating float64) (model.Observation, error) {
	id = strings.TrimSpace(id)
	first = strings.TrimSpace(first)
	last = strings.TrimSpace(last)
	if id == "" || (first == "" && last == "") {
		return model.Observation{}, fmt.Errorf("%w: id %q name %q", ErrInvalidObservation, id, first+" "+last)
	}
	full := normalize.Normalize(strings.TrimSpace(first+" "+last), false)
	if full == "" {
		return model.Observation{}, fmt.Errorf("%w: name %q normalizes to nothing", ErrInvalidObservation, first+" "+last)
	}
	return model.Observation{
		SourceID:   model.ID(id),
		FullName:   full,
		FirstName:  first,
		LastName:   last,
		NumRatings: numRatings,
		Rating:     rating,
	}, nil
}

// Prepare validates raw entries before consolidation. Entries carrying a first
// or last name are rebuilt through NewObservation; entries with only a full
// name keep it once normalized. Invalid entries are dropped and counted.
func Prepare(observations []model.Observation) ([]model.Observation, int) {
	out := make([]model.Observation, 0, len(observations))
	rejected := 0
	for _, o := range observations {
		if strings.TrimSpace(o.FirstName) != "" || strings.TrimSpace(o.LastName) != "" {
			built, err := NewObservation(string(o.SourceID), o.FirstName, o.LastName, o.NumRatings, o.Rating)
			if err != nil {
				rejected++
				continue
			}
			out = append(out, built)
			continue
		}
		o.SourceID = model.ID(strings.TrimSpace(string(o.SourceID)))
		o.FullName = normalize.Normalize(o.FullName, false)
		if o.SourceID == "" || o.FullName == "" {
			rejected++
			continue
		}
		out = append(out, o)
	}
	return out, rejected
}

// Consolidate drops observations with fewer than MinRatings ratings and merges
// those sharing a normalized name. The output follows the order in which each
// name first appears.
func Consolidate(observations []model.Observation) ([]model.Professor, Summary) {
	sum := Summary{Input: len(observations)}

	var order []string
	groups := make(map[string][]model.Observation)
	for _, o := range observations {
		if o.NumRatings < MinRatings {
			sum.Discarded++
			continue
		}
		if o.FullName == "" {
			sum.Discarded++
			continue
		}
		if _, ok := groups[o.FullName]; !ok {
			order = append(order, o.FullName)
		}
		groups[o.FullName] = append(groups[o.FullName], o)
	}

	out := make([]model.Professor, 0, len(order))
	for _, name := range order {
		entries := groups[name]
		if len(entries) == 1 {
			out = append(out, entries[0].Professor())
			continue
		}
		sum.Merged += len(entries) - 1
		out = append(out, merge(entries))
	}
	sum.Output = len(out)
	return out, sum
}

// merge keeps the identity of the most-rated entry and averages the ratings
// weighted by their counts.
func merge(entries []model.Observation) model.Professor {
	anchor := entries[0]
	total := 0
	weighted := 0.0
	for _, e := range entries {
		if e.NumRatings > anchor.NumRatings {
			anchor = e
		}
		total += e.NumRatings
		weighted += e.Rating * float64(e.NumRatings)
	}

	p := anchor.Professor()
	p.NumRatings = total
	p.Rating = 0
	if total > 0 {
		p.Rating = Round2(weighted / float64(total))
	}
	return p
}

// Round2 rounds to two decimals, sending exact ties to the even digit.
func Round2(x float64) float64 {
	return math.RoundToEven(x*100) / 100
}

// SortByRating orders records by rating then rating count, both descending.
// Equal records keep their relative order.
func SortByRating(roster []model.Professor) {
	sort.SliceStable(roster, func(i, j int) bool {
		if roster[i].Rating != roster[j].Rating {
			return roster[i].Rating > roster[j].Rating
		}
		return roster[i].NumRatings > roster[j].NumRatings
	})
}
