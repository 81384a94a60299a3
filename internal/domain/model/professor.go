// Package model contains domain models passed between layers.
package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ID is an opaque canonical identifier. The ratings source emits integers,
// other sources emit strings; both decode into the same value.
type ID string

// String returns the id text.
func (id ID) String() string { return string(id) }

// IsZero reports whether the id is empty.
func (id ID) IsZero() bool { return id == "" }

// MarshalJSON writes integer-looking ids as JSON numbers so files produced by
// the scraper round-trip unchanged.
func (id ID) MarshalJSON() ([]byte, error) {
	if isInteger(string(id)) {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

// UnmarshalJSON accepts a JSON string or number.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id must be a string or number: %w", err)
	}
	*id = ID(n.String())
	return nil
}

func isInteger(s string) bool {
	if s == "" || len(s) > 18 {
		return false
	}
	if s[0] == '-' {
		s = s[1:]
	}
	if s == "" || (s[0] == '0' && len(s) > 1) {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// Professor is a canonical roster record.
type Professor struct {
	ID         ID      `json:"id"`
	FullName   string  `json:"full_name"`
	FirstName  string  `json:"first_name"`
	LastName   string  `json:"last_name"`
	NumRatings int     `json:"num_ratings"`
	Rating     float64 `json:"rating"`
}

// Observation is one raw, possibly duplicate, ratings-site entry.
// FullName is already normalized without connector stripping.
type Observation struct {
	SourceID   ID      `json:"id"`
	FullName   string  `json:"full_name"`
	FirstName  string  `json:"first_name"`
	LastName   string  `json:"last_name"`
	NumRatings int     `json:"num_ratings"`
	Rating     float64 `json:"rating"`
}

// Professor converts an observation into a canonical record unchanged.
func (o Observation) Professor() Professor {
	return Professor{
		ID:         o.SourceID,
		FullName:   o.FullName,
		FirstName:  o.FirstName,
		LastName:   o.LastName,
		NumRatings: o.NumRatings,
		Rating:     o.Rating,
	}
}
