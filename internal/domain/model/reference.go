package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Reference field names read or written by linkage.
const (
	FieldProfessor   = "professor"
	FieldProfessorID = "professor_id"
	FieldFirstName   = "first_name"
	FieldLastName    = "last_name"
	FieldRating      = "rating"
	FieldNumRatings  = "num_ratings"
)

// ErrNotObject is returned when a reference record is not a JSON object.
var ErrNotObject = errors.New("reference record must be a JSON object")

// Reference is a course group record naming its professor by a raw string.
// Fields are kept in their original order and every field linkage does not
// own is written back exactly as read.
type Reference struct {
	keys   []string
	fields map[string]json.RawMessage
}

// NewReference builds a reference with the given professor name.
func NewReference(professor string) *Reference {
	r := &Reference{}
	_, _ = r.Set(FieldProfessor, professor)
	return r
}

// Professor returns the raw professor name, or "" when it is absent or not a string.
func (r *Reference) Professor() string {
	raw, ok := r.Get(FieldProfessor)
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

// ProfessorID returns the linked id; ok is false when unlinked.
func (r *Reference) ProfessorID() (ID, bool) {
	raw, ok := r.Get(FieldProfessorID)
	if !ok {
		return "", false
	}
	var id ID
	if err := json.Unmarshal(raw, &id); err != nil || id.IsZero() {
		return "", false
	}
	return id, true
}

// Get returns the raw JSON of a field.
func (r *Reference) Get(key string) (json.RawMessage, bool) {
	raw, ok := r.fields[key]
	return raw, ok
}

// Keys returns field names in document order.
func (r *Reference) Keys() []string {
	out := make([]string, len(r.keys))
	copy(out, r.keys)
	return out
}

// Set stores v under key and reports whether the stored JSON changed.
// Adding an absent key is a change.
func (r *Reference) Set(key string, v any) (bool, error) {
	raw, err := encodeValue(v)
	if err != nil {
		return false, fmt.Errorf("encode %s: %w", key, err)
	}
	if old, ok := r.fields[key]; ok {
		if sameJSON(old, raw) {
			return false, nil
		}
	} else {
		r.keys = append(r.keys, key)
	}
	if r.fields == nil {
		r.fields = make(map[string]json.RawMessage)
	}
	r.fields[key] = raw
	return true, nil
}

// Link points the reference at p. With enrich the matched record's name and
// rating fields are copied too.
func (r *Reference) Link(p *Professor, enrich bool) (bool, error) {
	changed, err := r.Set(FieldProfessorID, p.ID)
	if err != nil || !enrich {
		return changed, err
	}
	for _, f := range []struct {
		key string
		val any
	}{
		{FieldFirstName, p.FirstName},
		{FieldLastName, p.LastName},
		{FieldRating, p.Rating},
		{FieldNumRatings, p.NumRatings},
	} {
		c, err := r.Set(f.key, f.val)
		if err != nil {
			return changed, err
		}
		changed = changed || c
	}
	return changed, nil
}

// Unlink sets professor_id to null. With enrich it also nulls any enrichment
// field a previous link copied, leaving absent ones absent.
func (r *Reference) Unlink(enrich bool) (bool, error) {
	changed, err := r.Set(FieldProfessorID, nil)
	if err != nil || !enrich {
		return changed, err
	}
	for _, key := range []string{FieldFirstName, FieldLastName, FieldRating, FieldNumRatings} {
		if _, ok := r.Get(key); !ok {
			continue
		}
		c, err := r.Set(key, nil)
		if err != nil {
			return changed, err
		}
		changed = changed || c
	}
	return changed, nil
}

// MarshalJSON writes the fields in document order.
func (r *Reference) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range r.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := encodeValue(k)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(r.fields[k])
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads an object, remembering key order. A repeated key keeps
// its first position and its last value.
func (r *Reference) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return ErrNotObject
	}
	r.keys = r.keys[:0]
	r.fields = make(map[string]json.RawMessage)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("unexpected token %v", tok)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("field %s: %w", key, err)
		}
		if _, seen := r.fields[key]; !seen {
			r.keys = append(r.keys, key)
		}
		r.fields[key] = raw
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	return nil
}

// ReferenceGroup is a named partition of reference records, one per course file.
type ReferenceGroup struct {
	Key     string
	Records []*Reference
}

func encodeValue(v any) (json.RawMessage, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func sameJSON(a, b []byte) bool {
	var ca, cb bytes.Buffer
	if json.Compact(&ca, a) != nil || json.Compact(&cb, b) != nil {
		return bytes.Equal(a, b)
	}
	return bytes.Equal(ca.Bytes(), cb.Bytes())
}
