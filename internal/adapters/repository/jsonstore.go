package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/chow-chow/rubik/internal/domain/model"
)

const (
	backendJSON = "json"
	groupExt    = ".json"
)

// JSONStore keeps every dataset in the scraper's file layout: one roster
// file, one observations file and one array file per reference group.
// Writes go to a temp file that replaces the target.
type JSONStore struct {
	rosterPath       string
	observationsPath string
	groupsDir        string
}

// NewJSONStore creates a file store rooted at the default data layout.
func NewJSONStore(opts ...Option) *JSONStore {
	s := &JSONStore{
		rosterPath:       filepath.Join("data", "professor_ratings_index.json"),
		observationsPath: filepath.Join("data", "professor_observations.json"),
		groupsDir:        filepath.Join("data", "groups"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Backend implements Store.
func (s *JSONStore) Backend() string { return backendJSON }

// LoadRoster implements Store.
func (s *JSONStore) LoadRoster(_ context.Context) ([]model.Professor, error) {
	defer observe(backendJSON, "load_roster")()
	var roster []model.Professor
	if err := readJSON(s.rosterPath, &roster); err != nil {
		return nil, fmt.Errorf("roster: %w", err)
	}
	return roster, nil
}

// SaveRoster implements Store.
func (s *JSONStore) SaveRoster(_ context.Context, roster []model.Professor) error {
	defer observe(backendJSON, "save_roster")()
	if roster == nil {
		roster = []model.Professor{}
	}
	return writeJSON(s.rosterPath, roster)
}

// LoadObservations implements Store.
func (s *JSONStore) LoadObservations(_ context.Context) ([]model.Observation, error) {
	defer observe(backendJSON, "load_observations")()
	var obs []model.Observation
	if err := readJSON(s.observationsPath, &obs); err != nil {
		return nil, fmt.Errorf("observations: %w", err)
	}
	return obs, nil
}

// SaveObservations implements Store.
func (s *JSONStore) SaveObservations(_ context.Context, observations []model.Observation) error {
	defer observe(backendJSON, "save_observations")()
	if observations == nil {
		observations = []model.Observation{}
	}
	return writeJSON(s.observationsPath, observations)
}

// ListGroups implements Store.
func (s *JSONStore) ListGroups(_ context.Context) ([]string, error) {
	defer observe(backendJSON, "list_groups")()
	entries, err := os.ReadDir(s.groupsDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("groups dir %s: %w", s.groupsDir, ErrNotFound)
		}
		return nil, fmt.Errorf("list groups: %w", err)
	}
	keys := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, groupExt) || strings.HasPrefix(name, ".") {
			continue
		}
		keys = append(keys, strings.TrimSuffix(name, groupExt))
	}
	sort.Strings(keys)
	return keys, nil
}

// LoadGroup implements Store.
func (s *JSONStore) LoadGroup(_ context.Context, key string) (*model.ReferenceGroup, error) {
	defer observe(backendJSON, "load_group")()
	if err := validKey(key); err != nil {
		return nil, err
	}
	var records []*model.Reference
	if err := readJSON(s.groupPath(key), &records); err != nil {
		return nil, fmt.Errorf("group %s: %w", key, err)
	}
	return &model.ReferenceGroup{Key: key, Records: records}, nil
}

// SaveGroup implements Store.
func (s *JSONStore) SaveGroup(_ context.Context, group *model.ReferenceGroup) error {
	defer observe(backendJSON, "save_group")()
	if err := validKey(group.Key); err != nil {
		return err
	}
	records := group.Records
	if records == nil {
		records = []*model.Reference{}
	}
	if err := writeJSON(s.groupPath(group.Key), records); err != nil {
		return fmt.Errorf("group %s: %w", group.Key, err)
	}
	return nil
}

// Close implements Store.
func (s *JSONStore) Close() error { return nil }

func (s *JSONStore) groupPath(key string) string {
	return filepath.Join(s.groupsDir, key+groupExt)
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%s: %w", path, ErrNotFound)
		}
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrCorrupt, path, err)
	}
	return nil
}

// writeJSON encodes v with a two-space indent, leaving non-ASCII and HTML
// characters unescaped, and renames a temp file over path.
func writeJSON(path string, v any) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", path, err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write %s: %w", tmpName, err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("chmod %s: %w", tmpName, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}
