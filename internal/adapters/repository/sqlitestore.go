package repository

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/chow-chow/rubik/internal/domain/model"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is the current schema version. Bump this when the schema changes.
const schemaVersion = 1

const (
	backendSQLite       = "sqlite"
	datasetRoster       = "roster"
	datasetObservations = "observations"
)

// ErrSchemaMismatch indicates the database schema version doesn't match the expected version.
var ErrSchemaMismatch = errors.New("schema version mismatch")

// SQLiteStore keeps every dataset in one SQLite database. Reference groups
// are stored as their JSON payload so unknown record fields survive.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// OpenSQLite initializes or connects to the database at path.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("ensure directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.ExecContext(ctx, pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &SQLiteStore{db: db, path: path}
	if err := store.initSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file.
func (s *SQLiteStore) Path() string { return s.path }

// Backend implements Store.
func (s *SQLiteStore) Backend() string { return backendSQLite }

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteStore) initSchema(ctx context.Context) error {
	var tableExists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}

	if tableExists == 0 {
		return s.createSchema(ctx)
	}

	var version int
	if err := s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d", ErrSchemaMismatch, version, schemaVersion)
	}
	return nil
}

func (s *SQLiteStore) createSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	return tx.Commit()
}

func (s *SQLiteStore) hasDataset(ctx context.Context, name string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM datasets WHERE name = ?", name).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check dataset %s: %w", name, err)
	}
	return n > 0, nil
}

// LoadRoster implements Store.
func (s *SQLiteStore) LoadRoster(ctx context.Context) ([]model.Professor, error) {
	defer observe(backendSQLite, "load_roster")()
	rows, err := s.loadRecords(ctx, datasetRoster, "professors")
	if err != nil {
		return nil, err
	}
	roster := make([]model.Professor, len(rows))
	for i, r := range rows {
		roster[i] = r.Professor()
	}
	return roster, nil
}

// SaveRoster implements Store.
func (s *SQLiteStore) SaveRoster(ctx context.Context, roster []model.Professor) error {
	defer observe(backendSQLite, "save_roster")()
	rows := make([]model.Observation, len(roster))
	for i, p := range roster {
		rows[i] = model.Observation{
			SourceID:   p.ID,
			FullName:   p.FullName,
			FirstName:  p.FirstName,
			LastName:   p.LastName,
			NumRatings: p.NumRatings,
			Rating:     p.Rating,
		}
	}
	return s.saveRecords(ctx, datasetRoster, "professors", rows)
}

// LoadObservations implements Store.
func (s *SQLiteStore) LoadObservations(ctx context.Context) ([]model.Observation, error) {
	defer observe(backendSQLite, "load_observations")()
	return s.loadRecords(ctx, datasetObservations, "observations")
}

// SaveObservations implements Store.
func (s *SQLiteStore) SaveObservations(ctx context.Context, observations []model.Observation) error {
	defer observe(backendSQLite, "save_observations")()
	return s.saveRecords(ctx, datasetObservations, "observations", observations)
}

// loadRecords reads one of the two identically shaped record tables.
func (s *SQLiteStore) loadRecords(ctx context.Context, dataset, table string) ([]model.Observation, error) {
	ok, err := s.hasDataset(ctx, dataset)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%s: %w", dataset, ErrNotFound)
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, full_name, first_name, last_name, num_ratings, rating FROM "+table+" ORDER BY position")
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", table, err)
	}
	defer rows.Close()

	var out []model.Observation
	for rows.Next() {
		var o model.Observation
		var id string
		if err := rows.Scan(&id, &o.FullName, &o.FirstName, &o.LastName, &o.NumRatings, &o.Rating); err != nil {
			return nil, fmt.Errorf("scan %s: %w", table, err)
		}
		o.SourceID = model.ID(id)
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", table, err)
	}
	return out, nil
}

func (s *SQLiteStore) saveRecords(ctx context.Context, dataset, table string, rows []model.Observation) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin %s tx: %w", table, err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
		return fmt.Errorf("clear %s: %w", table, err)
	}
	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO "+table+" (position, id, full_name, first_name, last_name, num_ratings, rating) VALUES (?, ?, ?, ?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("prepare %s insert: %w", table, err)
	}
	defer stmt.Close()

	for i, r := range rows {
		if _, err := stmt.ExecContext(ctx, i, r.SourceID.String(), r.FullName, r.FirstName, r.LastName, r.NumRatings, r.Rating); err != nil {
			return fmt.Errorf("insert %s row %d: %w", table, i, err)
		}
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO datasets (name, saved_at) VALUES (?, ?) ON CONFLICT(name) DO UPDATE SET saved_at = excluded.saved_at",
		dataset, time.Now().UTC().Format(time.RFC3339Nano)); err != nil {
		return fmt.Errorf("mark dataset %s: %w", dataset, err)
	}
	return tx.Commit()
}

// ListGroups implements Store.
func (s *SQLiteStore) ListGroups(ctx context.Context) ([]string, error) {
	defer observe(backendSQLite, "list_groups")()
	rows, err := s.db.QueryContext(ctx, "SELECT key FROM reference_groups ORDER BY key")
	if err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	defer rows.Close()

	keys := []string{}
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("scan group key: %w", err)
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate groups: %w", err)
	}
	return keys, nil
}

// LoadGroup implements Store.
func (s *SQLiteStore) LoadGroup(ctx context.Context, key string) (*model.ReferenceGroup, error) {
	defer observe(backendSQLite, "load_group")()
	if err := validKey(key); err != nil {
		return nil, err
	}
	var payload string
	err := s.db.QueryRowContext(ctx, "SELECT payload FROM reference_groups WHERE key = ?", key).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("group %s: %w", key, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load group %s: %w", key, err)
	}
	var records []*model.Reference
	if err := json.Unmarshal([]byte(payload), &records); err != nil {
		return nil, fmt.Errorf("%w: group %s: %w", ErrCorrupt, key, err)
	}
	return &model.ReferenceGroup{Key: key, Records: records}, nil
}

// SaveGroup implements Store.
func (s *SQLiteStore) SaveGroup(ctx context.Context, group *model.ReferenceGroup) error {
	defer observe(backendSQLite, "save_group")()
	if err := validKey(group.Key); err != nil {
		return err
	}
	records := group.Records
	if records == nil {
		records = []*model.Reference{}
	}
	payload, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encode group %s: %w", group.Key, err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO reference_groups (key, payload, updated_at) VALUES (?, ?, ?)
         ON CONFLICT(key) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`,
		group.Key, string(payload), time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("save group %s: %w", group.Key, err)
	}
	return nil
}
