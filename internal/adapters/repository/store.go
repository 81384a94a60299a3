// Package repository persists the roster, raw observations and reference
// groups a linkage pass reads and writes.
package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chow-chow/rubik/internal/config"
	"github.com/chow-chow/rubik/internal/domain/model"
	"github.com/chow-chow/rubik/pkg/metrics"
)

// Store provides read/write access to linkage data.
type Store interface {
	// LoadRoster returns the canonical records in stored order.
	// Returns ErrNotFound if no roster was ever saved.
	LoadRoster(ctx context.Context) ([]model.Professor, error)
	// SaveRoster replaces the roster.
	SaveRoster(ctx context.Context, roster []model.Professor) error

	// LoadObservations returns raw ratings entries awaiting consolidation.
	// Returns ErrNotFound if none were saved.
	LoadObservations(ctx context.Context) ([]model.Observation, error)
	// SaveObservations replaces the raw observations.
	SaveObservations(ctx context.Context, observations []model.Observation) error

	// ListGroups returns reference group keys in lexical order.
	// Returns ErrNotFound if the group container does not exist.
	ListGroups(ctx context.Context) ([]string, error)
	// LoadGroup reads one reference group.
	LoadGroup(ctx context.Context, key string) (*model.ReferenceGroup, error)
	// SaveGroup writes one reference group.
	SaveGroup(ctx context.Context, group *model.ReferenceGroup) error

	// Backend names the implementation for logs and metrics.
	Backend() string

	Close() error
}

// Open builds the store selected by cfg.
func Open(ctx context.Context, cfg *config.Config) (Store, error) {
	switch strings.ToLower(cfg.Backend) {
	case config.BackendJSON, "":
		return NewJSONStore(
			WithRosterPath(cfg.RosterPath()),
			WithObservationsPath(cfg.ObservationsPath()),
			WithGroupsDir(cfg.GroupsPath()),
		), nil
	case config.BackendSQLite:
		return OpenSQLite(ctx, cfg.DatabasePath())
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend)
	}
}

// CopySummary counts what Copy transferred.
type CopySummary struct {
	Roster       int
	Observations int
	Groups       int
}

// Copy transfers every dataset from src to dst. Datasets missing in src are skipped.
func Copy(ctx context.Context, dst, src Store) (CopySummary, error) {
	var sum CopySummary

	roster, err := src.LoadRoster(ctx)
	switch {
	case err == nil:
		if err := dst.SaveRoster(ctx, roster); err != nil {
			return sum, err
		}
		sum.Roster = len(roster)
	case !IsNotFound(err):
		return sum, err
	}

	obs, err := src.LoadObservations(ctx)
	switch {
	case err == nil:
		if err := dst.SaveObservations(ctx, obs); err != nil {
			return sum, err
		}
		sum.Observations = len(obs)
	case !IsNotFound(err):
		return sum, err
	}

	keys, err := src.ListGroups(ctx)
	if err != nil {
		if IsNotFound(err) {
			return sum, nil
		}
		return sum, err
	}
	for _, key := range keys {
		g, err := src.LoadGroup(ctx, key)
		if err != nil {
			return sum, err
		}
		if err := dst.SaveGroup(ctx, g); err != nil {
			return sum, err
		}
		sum.Groups++
	}
	return sum, nil
}

// observe records the latency of one storage call.
func observe(backend, operation string) func() {
	start := time.Now()
	return func() {
		metrics.RecordStorageOperation(backend, operation, float64(time.Since(start).Microseconds())/1000)
	}
}

func validKey(key string) error {
	if strings.TrimSpace(key) == "" || strings.ContainsAny(key, `/\`) || key == "." || key == ".." {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return nil
}
