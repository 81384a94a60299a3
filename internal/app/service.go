// Package service runs linkage passes over the stored reference groups and
// serves single-name lookups for the HTTP API and the CLI.
package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	repository "github.com/chow-chow/rubik/internal/adapters/repository"
	"github.com/chow-chow/rubik/internal/domain/consolidate"
	"github.com/chow-chow/rubik/internal/domain/dedupe"
	"github.com/chow-chow/rubik/internal/domain/match"
	"github.com/chow-chow/rubik/internal/domain/model"
	"github.com/chow-chow/rubik/internal/domain/types"
	"github.com/chow-chow/rubik/pkg/logger"
	"github.com/chow-chow/rubik/pkg/metrics"
)

// Service links reference groups to the canonical roster.
type Service struct {
	mu     sync.RWMutex
	passMu sync.Mutex

	store repository.Store

	// Configuration
	workerCount int
	queueSize   int
	enrich      bool
	lockPath    string

	// State
	started bool
	matcher *match.Matcher
	last    *types.Report

	logger logger.Logger
}

// New constructs a Service over store.
func New(store repository.Store, opts ...Option) *Service {
	s := &Service{
		store:       store,
		workerCount: runtime.NumCPU(),
		matcher:     match.New(nil),
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = logger.Get().Named("linker")
	}

	return s
}

// Start loads the roster so Match can answer before the first pass.
func (s *Service) Start(ctx context.Context) error {
	if err := s.Reload(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	s.started = true
	s.mu.Unlock()

	s.logger.Info(ctx, "linker started",
		logger.String("backend", s.store.Backend()),
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Bool("enrich", s.enrich),
	)
	return nil
}

// Stop closes the store.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.store != nil {
		if err := s.store.Close(); err != nil {
			s.logger.Warn(context.Background(), "close store failed", logger.Error(err))
		}
	}
	s.started = false
	s.logger.Info(context.Background(), "linker stopped")
}

// Reload rebuilds the resolution context from the stored roster.
func (s *Service) Reload(ctx context.Context) error {
	if s.store == nil {
		return ErrNoStore
	}
	roster, err := s.loadRoster(ctx, s.logger)
	if err != nil {
		return err
	}
	s.setMatcher(match.New(match.NewContext(roster)))
	metrics.UpdateRosterSize(len(roster))
	return nil
}

// Match resolves one raw name against the last loaded roster.
func (s *Service) Match(ctx context.Context, name string) types.Resolution {
	start := time.Now()
	r := s.currentMatcher().Match(name)
	metrics.RecordResolveLatency(float64(time.Since(start).Microseconds()))

	res := types.Resolution{
		Name:     name,
		Query:    r.Query,
		Kind:     r.Kind.String(),
		Strategy: r.Strategy,
	}
	if r.Ok() {
		res.ID = r.Professor.ID
		res.FullName = r.Professor.FullName
		res.Rating = r.Professor.Rating
		res.NumRatings = r.Professor.NumRatings
	}
	if r.Ambiguous() {
		res.Candidates = r.CandidateNames()
	}
	s.logger.Debug(ctx, "resolved name",
		logger.String("name", name),
		logger.String("kind", res.Kind),
		logger.String("strategy", res.Strategy),
	)
	return res
}

// Link runs one linkage pass: every distinct raw name in the stored reference
// groups is resolved once and each changed group is written back.
func (s *Service) Link(ctx context.Context) (types.Report, error) {
	if s.store == nil {
		return types.Report{}, ErrNoStore
	}

	s.passMu.Lock()
	defer s.passMu.Unlock()

	release, err := s.acquire(ctx)
	if err != nil {
		metrics.RecordPassOutcome("link", "locked")
		return types.Report{}, err
	}
	defer release()

	start := time.Now()
	report := types.Report{
		PassID:       uuid.NewString(),
		StartedAt:    start.UTC(),
		StrategyHits: make(map[string]int),
		Ambiguities:  []types.Ambiguity{},
	}
	log := s.logger.With(logger.String("pass_id", report.PassID))
	log.Info(ctx, "linkage pass started", logger.String("backend", s.store.Backend()))

	roster, err := s.loadRoster(ctx, log)
	if err != nil {
		metrics.RecordPassOutcome("link", "error")
		return report, err
	}
	m := match.New(match.NewContext(roster))
	s.setMatcher(m)
	report.RosterSize = m.Context().Len()
	report.RosterSkipped = m.Context().Index().Skipped()
	if report.RosterSkipped > 0 {
		log.Warn(ctx, "roster records without a usable name", logger.Int("skipped", report.RosterSkipped))
	}
	metrics.UpdateRosterSize(report.RosterSize)

	groups, err := s.loadGroups(ctx, log, &report)
	if err != nil {
		metrics.RecordPassOutcome("link", "error")
		return report, err
	}

	names := collectNames(groups)
	report.DistinctNames = len(names)
	cache := s.resolveAll(ctx, log, m, names)
	if err := ctx.Err(); err != nil {
		metrics.RecordPassOutcome("link", "canceled")
		return report, fmt.Errorf("linkage pass: %w", err)
	}

	refs := make(map[string]int)
	for _, g := range groups {
		if s.apply(ctx, log, g, cache, &report, refs) {
			s.save(ctx, log, g, &report)
		}
	}

	for _, name := range names {
		r, _ := cache.get(name)
		if !r.Ambiguous() {
			continue
		}
		log.Warn(ctx, "multiple roster records match, selected the most specific",
			logger.String("name", name),
			logger.String("query", r.Query),
			logger.String("selected", r.Professor.FullName),
			logger.Strings("candidates", r.CandidateNames()),
			logger.Int("references", refs[name]),
		)
		report.Ambiguities = append(report.Ambiguities, types.Ambiguity{
			Name:       name,
			Query:      r.Query,
			Selected:   r.Professor.ID,
			Candidates: r.CandidateNames(),
			References: refs[name],
		})
	}

	report.Duration = time.Since(start)
	metrics.RecordPass(report.Total, report.Matched, report.Unmatched, report.AmbiguousReferences, report.DistinctNames)
	metrics.RecordPassDuration(float64(report.Duration.Microseconds()) / 1000)
	metrics.RecordPassOutcome("link", "success")

	fields := []logger.Field{
		logger.Int("total", report.Total),
		logger.Int("matched", report.Matched),
		logger.Int("unmatched", report.Unmatched),
		logger.Int("ambiguous", report.AmbiguousReferences),
		logger.Int("groupsWritten", report.GroupsWritten),
		logger.Int("groupsFailed", report.GroupsFailed),
	}
	if rate, ok := report.MatchRate(); ok {
		metrics.UpdateMatchRate(rate)
		fields = append(fields, logger.Float64("matchRate", rate))
	}
	log.Info(ctx, "linkage pass finished", fields...)

	kept := report
	s.mu.Lock()
	s.last = &kept
	s.mu.Unlock()

	return report, nil
}

// Consolidate rebuilds the roster from the stored raw observations.
func (s *Service) Consolidate(ctx context.Context) (types.ConsolidationReport, error) {
	if s.store == nil {
		return types.ConsolidationReport{}, ErrNoStore
	}

	s.passMu.Lock()
	defer s.passMu.Unlock()

	release, err := s.acquire(ctx)
	if err != nil {
		metrics.RecordPassOutcome("consolidate", "locked")
		return types.ConsolidationReport{}, err
	}
	defer release()

	start := time.Now()
	obs, err := s.store.LoadObservations(ctx)
	if err != nil {
		metrics.RecordPassOutcome("consolidate", "error")
		return types.ConsolidationReport{}, fmt.Errorf("%w: %w", ErrLoadObservations, err)
	}

	valid, rejected := consolidate.Prepare(obs)
	if rejected > 0 {
		s.logger.Warn(ctx, "skipped invalid observations", logger.Int("rejected", rejected))
	}
	roster, sum := consolidate.Consolidate(valid)
	consolidate.SortByRating(roster)

	if err := s.store.SaveRoster(ctx, roster); err != nil {
		metrics.RecordPassOutcome("consolidate", "error")
		return types.ConsolidationReport{}, fmt.Errorf("%w: %w", ErrSaveRoster, err)
	}
	s.setMatcher(match.New(match.NewContext(roster)))

	report := types.ConsolidationReport{
		Observations: len(obs),
		Rejected:     rejected,
		Discarded:    sum.Discarded,
		Merged:       sum.Merged,
		RosterSize:   len(roster),
		Duration:     time.Since(start),
	}
	metrics.RecordConsolidation(sum.Merged, sum.Discarded)
	metrics.UpdateRosterSize(len(roster))
	metrics.RecordPassOutcome("consolidate", "success")

	s.logger.Info(ctx, "roster consolidated",
		logger.Int("observations", report.Observations),
		logger.Int("rejected", report.Rejected),
		logger.Int("discarded", report.Discarded),
		logger.Int("merged", report.Merged),
		logger.Int("rosterSize", report.RosterSize),
	)
	return report, nil
}

// LastReport returns the most recent pass report, if any.
func (s *Service) LastReport() (types.Report, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.last == nil {
		return types.Report{}, false
	}
	return *s.last, true
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() types.Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := types.Stats{
		Started:     s.started,
		WorkerCount: s.workerCount,
		QueueSize:   s.queueSize,
		Enrich:      s.enrich,
		RosterSize:  s.matcher.Context().Len(),
	}
	if s.store != nil {
		stats.Backend = s.store.Backend()
	}

	if s.last != nil {
		pass := &types.PassStats{
			PassID:    s.last.PassID,
			StartedAt: s.last.StartedAt,
			Total:     s.last.Total,
			Matched:   s.last.Matched,
			Unmatched: s.last.Unmatched,
			Ambiguous: s.last.AmbiguousReferences,
		}
		if rate, ok := s.last.MatchRate(); ok {
			pass.MatchRate = &rate
		}
		stats.LastPass = pass
	}

	return stats
}

func (s *Service) currentMatcher() *match.Matcher {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.matcher
}

func (s *Service) setMatcher(m *match.Matcher) {
	s.mu.Lock()
	s.matcher = m
	s.mu.Unlock()
}

// acquire takes the cross-process pass lock.
func (s *Service) acquire(ctx context.Context) (func(), error) {
	if s.lockPath == "" {
		return func() {}, nil
	}
	if err := os.MkdirAll(filepath.Dir(s.lockPath), 0o755); err != nil {
		return nil, fmt.Errorf("create lock dir: %w", err)
	}

	lock := flock.New(s.lockPath)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPassInProgress, s.lockPath)
	}

	return func() {
		if err := lock.Unlock(); err != nil {
			s.logger.Warn(ctx, "failed to release pass lock", logger.String("lock", s.lockPath), logger.Error(err))
		}
	}, nil
}

// loadRoster treats a missing roster as empty.
func (s *Service) loadRoster(ctx context.Context, log logger.Logger) ([]model.Professor, error) {
	roster, err := s.store.LoadRoster(ctx)
	if err == nil {
		return roster, nil
	}
	if repository.IsNotFound(err) {
		log.Warn(ctx, "roster not found, every name will be unmatched", logger.Error(err))
		return nil, nil
	}
	return nil, fmt.Errorf("%w: %w", ErrLoadRoster, err)
}

// loadGroups returns every readable group. Unreadable groups are skipped.
func (s *Service) loadGroups(ctx context.Context, log logger.Logger, report *types.Report) ([]*model.ReferenceGroup, error) {
	keys, err := s.store.ListGroups(ctx)
	if err != nil {
		if repository.IsNotFound(err) {
			log.Warn(ctx, "no reference groups found", logger.Error(err))
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %w", ErrListGroups, err)
	}

	groups := make([]*model.ReferenceGroup, 0, len(keys))
	for _, key := range keys {
		g, err := s.store.LoadGroup(ctx, key)
		if err != nil {
			report.GroupsSkipped++
			metrics.RecordGroupLoadError()
			log.Warn(ctx, "skipping unreadable reference group", logger.String("group", key), logger.Error(err))
			continue
		}
		groups = append(groups, g)
	}
	report.GroupsScanned = len(groups)
	return groups, nil
}

// collectNames returns the distinct non-empty raw names in first-seen order.
func collectNames(groups []*model.ReferenceGroup) []string {
	records := 0
	for _, g := range groups {
		records += len(g.Records)
	}
	seen := dedupe.NewInMemoryDeduper(dedupe.WithCapacity(records))
	ctx := context.Background()
	for _, g := range groups {
		for _, rec := range g.Records {
			if rec == nil {
				continue
			}
			if name := rec.Professor(); name != "" {
				seen.SeenAndRecord(ctx, name)
			}
		}
	}
	return seen.Names()
}

// apply writes cached results onto the group's records and reports whether
// any field changed. Records with an empty raw name are left untouched.
func (s *Service) apply(ctx context.Context, log logger.Logger, g *model.ReferenceGroup, cache *resultCache, report *types.Report, refs map[string]int) bool {
	changed := false
	for _, rec := range g.Records {
		if rec == nil {
			continue
		}
		name := rec.Professor()
		if name == "" {
			continue
		}
		r, _ := cache.get(name)
		report.Total++

		var (
			c   bool
			err error
		)
		if r.Ok() {
			report.Matched++
			report.StrategyHits[r.Strategy]++
			metrics.RecordStrategyHit(r.Strategy)
			c, err = rec.Link(r.Professor, s.enrich)
		} else {
			report.Unmatched++
			c, err = rec.Unlink(s.enrich)
		}
		if r.Ambiguous() {
			report.AmbiguousReferences++
			refs[name]++
		}
		if err != nil {
			metrics.RecordErrorByComponent("linker", "update_reference")
			log.Error(ctx, "failed to update reference", logger.String("group", g.Key), logger.String("name", name), logger.Error(err))
			continue
		}
		changed = changed || c
	}
	return changed
}

func (s *Service) save(ctx context.Context, log logger.Logger, g *model.ReferenceGroup, report *types.Report) {
	if err := s.store.SaveGroup(ctx, g); err != nil {
		report.GroupsFailed++
		metrics.RecordGroupWriteError()
		log.Error(ctx, "failed to write reference group", logger.String("group", g.Key), logger.Error(err))
		return
	}
	report.GroupsWritten++
	metrics.RecordGroupWritten()
}
