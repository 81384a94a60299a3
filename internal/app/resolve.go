package service

import (
	"context"
	"sync"

	"github.com/chow-chow/rubik/internal/adapters/mq/queue"
	workerpool "github.com/chow-chow/rubik/internal/adapters/mq/worker"
	"github.com/chow-chow/rubik/internal/domain/match"
	"github.com/chow-chow/rubik/pkg/logger"
)

// matcherResolver adapts a Matcher to worker.Resolver.
type matcherResolver struct {
	matcher *match.Matcher
}

func (r matcherResolver) Resolve(ctx context.Context, name string) (match.Result, error) {
	if err := ctx.Err(); err != nil {
		return match.Result{}, err
	}
	return r.matcher.Match(name), nil
}

// resultCache collects resolutions keyed by raw name.
type resultCache struct {
	mu      sync.RWMutex
	results map[string]match.Result
}

func newResultCache(size int) *resultCache {
	return &resultCache{results: make(map[string]match.Result, size)}
}

// Store implements worker.Sink.
func (c *resultCache) Store(_ context.Context, job queue.Job, r match.Result) {
	c.mu.Lock()
	c.results[job.Name] = r
	c.mu.Unlock()
}

func (c *resultCache) get(name string) (match.Result, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	r, ok := c.results[name]
	return r, ok
}

func (c *resultCache) len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.results)
}

// resolveAll resolves each name once. Names the pool did not finish are
// resolved inline.
func (s *Service) resolveAll(ctx context.Context, log logger.Logger, m *match.Matcher, names []string) *resultCache {
	cache := newResultCache(len(names))
	resolver := matcherResolver{matcher: m}

	if s.workerCount > 1 && len(names) > 1 {
		s.resolveParallel(ctx, log, resolver, cache, names)
	}

	for i, name := range names {
		if ctx.Err() != nil {
			break
		}
		if _, ok := cache.get(name); ok {
			continue
		}
		cache.Store(ctx, queue.Job{Seq: i, Name: name}, m.Match(name))
	}

	log.Debug(ctx, "names resolved", logger.Int("distinct", len(names)), logger.Int("cached", cache.len()))
	return cache
}

func (s *Service) resolveParallel(ctx context.Context, log logger.Logger, resolver matcherResolver, cache *resultCache, names []string) {
	capacity := s.queueSize
	if capacity <= 0 || capacity > len(names) {
		capacity = len(names)
	}
	q := queue.NewInMemoryQueue(queue.WithCapacity(capacity))
	pool := workerpool.NewPool(min(s.workerCount, len(names)), q, resolver, cache)
	pool.Start(ctx)

	inline, depth := 0, 0
	for i, name := range names {
		job := queue.Job{Seq: i, Name: name}
		if q.Enqueue(ctx, job) {
			continue
		}
		if ctx.Err() != nil {
			break
		}
		if inline == 0 {
			depth = q.Len(ctx)
		}
		inline++
		cache.Store(ctx, job, resolver.matcher.Match(name))
	}
	_ = q.Close()

	if err := pool.Wait(ctx); err != nil {
		log.Warn(ctx, "resolution interrupted", logger.Error(err))
		_ = pool.Shutdown(context.Background())
	}
	if inline > 0 {
		log.Debug(ctx, "queue full, resolved inline",
			logger.Int("names", inline),
			logger.Int("depth", depth),
			logger.Int("capacity", q.Capacity()),
		)
	}
}
