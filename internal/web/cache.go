package web

import (
	"context"
	"sync"
	"time"

	"opsdash/internal/calendar"
	"opsdash/internal/dashboard"
	"opsdash/internal/model"
)

// jobCache sits in front of a JobFetcher and reuses a period's jobs for a
// short TTL, so paging back and forth does not refetch every source.
type jobCache struct {
	next dashboard.JobFetcher
	ttl  time.Duration
	now  func() time.Time

	mu      sync.RWMutex
	entries map[calendar.Period]cachedJobs
}

type cachedJobs struct {
	jobs      []model.Job
	updatedAt time.Time
}

func newJobCache(next dashboard.JobFetcher, ttl time.Duration) *jobCache {
	return &jobCache{
		next:    next,
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[calendar.Period]cachedJobs),
	}
}

// FetchJobs returns a copy of the cached jobs when fresh, and fetches
// otherwise. A zero TTL disables caching.
func (c *jobCache) FetchJobs(ctx context.Context, p calendar.Period) []model.Job {
	if c.ttl <= 0 {
		return c.next.FetchJobs(ctx, p)
	}

	now := c.now()
	c.mu.RLock()
	e, ok := c.entries[p]
	c.mu.RUnlock()
	if ok && now.Sub(e.updatedAt) < c.ttl {
		return copyJobs(e.jobs)
	}

	jobs := c.next.FetchJobs(ctx, p)

	c.mu.Lock()
	c.evictLocked(now)
	c.entries[p] = cachedJobs{jobs: jobs, updatedAt: now}
	c.mu.Unlock()
	return copyJobs(jobs)
}

// evictLocked drops expired periods. Callers hold c.mu.
func (c *jobCache) evictLocked(now time.Time) {
	for p, e := range c.entries {
		if now.Sub(e.updatedAt) >= c.ttl {
			delete(c.entries, p)
		}
	}
}

// Invalidate drops every cached period.
func (c *jobCache) Invalidate() {
	c.mu.Lock()
	c.entries = make(map[calendar.Period]cachedJobs)
	c.mu.Unlock()
}

func (c *jobCache) size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func copyJobs(jobs []model.Job) []model.Job {
	out := make([]model.Job, len(jobs))
	copy(out, jobs)
	return out
}
