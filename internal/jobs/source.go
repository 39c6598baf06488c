// Package jobs supplies job records for a period. Sources do the I/O; the
// Fetcher in front of them enforces the contract the engine relies on:
// jobs come back ordered by (date, start), limited to the period, and a
// failing source contributes nothing instead of an error.
package jobs

import (
	"context"
	"sort"
	"time"

	"opsdash/internal/calendar"
	appLog "opsdash/internal/log"
	"opsdash/internal/model"
)

// Source retrieves the jobs scheduled within a period.
type Source interface {
	ID() string
	Fetch(ctx context.Context, p calendar.Period) ([]model.Job, error)
}

// Observer is notified after every source fetch.
type Observer interface {
	ObserveFetch(source string, elapsed time.Duration, jobs int, err error)
}

// Fetcher queries a set of sources and merges their jobs.
type Fetcher struct {
	sources  []Source
	observer Observer
}

// NewFetcher builds a Fetcher over sources. observer may be nil.
func NewFetcher(observer Observer, sources ...Source) *Fetcher {
	return &Fetcher{sources: sources, observer: observer}
}

// Sources returns the IDs of the configured sources.
func (f *Fetcher) Sources() []string {
	ids := make([]string, 0, len(f.sources))
	for _, s := range f.sources {
		ids = append(ids, s.ID())
	}
	return ids
}

// FetchJobs returns the period's jobs from every source, sorted by
// (date, start) with ties kept in source order. A source that fails is
// logged and skipped, so the result is never nil and never an error.
func (f *Fetcher) FetchJobs(ctx context.Context, p calendar.Period) []model.Job {
	out := make([]model.Job, 0)
	for _, src := range f.sources {
		start := time.Now()
		got, err := src.Fetch(ctx, p)
		if f.observer != nil {
			f.observer.ObserveFetch(src.ID(), time.Since(start), len(got), err)
		}
		if err != nil {
			appLog.Error("job source failed; continuing without it", err, "source", src.ID(), "period", p.String())
			continue
		}
		for _, j := range got {
			if !p.Contains(j.Date) {
				continue
			}
			if j.SourceID == "" {
				j.SourceID = src.ID()
			}
			out = append(out, j)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return model.Less(out[i], out[j]) })
	appLog.Debug("jobs fetched", "period", p.String(), "count", len(out))
	return out
}
