package web

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	appLog "opsdash/internal/log"
)

// Refresher drops the job cache on a cron schedule so the next request
// sees fresh source data even within the TTL.
type Refresher struct {
	cron *cron.Cron
}

// NewRefresher schedules s's cache invalidation on spec, evaluated in loc.
// An empty spec returns a Refresher that does nothing.
func NewRefresher(s *Server, spec string, loc *time.Location) (*Refresher, error) {
	c := cron.New(cron.WithLocation(loc))
	if spec == "" {
		return &Refresher{cron: c}, nil
	}
	_, err := c.AddFunc(spec, func() {
		s.Refresh()
	})
	if err != nil {
		return nil, fmt.Errorf("invalid refresh schedule %q: %w", spec, err)
	}
	return &Refresher{cron: c}, nil
}

// Start runs the schedule in the background.
func (r *Refresher) Start() {
	r.cron.Start()
}

// Stop halts the schedule and waits for a running refresh to finish.
func (r *Refresher) Stop() {
	<-r.cron.Stop().Done()
	appLog.Debug("refresh schedule stopped")
}

// Next reports when the next refresh fires; zero when nothing is scheduled.
func (r *Refresher) Next() time.Time {
	entries := r.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}
