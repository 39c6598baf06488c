package jobs

import (
	"context"
	"time"

	"opsdash/internal/calendar"
	"opsdash/internal/ics"
	"opsdash/internal/model"
)

// ICSSource turns the VEVENTs of an ICS feed into jobs.
type ICSSource struct {
	feed    ics.Feed
	fetcher *ics.Fetcher
	loc     *time.Location
}

// NewICSSource reads feed through fetcher and dates jobs in loc.
func NewICSSource(feed ics.Feed, fetcher *ics.Fetcher, loc *time.Location) *ICSSource {
	return &ICSSource{feed: feed, fetcher: fetcher, loc: loc}
}

func (s *ICSSource) ID() string { return "ics:" + s.feed.ID }

func (s *ICSSource) Fetch(ctx context.Context, p calendar.Period) ([]model.Job, error) {
	res, err := s.fetcher.Fetch(ctx, s.feed)
	if err != nil {
		return nil, err
	}
	events, err := ics.Parse(s.feed, res.Body, s.loc)
	if err != nil {
		return nil, err
	}
	return ics.Expand(events, ics.ExpandConfig{Location: s.loc, Period: p}), nil
}
