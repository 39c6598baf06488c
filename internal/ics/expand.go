package ics

import (
	"time"

	"github.com/teambition/rrule-go"

	"opsdash/internal/calendar"
	appLog "opsdash/internal/log"
	"opsdash/internal/model"
)

const defaultMaxOccurrencesPerEvent = 5000

// ExpandConfig controls how events become jobs.
type ExpandConfig struct {
	// Location is the zone whose calendar assigns each job its date and
	// start/end times. If nil, time.Local is used.
	Location *time.Location

	// Period selects which occurrences are kept, by their local date.
	Period calendar.Period

	// MaxOccurrencesPerEvent caps a single recurring event. If zero,
	// defaultMaxOccurrencesPerEvent is used.
	MaxOccurrencesPerEvent int
}

// Expand turns parsed events into jobs dated inside cfg.Period. It handles
// single events, RRULE recurrence, EXDATE removals and RECURRENCE-ID
// overrides. Cancelled events and overrides produce no job.
func Expand(events []ParsedEvent, cfg ExpandConfig) []model.Job {
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.MaxOccurrencesPerEvent <= 0 {
		cfg.MaxOccurrencesPerEvent = defaultMaxOccurrencesPerEvent
	}

	// Group base events and overrides by UID.
	var base []ParsedEvent
	overridesByUID := make(map[string][]ParsedEvent)
	for _, ev := range events {
		if ev.IsOverride() {
			overridesByUID[ev.UID] = append(overridesByUID[ev.UID], ev)
		} else {
			base = append(base, ev)
		}
	}

	jobs := make([]model.Job, 0)
	for _, ev := range base {
		ov := overridesByUID[ev.UID]
		if ev.RawRRule == "" {
			jobs = appendOccurrence(jobs, ev, ev.Start, ev.End, ov, false, cfg)
			continue
		}
		jobs = expandRecurring(jobs, ev, ov, cfg)
	}
	return jobs
}

func expandRecurring(jobs []model.Job, ev ParsedEvent, overrides []ParsedEvent, cfg ExpandConfig) []model.Job {
	r, err := rrule.StrToRRule(ev.RawRRule)
	if err != nil {
		appLog.Error("ics: failed to parse RRULE", err, "uid", ev.UID, "rrule", ev.RawRRule)
		return jobs
	}
	r.DTStart(ev.Start)

	var set rrule.Set
	set.RRule(r)
	for _, ex := range ev.ExDates {
		set.ExDate(ex.In(ev.Start.Location()))
	}

	// Widen by a day on each side; exact membership is decided on the
	// local date below.
	from := cfg.Period.From.AddDays(-1).In(ev.Start.Location())
	to := cfg.Period.To.AddDays(1).In(ev.Start.Location())
	starts := set.Between(from, to, true)

	if len(starts) > cfg.MaxOccurrencesPerEvent {
		appLog.Warn("ics: truncated occurrences", "uid", ev.UID, "cap", cfg.MaxOccurrencesPerEvent)
		starts = starts[:cfg.MaxOccurrencesPerEvent]
	}

	dur := ev.End.Sub(ev.Start)
	for _, s := range starts {
		jobs = appendOccurrence(jobs, ev, s, s.Add(dur), overrides, true, cfg)
	}

	// An override can move an instance from outside the window into the
	// period. appendOccurrence filters it by the override's own date.
	for _, o := range overrides {
		if o.Recurrence == nil || containsTime(starts, *o.Recurrence) {
			continue
		}
		rec := o.Recurrence.In(ev.Start.Location())
		if len(set.Between(rec, rec, true)) == 0 {
			continue
		}
		jobs = appendOccurrence(jobs, ev, rec, rec.Add(dur), overrides, true, cfg)
	}
	return jobs
}

func containsTime(ts []time.Time, t time.Time) bool {
	for _, v := range ts {
		if v.Equal(t) {
			return true
		}
	}
	return false
}

// appendOccurrence applies any matching override, then appends the job if
// its local date falls inside the period.
func appendOccurrence(jobs []model.Job, ev ParsedEvent, start, end time.Time, overrides []ParsedEvent, recurring bool, cfg ExpandConfig) []model.Job {
	instance := start
	if o, ok := findOverride(overrides, start); ok {
		ev, start, end = o, o.Start, o.End
	}
	if ev.Cancelled {
		return jobs
	}

	localStart := start.In(cfg.Location)
	localEnd := end.In(cfg.Location)
	date := calendar.FromTime(localStart)
	if ev.AllDay {
		// All-day values were parsed in the configured zone already.
		date = calendar.FromTime(start)
	}
	if !cfg.Period.Contains(date) {
		return jobs
	}

	// Recurring ids carry the instance's local start, in the same form as
	// its RECURRENCE-ID, so sub-daily rules stay unique.
	id := ev.UID
	if recurring {
		id += "@" + instance.In(cfg.Location).Format("20060102T150405")
	}

	job := model.Job{
		ID:         id,
		ClientID:   ev.ClientID,
		Title:      ev.Summary,
		Date:       date,
		Start:      localStart.Format("15:04"),
		End:        localEnd.Format("15:04"),
		Amount:     ev.Amount,
		Completed:  ev.Completed,
		ClientName: ev.ClientName,
		SourceID:   ev.Feed.ID,
	}
	if ev.AllDay {
		job.Start, job.End = "00:00", "23:59"
	}
	return append(jobs, job)
}

// findOverride finds the override whose RECURRENCE-ID equals start.
func findOverride(overrides []ParsedEvent, start time.Time) (ParsedEvent, bool) {
	for _, ov := range overrides {
		if ov.Recurrence != nil && ov.Recurrence.Equal(start) {
			return ov, true
		}
	}
	return ParsedEvent{}, false
}
