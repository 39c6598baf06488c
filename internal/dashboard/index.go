// Package dashboard turns a fetched job collection into the values a
// dashboard renders: per-day job groups, period metrics and the
// annotated month grid.
package dashboard

import (
	"sort"

	"opsdash/internal/calendar"
	"opsdash/internal/model"
)

// DayIndex groups jobs by calendar day. Within a day, jobs keep the order
// in which they were indexed.
type DayIndex map[calendar.Date][]model.Job

// IndexByDay groups jobs by their Date. calendar.Date is a normalized
// value, so jobs on the same day share a key however their dates were
// constructed.
func IndexByDay(jobs []model.Job) DayIndex {
	idx := make(DayIndex)
	for _, j := range jobs {
		idx[j.Date] = append(idx[j.Date], j)
	}
	return idx
}

// Jobs returns the jobs on d in insertion order. The returned slice is
// shared with the index and must not be modified.
func (idx DayIndex) Jobs(d calendar.Date) []model.Job {
	return idx[d]
}

// Count returns the number of jobs on d.
func (idx DayIndex) Count(d calendar.Date) int {
	return len(idx[d])
}

// Agenda returns a copy of the jobs on d ordered by start time. Jobs that
// start at the same time keep their indexed order.
func (idx DayIndex) Agenda(d calendar.Date) []model.Job {
	day := idx[d]
	out := make([]model.Job, len(day))
	copy(out, day)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Start < out[j].Start
	})
	return out
}

// Days returns the indexed days in ascending order.
func (idx DayIndex) Days() []calendar.Date {
	days := make([]calendar.Date, 0, len(idx))
	for d := range idx {
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })
	return days
}

// Flatten returns every indexed job, day by day in ascending date order.
func (idx DayIndex) Flatten() []model.Job {
	var out []model.Job
	for _, d := range idx.Days() {
		out = append(out, idx[d]...)
	}
	return out
}
