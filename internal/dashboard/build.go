package dashboard

import (
	"context"
	"net/url"

	"opsdash/internal/calendar"
	"opsdash/internal/model"
	"opsdash/internal/nav"
)

// JobFetcher supplies the jobs of a period ordered by (date, start).
// Implementations absorb retrieval failures and return an empty slice.
type JobFetcher interface {
	FetchJobs(ctx context.Context, p calendar.Period) []model.Job
}

// DayGroup is one day's agenda.
type DayGroup struct {
	Date  calendar.Date `json:"date"`
	Jobs  []model.Job   `json:"jobs"`
	Count int           `json:"count"`
}

// View is everything a presentation layer needs for one render.
type View struct {
	State   nav.State       `json:"state"`
	Period  calendar.Period `json:"period"`
	Label   string          `json:"label"`
	Metrics model.Metrics   `json:"metrics"`
	Days    []DayGroup      `json:"days"`
	Agenda  DayGroup        `json:"agenda"`
	Grid    []Cell          `json:"grid,omitempty"`
	Links   nav.Links       `json:"links"`
}

// Builder runs the render pipeline: decode state, resolve the period,
// fetch its jobs, index and aggregate them, and lay out the grid.
type Builder struct {
	Jobs     JobFetcher
	BasePath string
	// Today reads the current day. It is injected so tests can pin it.
	Today func() calendar.Date
}

// NewBuilder returns a Builder reading today's date from the local clock.
func NewBuilder(jobs JobFetcher, basePath string) *Builder {
	return &Builder{Jobs: jobs, BasePath: basePath, Today: calendar.Today}
}

// BuildFromQuery decodes params and builds the view for the result.
func (b *Builder) BuildFromQuery(ctx context.Context, params url.Values) View {
	today := b.today()
	return b.build(ctx, nav.Decode(params, today), today)
}

// Build builds the view for an already decoded state.
func (b *Builder) Build(ctx context.Context, s nav.State) View {
	return b.build(ctx, s, b.today())
}

func (b *Builder) build(ctx context.Context, s nav.State, today calendar.Date) View {
	period := calendar.Resolve(s.Range, s.Cursor)

	var jobs []model.Job
	if b.Jobs != nil {
		jobs = b.Jobs.FetchJobs(ctx, period)
	}
	idx := IndexByDay(jobs)

	v := View{
		State:   s,
		Period:  period,
		Label:   s.Range.Label(),
		Metrics: Aggregate(jobs),
		Days:    make([]DayGroup, 0, len(idx)),
		Agenda:  dayGroup(idx, s.Cursor),
		Links:   nav.BuildLinks(b.BasePath, s, today),
	}
	for _, d := range idx.Days() {
		v.Days = append(v.Days, dayGroup(idx, d))
	}
	if s.View == nav.ViewMonth {
		v.Grid = BuildCells(s.Cursor, today, idx)
		for i := range v.Grid {
			v.Grid[i].Href = nav.DayLink(b.BasePath, s, v.Grid[i].Date)
		}
	}
	return v
}

func dayGroup(idx DayIndex, d calendar.Date) DayGroup {
	jobs := idx.Agenda(d)
	return DayGroup{Date: d, Jobs: jobs, Count: len(jobs)}
}

func (b *Builder) today() calendar.Date {
	if b.Today == nil {
		return calendar.Today()
	}
	return b.Today()
}
