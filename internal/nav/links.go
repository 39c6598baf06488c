package nav

import "opsdash/internal/calendar"

// RangeLink is one tab of the range selector.
type RangeLink struct {
	Range  calendar.Range `json:"range"`
	Title  string         `json:"title"`
	Href   string         `json:"href"`
	Active bool           `json:"active"`
}

// Links are the transitions reachable from a State.
type Links struct {
	Self      string      `json:"self"`
	Ranges    []RangeLink `json:"ranges"`
	Prev      string      `json:"prev"`
	Next      string      `json:"next"`
	Today     string      `json:"today"`
	DayView   string      `json:"day_view"`
	MonthView string      `json:"month_view"`
}

// BuildLinks computes every navigation link for s. Prev and Next step the
// cursor by one period of s.Range.
func BuildLinks(basePath string, s State, today calendar.Date) Links {
	l := Links{
		Self:      Encode(basePath, s, Overrides{}),
		Prev:      Encode(basePath, s, Overrides{Cursor: calendar.Shift(s.Range, s.Cursor, -1)}),
		Next:      Encode(basePath, s, Overrides{Cursor: calendar.Shift(s.Range, s.Cursor, 1)}),
		Today:     Encode(basePath, s, Overrides{Cursor: today}),
		DayView:   Encode(basePath, s, Overrides{View: ViewDay}),
		MonthView: Encode(basePath, s, Overrides{View: ViewMonth}),
	}
	for _, r := range calendar.Ranges {
		l.Ranges = append(l.Ranges, RangeLink{
			Range:  r,
			Title:  r.Title(),
			Href:   Encode(basePath, s, Overrides{Range: r}),
			Active: r == s.Range,
		})
	}
	return l
}

// DayLink is the link a month-grid cell uses to open its day.
func DayLink(basePath string, s State, d calendar.Date) string {
	return Encode(basePath, s, Overrides{View: ViewDay, Cursor: d})
}
