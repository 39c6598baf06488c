package dashboard

import (
	"opsdash/internal/calendar"
	"opsdash/internal/model"
)

// Cell is one day of the month grid with the jobs scheduled on it.
type Cell struct {
	Date           calendar.Date `json:"date"`
	InCurrentMonth bool          `json:"in_current_month"`
	IsToday        bool          `json:"is_today"`
	IsSelected     bool          `json:"is_selected"`
	Jobs           []model.Job   `json:"jobs"`
	Href           string        `json:"href,omitempty"`
}

// BuildCells lays out the month grid around cursor and attaches each day's
// jobs from idx. Days without jobs get an empty, non-nil slice.
func BuildCells(cursor, today calendar.Date, idx DayIndex) []Cell {
	grid := calendar.MonthGrid(cursor)
	cells := make([]Cell, 0, len(grid))
	for _, d := range grid {
		jobs := idx.Jobs(d)
		if jobs == nil {
			jobs = []model.Job{}
		}
		cells = append(cells, Cell{
			Date:           d,
			InCurrentMonth: d.Year() == cursor.Year() && d.Month() == cursor.Month(),
			IsToday:        d == today,
			IsSelected:     d == cursor,
			Jobs:           jobs,
		})
	}
	return cells
}
