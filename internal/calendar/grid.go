package calendar

import "time"

// GridSize is the number of cells in a month grid: six Monday-first weeks.
const GridSize = 6 * 7

// MonthGrid returns the 42 consecutive days of the six-week, Monday-first
// grid that shows cursor's month. Leading and trailing cells spill into
// the previous and next months.
func MonthGrid(cursor Date) [GridSize]Date {
	first := cursor.FirstOfMonth()
	anchor := first.AddDays(-first.MondayOffset())

	var cells [GridSize]Date
	for i := range cells {
		cells[i] = anchor.AddDays(i)
	}
	return cells
}

// WeekdayHeaders are the column captions of a MonthGrid.
var WeekdayHeaders = [7]time.Weekday{
	time.Monday, time.Tuesday, time.Wednesday, time.Thursday,
	time.Friday, time.Saturday, time.Sunday,
}
