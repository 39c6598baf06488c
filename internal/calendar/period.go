package calendar

import (
	"fmt"
	"time"
)

// Range is the granularity of a reporting period. Its values are the
// tokens used on links; the empty string means "unset".
type Range string

const (
	RangeDay     Range = "day"
	RangeWeek    Range = "week"
	RangeMonth   Range = "month"
	RangeQuarter Range = "quarter"
	RangeYear    Range = "year"
)

// Ranges lists every Range in display order.
var Ranges = []Range{RangeDay, RangeWeek, RangeMonth, RangeQuarter, RangeYear}

// ParseRange maps a boundary token to a Range. ok is false for anything
// that is not one of the five known tokens.
func ParseRange(s string) (r Range, ok bool) {
	switch Range(s) {
	case RangeDay, RangeWeek, RangeMonth, RangeQuarter, RangeYear:
		return Range(s), true
	}
	return "", false
}

// Label is the lower-case name shown next to metrics, e.g. "week".
func (r Range) Label() string {
	return string(r)
}

// Title is the capitalized tab caption, e.g. "Week".
func (r Range) Title() string {
	if r == "" {
		return ""
	}
	s := string(r)
	return string(s[0]-'a'+'A') + s[1:]
}

// Period is the half-open interval [From, To).
type Period struct {
	From Date `json:"from"`
	To   Date `json:"to"`
}

// Contains reports whether From <= d < To.
func (p Period) Contains(d Date) bool {
	return !d.Before(p.From) && d.Before(p.To)
}

// Days is the number of calendar days the period covers.
func (p Period) Days() int {
	return p.From.DaysUntil(p.To)
}

func (p Period) String() string {
	return "[" + p.From.String() + ", " + p.To.String() + ")"
}

// Resolve computes the period of granularity r that contains ref.
// Weeks start on Monday. An unset or unknown Range resolves as a week.
func Resolve(r Range, ref Date) Period {
	var from, to Date
	switch r {
	case RangeDay:
		from = ref
		to = ref.AddDays(1)
	case RangeMonth:
		from = ref.FirstOfMonth()
		to = from.AddMonths(1)
	case RangeQuarter:
		q := (int(ref.Month()) - 1) / 3
		from = New(ref.Year(), time.Month(q*3+1), 1)
		to = from.AddMonths(3)
	case RangeYear:
		from = New(ref.Year(), 1, 1)
		to = New(ref.Year()+1, 1, 1)
	default:
		from = ref.AddDays(-ref.MondayOffset())
		to = from.AddDays(7)
	}
	return mustPeriod(from, to)
}

// Shift moves d by n whole periods of granularity r. Month-based steps
// clamp the day of month like AddMonths.
func Shift(r Range, d Date, n int) Date {
	switch r {
	case RangeDay:
		return d.AddDays(n)
	case RangeMonth:
		return d.AddMonths(n)
	case RangeQuarter:
		return d.AddMonths(3 * n)
	case RangeYear:
		return d.AddMonths(12 * n)
	default:
		return d.AddDays(7 * n)
	}
}

// mustPeriod panics when to <= from. That can only happen through a bug
// in Resolve, never through caller input.
func mustPeriod(from, to Date) Period {
	if !from.Before(to) {
		panic(fmt.Sprintf("calendar: empty period [%s, %s)", from, to))
	}
	return Period{From: from, To: to}
}
