// Package calendar holds the date-range engine: a timezone-free calendar
// date value, reporting periods derived from it, and the month grid.
//
// Every operation here is pure except Today/TodayIn, which read the clock.
package calendar

import (
	"fmt"
	"time"
)

// Layout is the canonical textual form of a Date.
const Layout = "2006-01-02"

// Date is a calendar day with no time-of-day and no timezone.
//
// Values are always normalized, so two Dates describing the same day are
// equal under == no matter how they were built. The zero value is "unset".
type Date struct {
	year  int
	month time.Month
	day   int
}

// FormatError reports a string that is not a canonical YYYY-MM-DD date.
type FormatError struct {
	Input  string
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("calendar: invalid date %q: %s", e.Input, e.Reason)
}

// New builds a Date from its fields. Out-of-range months and days roll over
// into neighbouring months and years, the same way AddDays does.
func New(year int, month time.Month, day int) Date {
	return FromTime(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

// FromTime takes the calendar fields of t as seen in t's own location.
// No conversion to UTC happens, so local midnight stays on its own day.
func FromTime(t time.Time) Date {
	return Date{year: t.Year(), month: t.Month(), day: t.Day()}
}

// Parse reads a canonical YYYY-MM-DD string.
//
// The month must be 01..12 and the day 01..31. A day past the end of its
// month rolls over into the next month ("2025-04-31" is 2025-05-01).
func Parse(s string) (Date, error) {
	if len(s) != len(Layout) || s[4] != '-' || s[7] != '-' {
		return Date{}, &FormatError{Input: s, Reason: "expected YYYY-MM-DD"}
	}
	year, ok := digits(s[0:4])
	if !ok {
		return Date{}, &FormatError{Input: s, Reason: "year is not numeric"}
	}
	month, ok := digits(s[5:7])
	if !ok {
		return Date{}, &FormatError{Input: s, Reason: "month is not numeric"}
	}
	day, ok := digits(s[8:10])
	if !ok {
		return Date{}, &FormatError{Input: s, Reason: "day is not numeric"}
	}
	if month < 1 || month > 12 {
		return Date{}, &FormatError{Input: s, Reason: "month out of range"}
	}
	if day < 1 || day > 31 {
		return Date{}, &FormatError{Input: s, Reason: "day out of range"}
	}
	return New(year, time.Month(month), day), nil
}

// MustParse is Parse for literals known to be valid. It panics otherwise.
func MustParse(s string) Date {
	d, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return d
}

func digits(s string) (int, bool) {
	n := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + int(c-'0')
	}
	return n, true
}

// Today returns the current day in the process's local timezone.
func Today() Date {
	return FromTime(time.Now())
}

// TodayIn returns the current day as observed in loc. A nil loc means local.
func TodayIn(loc *time.Location) Date {
	if loc == nil {
		loc = time.Local
	}
	return FromTime(time.Now().In(loc))
}

func (d Date) Year() int { return d.year }

func (d Date) Month() time.Month { return d.month }

func (d Date) Day() int { return d.day }

// IsZero reports whether d is the unset zero value.
func (d Date) IsZero() bool { return d == Date{} }

func (d Date) Weekday() time.Weekday { return d.utc().Weekday() }

// MondayOffset is the number of days since the most recent Monday:
// 0 for Monday through 6 for Sunday.
func (d Date) MondayOffset() int {
	return (int(d.Weekday()) + 6) % 7
}

// String formats d as YYYY-MM-DD with zero-padded month and day.
func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.year, int(d.month), d.day)
}

// AddDays shifts d by n days; n may be negative.
func (d Date) AddDays(n int) Date {
	return New(d.year, d.month, d.day+n)
}

// AddMonths shifts d by n months. When the target month is shorter than
// d's day of month, the result is clamped to the target month's last day:
// 2025-01-31 plus one month is 2025-02-28, and 2024-02-29 in a leap year.
func (d Date) AddMonths(n int) Date {
	first := New(d.year, d.month+time.Month(n), 1)
	day := d.day
	if last := first.DaysInMonth(); day > last {
		day = last
	}
	return Date{year: first.year, month: first.month, day: day}
}

// FirstOfMonth returns the first day of d's month.
func (d Date) FirstOfMonth() Date {
	return Date{year: d.year, month: d.month, day: 1}
}

// DaysInMonth reports how many days d's month has.
func (d Date) DaysInMonth() int {
	return New(d.year, d.month+1, 0).day
}

// Compare returns -1, 0 or +1 as d is before, equal to or after o.
func (d Date) Compare(o Date) int {
	switch {
	case d.year != o.year:
		return cmpInt(d.year, o.year)
	case d.month != o.month:
		return cmpInt(int(d.month), int(o.month))
	default:
		return cmpInt(d.day, o.day)
	}
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func (d Date) Before(o Date) bool { return d.Compare(o) < 0 }

func (d Date) After(o Date) bool { return d.Compare(o) > 0 }

// DaysUntil returns the number of days from d to o (negative if o is earlier).
func (d Date) DaysUntil(o Date) int {
	return int(o.utc().Sub(d.utc()).Hours() / 24)
}

// In returns midnight of d in loc.
func (d Date) In(loc *time.Location) time.Time {
	return time.Date(d.year, d.month, d.day, 0, 0, 0, 0, loc)
}

// utc places d at UTC midnight. UTC has no DST, so day arithmetic on the
// result is exact; only the calendar fields are ever read back.
func (d Date) utc() time.Time {
	return time.Date(d.year, d.month, d.day, 0, 0, 0, 0, time.UTC)
}

func (d Date) MarshalText() ([]byte, error) {
	if d.IsZero() {
		return []byte{}, nil
	}
	return []byte(d.String()), nil
}

func (d *Date) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*d = Date{}
		return nil
	}
	v, err := Parse(string(b))
	if err != nil {
		return err
	}
	*d = v
	return nil
}
