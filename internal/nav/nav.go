// Package nav encodes the dashboard's view state to and from link query
// parameters, so navigation stays stateless: every transition is a link.
package nav

import (
	"net/url"

	"opsdash/internal/calendar"
)

// Query parameter names of the boundary representation.
const (
	ParamRange  = "range"
	ParamView   = "view"
	ParamCursor = "cursor"
)

// ViewMode selects the presentation fed by the engine's output.
type ViewMode string

const (
	ViewDay   ViewMode = "day"
	ViewMonth ViewMode = "month"
)

// Defaults applied by Decode when a parameter is missing or malformed.
const (
	DefaultRange = calendar.RangeWeek
	DefaultView  = ViewMonth
)

// ParseViewMode maps a boundary token to a ViewMode.
func ParseViewMode(s string) (ViewMode, bool) {
	switch ViewMode(s) {
	case ViewDay, ViewMonth:
		return ViewMode(s), true
	}
	return "", false
}

// State is the complete view state carried on a link.
type State struct {
	Range  calendar.Range `json:"range"`
	View   ViewMode       `json:"view"`
	Cursor calendar.Date  `json:"cursor"`
}

// Decode reads a State from query parameters. It never fails: a missing
// or unrecognized value is replaced by its default, and today is used
// when the cursor is missing or not a valid date.
func Decode(params url.Values, today calendar.Date) State {
	s := State{Range: DefaultRange, View: DefaultView, Cursor: today}
	if r, ok := calendar.ParseRange(params.Get(ParamRange)); ok {
		s.Range = r
	}
	if v, ok := ParseViewMode(params.Get(ParamView)); ok {
		s.View = v
	}
	if raw := params.Get(ParamCursor); raw != "" {
		if d, err := calendar.Parse(raw); err == nil {
			s.Cursor = d
		}
	}
	return s
}

// Overrides replaces selected fields of a State. Zero fields leave the
// State's value in place.
type Overrides struct {
	Range  calendar.Range
	View   ViewMode
	Cursor calendar.Date
}

// With returns a copy of s with o applied.
func (s State) With(o Overrides) State {
	if o.Range != "" {
		s.Range = o.Range
	}
	if o.View != "" {
		s.View = o.View
	}
	if !o.Cursor.IsZero() {
		s.Cursor = o.Cursor
	}
	return s
}

// Values is the query form of s. Unset fields are left out entirely.
func (s State) Values() url.Values {
	v := url.Values{}
	if s.Range != "" {
		v.Set(ParamRange, string(s.Range))
	}
	if s.View != "" {
		v.Set(ParamView, string(s.View))
	}
	if !s.Cursor.IsZero() {
		v.Set(ParamCursor, s.Cursor.String())
	}
	return v
}

// Encode builds a link to basePath carrying s with o applied.
func Encode(basePath string, s State, o Overrides) string {
	q := s.With(o).Values().Encode()
	if q == "" {
		return basePath
	}
	return basePath + "?" + q
}
