package ics

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	appLog "opsdash/internal/log"
)

// Non-standard VEVENT properties carrying job fields.
const (
	PropAmount     = "X-AMOUNT"
	PropClientID   = "X-CLIENT-ID"
	PropClientName = "X-CLIENT-NAME"
	PropCompleted  = "X-COMPLETED"
)

// ParsedEvent is a VEVENT reduced to what job expansion needs.
type ParsedEvent struct {
	Feed Feed

	UID     string
	Summary string

	Start  time.Time
	End    time.Time
	AllDay bool

	Amount     float64
	ClientID   string
	ClientName string
	Completed  bool
	Cancelled  bool

	RawRRule   string
	ExDates    []time.Time
	Recurrence *time.Time // RECURRENCE-ID, if this VEVENT overrides one instance
}

// IsOverride reports whether the event replaces one instance of a
// recurring event.
func (e ParsedEvent) IsOverride() bool {
	return e.Recurrence != nil
}

// Parse reads every VEVENT of an ICS payload. Floating and date-only
// values are interpreted in loc. Events that cannot be read are logged
// and skipped.
func Parse(feed Feed, body []byte, loc *time.Location) ([]ParsedEvent, error) {
	if len(body) == 0 {
		return nil, errors.New("ics: empty body")
	}
	if loc == nil {
		loc = time.Local
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("ics: parsing %s: %w", feed.ID, err)
	}

	events := make([]ParsedEvent, 0)
	for _, comp := range cal.Events() {
		ev, perr := parseVEvent(feed, comp, loc)
		if perr != nil {
			appLog.Warn("ics vevent skipped", "id", feed.ID, "err", perr)
			continue
		}
		events = append(events, ev)
	}

	appLog.Debug("ics parse completed", "id", feed.ID, "event_count", len(events))
	return events, nil
}

func parseVEvent(feed Feed, ve *ical.VEvent, loc *time.Location) (ParsedEvent, error) {
	out := ParsedEvent{Feed: feed}

	uidProp := ve.GetProperty(ical.ComponentPropertyUniqueId)
	if uidProp == nil || uidProp.Value == "" {
		return out, errors.New("missing UID")
	}
	out.UID = uidProp.Value

	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		out.Summary = p.Value
	}
	if p := ve.GetProperty("STATUS"); p != nil {
		out.Cancelled = strings.EqualFold(strings.TrimSpace(p.Value), "CANCELLED")
	}

	dtStart := ve.GetProperty(ical.ComponentPropertyDtStart)
	if dtStart == nil || dtStart.Value == "" {
		return out, errors.New("missing DTSTART")
	}
	start, allDay, err := propertyTime(dtStart, loc)
	if err != nil {
		return out, fmt.Errorf("DTSTART: %w", err)
	}
	out.Start = start
	out.AllDay = allDay

	switch dtEnd := ve.GetProperty(ical.ComponentPropertyDtEnd); {
	case dtEnd != nil && dtEnd.Value != "":
		end, _, err := propertyTime(dtEnd, loc)
		if err != nil {
			return out, fmt.Errorf("DTEND: %w", err)
		}
		out.End = end
	case allDay:
		out.End = start.AddDate(0, 0, 1)
	default:
		out.End = start
	}

	if p := ve.GetProperty(PropAmount); p != nil {
		amount, err := strconv.ParseFloat(strings.TrimSpace(p.Value), 64)
		if err != nil || amount < 0 {
			return out, fmt.Errorf("%s %q is not a non-negative number", PropAmount, p.Value)
		}
		out.Amount = amount
	}
	if p := ve.GetProperty(PropClientID); p != nil {
		out.ClientID = strings.TrimSpace(p.Value)
	}
	if p := ve.GetProperty(PropClientName); p != nil {
		out.ClientName = p.Value
	}
	if p := ve.GetProperty(PropCompleted); p != nil {
		out.Completed = parseBool(p.Value)
	}

	if p := ve.GetProperty(ical.ComponentPropertyRrule); p != nil {
		out.RawRRule = p.Value
	}

	// EXDATE may repeat and may hold comma-separated values.
	for _, p := range ve.GetProperties(ical.ComponentPropertyExdate) {
		for _, part := range strings.Split(p.Value, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			if t, err := parseICSTime(part, tzidOf(p, loc)); err == nil {
				out.ExDates = append(out.ExDates, t)
			}
		}
	}

	if p := ve.GetProperty("RECURRENCE-ID"); p != nil {
		if t, err := parseICSTime(p.Value, tzidOf(p, loc)); err == nil {
			out.Recurrence = &t
		}
	}

	return out, nil
}

// propertyTime reads a DATE or DATE-TIME property, honoring its TZID.
func propertyTime(p *ical.IANAProperty, loc *time.Location) (time.Time, bool, error) {
	allDay := !strings.Contains(p.Value, "T")
	if vs, ok := p.ICalParameters["VALUE"]; ok && len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
		allDay = true
	}
	t, err := parseICSTime(p.Value, tzidOf(p, loc))
	return t, allDay, err
}

func tzidOf(p *ical.IANAProperty, fallback *time.Location) *time.Location {
	if tzs, ok := p.ICalParameters["TZID"]; ok && len(tzs) > 0 {
		if loc, err := time.LoadLocation(tzs[0]); err == nil {
			return loc
		}
	}
	return fallback
}

// parseICSTime parses an ICS DATE or DATE-TIME. UTC values keep UTC;
// floating values and dates are placed in loc.
func parseICSTime(v string, loc *time.Location) (time.Time, error) {
	v = strings.TrimSpace(v)
	switch {
	case v == "":
		return time.Time{}, errors.New("empty time value")
	case strings.HasSuffix(v, "Z"):
		return time.Parse("20060102T150405Z", v)
	case strings.Contains(v, "T"):
		return time.ParseInLocation("20060102T150405", v, loc)
	default:
		return time.ParseInLocation("20060102", v, loc)
	}
}

func parseBool(v string) bool {
	switch strings.ToUpper(strings.TrimSpace(v)) {
	case "TRUE", "YES", "1":
		return true
	}
	return false
}
