package model

import "opsdash/internal/calendar"

// Job is a single scheduled piece of work as supplied by a job source.
// The engine only ever reads it; sources build a fresh slice per request.
type Job struct {
	ID       string        `json:"id" yaml:"id"`
	ClientID string        `json:"client_id,omitempty" yaml:"client_id,omitempty"` // empty when the job has no client
	Title    string        `json:"title" yaml:"title"`
	Date     calendar.Date `json:"date" yaml:"date"`

	// Start and End are local times of day in "HH:mm" form. Zero-padding
	// keeps lexical order equal to chronological order.
	Start string `json:"start" yaml:"start"`
	End   string `json:"end" yaml:"end"`

	Amount     float64 `json:"amount" yaml:"amount"`
	Completed  bool    `json:"completed" yaml:"completed"`
	ClientName string  `json:"client_name,omitempty" yaml:"client_name,omitempty"`

	// SourceID names the job source that produced the record.
	SourceID string `json:"source_id,omitempty" yaml:"-"`
}

// Metrics summarizes a set of jobs for one reporting period.
type Metrics struct {
	Earnings      float64 `json:"earnings"`
	ClientCount   int     `json:"client_count"`
	JobsCompleted int     `json:"jobs_completed"`
}

// Less orders jobs by (date, start); used to enforce the job source
// ordering contract.
func Less(a, b Job) bool {
	if c := a.Date.Compare(b.Date); c != 0 {
		return c < 0
	}
	return a.Start < b.Start
}
