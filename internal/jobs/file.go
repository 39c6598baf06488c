package jobs

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"opsdash/internal/calendar"
	"opsdash/internal/model"
)

// jobNamespace seeds deterministic IDs for file jobs that have none.
var jobNamespace = uuid.MustParse("6f1c7a8e-3a4b-4f0e-9a51-2d0c5b7e9f13")

type jobFile struct {
	Jobs []model.Job `yaml:"jobs"`
}

// FileSource reads jobs from a YAML file on every fetch:
//
//	jobs:
//	  - id: j1
//	    title: End of Tenancy
//	    date: 2025-10-23
//	    start: "09:00"
//	    end: "11:00"
//	    amount: 180
//	    client_id: c1
type FileSource struct {
	path string
}

func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

func (s *FileSource) ID() string { return "file:" + s.path }

func (s *FileSource) Fetch(_ context.Context, p calendar.Period) ([]model.Job, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("reading job file: %w", err)
	}
	var f jobFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing job file %s: %w", s.path, err)
	}

	out := make([]model.Job, 0, len(f.Jobs))
	for i, j := range f.Jobs {
		if j.Date.IsZero() {
			return nil, fmt.Errorf("job file %s: entry %d has no date", s.path, i)
		}
		if j.Amount < 0 {
			return nil, fmt.Errorf("job file %s: entry %d has a negative amount", s.path, i)
		}
		if !p.Contains(j.Date) {
			continue
		}
		if j.ID == "" {
			key := j.Date.String() + "|" + j.Start + "|" + j.Title
			j.ID = uuid.NewSHA1(jobNamespace, []byte(key)).String()
		}
		out = append(out, j)
	}
	return out, nil
}
