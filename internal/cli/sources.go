package cli

import (
	"opsdash/internal/config"
	"opsdash/internal/ics"
	"opsdash/internal/jobs"
	appLog "opsdash/internal/log"
)

// buildSources opens every job source named in cfg. The returned func
// releases them.
func buildSources(cfg *config.Config) ([]jobs.Source, func(), error) {
	var (
		sources []jobs.Source
		closers []func() error
	)
	release := func() {
		for _, c := range closers {
			if err := c(); err != nil {
				appLog.Warn("closing job source failed", "err", err.Error())
			}
		}
	}

	if len(cfg.Sources.ICS) > 0 {
		fetcher := ics.NewFetcher(cfg.CacheDir)
		loc := cfg.Location()
		for _, c := range cfg.Sources.ICS {
			if c.URL == "" {
				continue
			}
			feed := ics.Feed{ID: c.SourceID(), URL: c.URL}
			sources = append(sources, jobs.NewICSSource(feed, fetcher, loc))
		}
	}

	for _, path := range cfg.Sources.Files {
		if path == "" {
			continue
		}
		sources = append(sources, jobs.NewFileSource(path))
	}

	if cfg.Sources.SQLite != "" {
		src, err := jobs.OpenSQLite(cfg.Sources.SQLite)
		if err != nil {
			release()
			return nil, nil, err
		}
		sources = append(sources, src)
		closers = append(closers, src.Close)
	}

	if len(sources) == 0 {
		appLog.Warn("no job sources configured; dashboards will be empty")
	}
	return sources, release, nil
}
