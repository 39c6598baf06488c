package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"opsdash/internal/calendar"
	"opsdash/internal/config"
	appLog "opsdash/internal/log"
)

const defaultConfigPath = "/etc/opsdash/config.yaml"

// App carries state shared by every subcommand.
type App struct {
	ConfigPath string
	LogLevel   string

	// Today reads the current day; nil means the configured zone's clock.
	Today func() calendar.Date
}

// loadConfig reads the config file and applies the log level.
func (a *App) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(a.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("loading config %s: %w", a.ConfigPath, err)
	}
	level := cfg.LogLevel
	if a.LogLevel != "" {
		level = a.LogLevel
	}
	if l, ok := appLog.ParseLevel(level); ok {
		appLog.SetLevel(l)
	}
	return cfg, nil
}

func (a *App) today(cfg *config.Config) calendar.Date {
	if a.Today != nil {
		return a.Today()
	}
	if cfg == nil {
		return calendar.Today()
	}
	return calendar.TodayIn(cfg.Location())
}

// NewRootCmd creates the top-level "opsdash" command.
func NewRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:          "opsdash",
		Short:        "Calendar dashboard for a field-service business",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&app.ConfigPath, "config", defaultConfigPath, "Path to config file")
	root.PersistentFlags().StringVar(&app.LogLevel, "log-level", "", "Log level (overrides config if set)")

	root.AddCommand(
		newServeCmd(app),
		newPeriodCmd(app),
		newGridCmd(app),
		newReportCmd(app),
	)
	return root
}
