package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"opsdash/internal/calendar"
	"opsdash/internal/config"
	"opsdash/internal/dashboard"
	"opsdash/internal/jobs"
)

const gridWidth = len("Mo Tu We Th Fr Sa Su")

func newGridCmd(app *App) *cobra.Command {
	var (
		cursor   string
		withJobs bool
	)

	cmd := &cobra.Command{
		Use:   "grid",
		Short: "Print the six-week month grid around a date",
		Example: `
opsdash grid
opsdash grid --cursor 2025-10-23 --jobs
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var cfg *config.Config
			if withJobs {
				var err error
				if cfg, err = app.loadConfig(); err != nil {
					return err
				}
			}
			today := app.today(cfg)
			ref, err := dateFlag(cursor, today)
			if err != nil {
				return err
			}

			var idx dashboard.DayIndex
			if withJobs {
				sources, release, err := buildSources(cfg)
				if err != nil {
					return err
				}
				defer release()

				grid := calendar.MonthGrid(ref)
				p := calendar.Period{From: grid[0], To: grid[calendar.GridSize-1].AddDays(1)}
				idx = dashboard.IndexByDay(jobs.NewFetcher(nil, sources...).FetchJobs(cmd.Context(), p))
			}

			printGrid(cmd.OutOrStdout(), dashboard.BuildCells(ref, today, idx))
			return nil
		},
	}
	cmd.Flags().StringVar(&cursor, "cursor", "", "Any date in the month to show; defaults to today")
	cmd.Flags().BoolVar(&withJobs, "jobs", false, "Load jobs from the configured sources and highlight busy days")
	return cmd
}

// printGrid writes cells as a Monday-first calendar. The selected day is
// marked with a star and days with jobs are bold.
func printGrid(w io.Writer, cells []dashboard.Cell) {
	if len(cells) == 0 {
		return
	}
	var month calendar.Date
	for _, c := range cells {
		if c.InCurrentMonth {
			month = c.Date
			break
		}
	}

	title := fmt.Sprintf("%s %d", month.Month(), month.Year())
	pad := (gridWidth - len(title)) / 2
	_, _ = color.New(color.FgWhite, color.Italic).Fprintf(w, "%s%s\n", strings.Repeat(" ", pad), title)

	headers := make([]string, 0, len(calendar.WeekdayHeaders))
	for _, wd := range calendar.WeekdayHeaders {
		headers = append(headers, wd.String()[:2])
	}
	_, _ = color.New(color.Underline).Fprintln(w, strings.Join(headers, " "))

	faint := color.New(color.Faint, color.FgWhite)
	plain := color.New()
	busy := color.New(color.Bold, color.FgHiWhite)
	today := color.New(color.FgHiYellow)

	for i, c := range cells {
		style := plain
		switch {
		case !c.InCurrentMonth:
			style = faint
		case c.IsToday:
			style = today
		case len(c.Jobs) > 0:
			style = busy
		}

		// Every cell is three columns wide; the star takes the separator's
		// place. The last cell of a row drops the separator.
		sep := " "
		if c.IsSelected {
			sep = "*"
		}
		if i%7 == 6 {
			sep = strings.TrimSpace(sep) + "\n"
		}
		_, _ = style.Fprintf(w, "%2d", c.Date.Day())
		_, _ = fmt.Fprint(w, sep)
	}
}
