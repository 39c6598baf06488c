package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	"opsdash/internal/calendar"
	"opsdash/internal/dashboard"
	"opsdash/internal/jobs"
	"opsdash/internal/nav"
)

func newReportCmd(app *App) *cobra.Command {
	var (
		rangeName string
		cursor    string
		asJSON    bool
	)

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Summarize earnings and jobs for a period",
		Example: `
opsdash report
opsdash report --range month --cursor 2025-10-01
opsdash report --json
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, ok := calendar.ParseRange(rangeName)
			if !ok {
				return fmt.Errorf("unknown range %q", rangeName)
			}

			cfg, err := app.loadConfig()
			if err != nil {
				return err
			}
			today := app.today(cfg)
			ref, err := dateFlag(cursor, today)
			if err != nil {
				return err
			}

			sources, release, err := buildSources(cfg)
			if err != nil {
				return err
			}
			defer release()

			b := dashboard.NewBuilder(jobs.NewFetcher(nil, sources...), cfg.BasePath)
			b.Today = func() calendar.Date { return today }
			v := b.Build(cmd.Context(), nav.State{Range: r, View: nav.ViewDay, Cursor: ref})

			w := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				return enc.Encode(v)
			}
			printReport(w, v, cfg.CurrencySymbol)
			return nil
		},
	}
	cmd.Flags().StringVar(&rangeName, "range", string(nav.DefaultRange), "Period granularity: day, week, month, quarter or year")
	cmd.Flags().StringVar(&cursor, "cursor", "", "Reference date (YYYY-MM-DD); defaults to today")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON.")
	return cmd
}

func printReport(w io.Writer, v dashboard.View, currency string) {
	title := color.New(color.Bold, color.Underline)
	faint := color.New(color.Faint, color.Italic)

	_, _ = title.Fprintf(w, "This %s: %s\n", v.Label, v.Period)

	summary := uitable.New()
	summary.AddRow("Earnings", dashboard.FormatMoney(currency, v.Metrics.Earnings))
	summary.AddRow("Clients", strconv.Itoa(v.Metrics.ClientCount))
	summary.AddRow("Completed", strconv.Itoa(v.Metrics.JobsCompleted))
	_, _ = fmt.Fprintln(w, summary)
	_, _ = fmt.Fprintln(w)

	if len(v.Days) == 0 {
		_, _ = faint.Fprintln(w, " no jobs")
		return
	}

	tbl := uitable.New()
	tbl.AddRow("DATE", "START", "END", "TITLE", "CLIENT", "AMOUNT", "DONE")
	for _, day := range v.Days {
		for _, j := range day.Jobs {
			client := j.ClientName
			if client == "" {
				client = j.ClientID
			}
			done := ""
			if j.Completed {
				done = "yes"
			}
			tbl.AddRow(j.Date.String(), j.Start, j.End, j.Title, client, dashboard.FormatMoney(currency, j.Amount), done)
		}
	}
	_, _ = fmt.Fprintln(w, tbl)
}
