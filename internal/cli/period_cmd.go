package cli

import (
	"fmt"
	"strconv"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	"opsdash/internal/calendar"
)

// dateFlag parses an optional YYYY-MM-DD flag value, using fallback when
// it is empty.
func dateFlag(raw string, fallback calendar.Date) (calendar.Date, error) {
	if raw == "" {
		return fallback, nil
	}
	d, err := calendar.Parse(raw)
	if err != nil {
		return calendar.Date{}, err
	}
	return d, nil
}

func newPeriodCmd(app *App) *cobra.Command {
	var (
		cursor string
		shift  int
	)

	cmd := &cobra.Command{
		Use:       "period [day|week|month|quarter|year]",
		Short:     "Print the reporting period containing a date",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"day", "week", "month", "quarter", "year"},
		Example: `
opsdash period
opsdash period month --cursor 2025-10-23
opsdash period quarter --shift -1
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			r := calendar.RangeWeek
			if len(args) == 1 {
				parsed, ok := calendar.ParseRange(args[0])
				if !ok {
					return fmt.Errorf("unknown range %q", args[0])
				}
				r = parsed
			}
			ref, err := dateFlag(cursor, app.today(nil))
			if err != nil {
				return err
			}
			if shift != 0 {
				ref = calendar.Shift(r, ref, shift)
			}

			p := calendar.Resolve(r, ref)
			w := cmd.OutOrStdout()

			tbl := uitable.New()
			tbl.Separator = "  "
			tbl.AddRow("Range:", r.Title())
			tbl.AddRow("Cursor:", ref.String())
			tbl.AddRow("From:", p.From.String())
			tbl.AddRow("To:", p.To.String()+" (exclusive)")
			tbl.AddRow("Days:", strconv.Itoa(p.Days()))
			tbl.AddRow("Prev:", calendar.Shift(r, ref, -1).String())
			tbl.AddRow("Next:", calendar.Shift(r, ref, 1).String())

			_, _ = color.New(color.Bold, color.Underline).Fprintln(w, p.String())
			_, _ = fmt.Fprintln(w, tbl)
			return nil
		},
	}
	cmd.Flags().StringVar(&cursor, "cursor", "", "Reference date (YYYY-MM-DD); defaults to today")
	cmd.Flags().IntVar(&shift, "shift", 0, "Move the cursor by this many periods first")
	return cmd
}
