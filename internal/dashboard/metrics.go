package dashboard

import (
	"fmt"
	"math"

	"opsdash/internal/model"
)

// Aggregate reduces jobs to period metrics. It does no date filtering:
// callers pass exactly the jobs of the period they are reporting on.
//
// Earnings is the amount total rounded to two decimals. ClientCount counts
// distinct non-empty client IDs. JobsCompleted counts completed jobs.
func Aggregate(jobs []model.Job) model.Metrics {
	var (
		m       model.Metrics
		total   float64
		clients = make(map[string]struct{})
	)
	for _, j := range jobs {
		if !math.IsNaN(j.Amount) {
			total += j.Amount
		}
		if j.ClientID != "" {
			clients[j.ClientID] = struct{}{}
		}
		if j.Completed {
			m.JobsCompleted++
		}
	}
	m.Earnings = math.Round(total*100) / 100
	m.ClientCount = len(clients)
	return m
}

// FormatMoney renders amount with two decimals behind symbol, e.g. "£300.00".
func FormatMoney(symbol string, amount float64) string {
	return fmt.Sprintf("%s%.2f", symbol, amount)
}
