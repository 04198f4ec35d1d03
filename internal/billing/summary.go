package billing

import "time"

// PeriodSummary aggregates the invoices of one billing period. Count covers
// every invoice issued in the period; the collected figures only those whose
// collected flag is set.
type PeriodSummary struct {
	Count            int     `json:"count"`
	CollectedCount   int     `json:"collected_count"`
	CollectedTotal   float64 `json:"collected_total"`
	AverageCollected float64 `json:"average_collected"`
}

// Summarize folds a snapshot of the invoice collection into the summary for
// the closed period [periodStart, periodEnd]. Pure over its inputs, so views
// can safely recompute it after every broadcast delivery.
func Summarize(invoices []Invoice, periodStart, periodEnd time.Time) PeriodSummary {
	var summary PeriodSummary
	for _, inv := range invoices {
		if inv.IssueDate.Before(periodStart) || inv.IssueDate.After(periodEnd) {
			continue
		}
		summary.Count++
		if inv.Collected {
			summary.CollectedCount++
			summary.CollectedTotal += inv.Amount
		}
	}
	if summary.CollectedCount > 0 {
		summary.AverageCollected = summary.CollectedTotal / float64(summary.CollectedCount)
	}
	return summary
}

// CurrentPeriod returns the calendar month containing now, spanning the first
// day at midnight through the last nanosecond of the last day.
func CurrentPeriod(now time.Time) (start, end time.Time) {
	start = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	end = time.Date(now.Year(), now.Month()+1, 0, 23, 59, 59, int(time.Second-time.Nanosecond), now.Location())
	return start, end
}
