package billing

import (
	"encoding/csv"
	"io"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// ExportCSV writes the invoice listing plus a period summary footer. Amounts
// are formatted for the requested locale; unknown tags fall back to Spanish,
// the workshops' reporting locale.
func ExportCSV(w io.Writer, invoices []Invoice, periodStart, periodEnd time.Time, locale string) error {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.Spanish
	}
	printer := message.NewPrinter(tag)

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"number", "issue_date", "client", "concept", "amount", "collected"}); err != nil {
		return err
	}
	for _, inv := range invoices {
		collected := "no"
		if inv.Collected {
			collected = "yes"
		}
		record := []string{
			inv.Number,
			inv.IssueDate.Format("2006-01-02"),
			inv.ClientID,
			inv.Concept,
			printer.Sprintf("%.2f", inv.Amount),
			collected,
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	summary := Summarize(invoices, periodStart, periodEnd)
	footer := []string{
		"period total",
		periodStart.Format("2006-01-02"),
		"",
		printer.Sprintf("%d of %d collected", summary.CollectedCount, summary.Count),
		printer.Sprintf("%.2f", summary.CollectedTotal),
		printer.Sprintf("avg %.2f", summary.AverageCollected),
	}
	if err := cw.Write(footer); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}
