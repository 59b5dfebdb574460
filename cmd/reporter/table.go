package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"ledger_reporter/internal/domain/entity"
)

// renderReport writes the ledger as a console table. Each meta-transaction
// prints one line per member transaction; the account and running balance
// columns appear on the leading line only.
func renderReport(w io.Writer, report *entity.LedgerReport) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	fmt.Fprintln(tw, "TIMESTAMP\tACCOUNT\tTYPE\tDESCRIPTION\tAMOUNT\tBALANCE\tTOTAL")
	for _, row := range report.Rows {
		for i, line := range row.Lines {
			account, balance, total := "", "", ""
			if i == 0 {
				account = row.AccountName
				balance = row.AccountBalance.StringFixed(2)
				total = row.TotalBalance.StringFixed(2)
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
				line.Timestamp.Format(time.RFC3339),
				account,
				line.Type,
				line.Description,
				line.Amount.String(),
				balance,
				total,
			)
		}
		if len(row.Lines) > 1 {
			fmt.Fprintf(tw, "\t\t\t(combined)\t%s\t\t\n", row.Amount.String())
		}
	}
	return tw.Flush()
}
