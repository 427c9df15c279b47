package report

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/roach88/edi997/internal/ack"
	"github.com/roach88/edi997/internal/reconcile"
)

// WriteValidationSummary prints a two-column metric table for res.
func WriteValidationSummary(w io.Writer, source string, res *ack.ValidationResult) error {
	fg := res.FunctionalGroup
	mark := "FAIL"
	if res.IsValid {
		mark = "OK"
	}
	rows := [][2]string{
		{"Status", fmt.Sprintf("%s %s", mark, res.OverallStatus())},
		{"Summary", res.Summary()},
		{"Interchange", res.InterchangeControlNumber},
		{"Transaction Sets Included", fmt.Sprint(fg.Included)},
		{"Transaction Sets Accepted", fmt.Sprint(fg.Accepted)},
		{"Total Errors", fmt.Sprint(res.TotalErrors())},
	}
	if source != "" {
		rows = append([][2]string{{"File", source}}, rows...)
	}
	return writeTable(w, rows)
}

// WriteReconciliationSummary prints a two-column metric table for rec.
func WriteReconciliationSummary(w io.Writer, rec *reconcile.Result) error {
	fg := rec.FunctionalGroup
	status := "PARTIAL Partial Reconciliation"
	if rec.IsFullyReconciled {
		status = "OK Fully Reconciled"
	}
	return writeTable(w, [][2]string{
		{"Status", status},
		{"Summary", rec.Summary},
		{"Total Transactions", fmt.Sprint(fg.TotalCount())},
		{"Matched", fmt.Sprint(fg.MatchedCount())},
		{"Missing Acknowledgments", fmt.Sprint(fg.MissingAckCount())},
		{"Unexpected Acknowledgments", fmt.Sprint(fg.UnexpectedAckCount())},
		{"Mismatches", fmt.Sprint(fg.MismatchCount())},
	})
}

func writeTable(w io.Writer, rows [][2]string) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "METRIC\tVALUE")
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%s\n", r[0], r[1])
	}
	return tw.Flush()
}
