package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/roach88/edi997/internal/ack"
	"github.com/roach88/edi997/internal/reconcile"
)

// Sheet names of the exported workbook.
const (
	SheetSummary        = "Summary"
	SheetTransactions   = "Transactions"
	SheetErrors         = "Errors"
	SheetReconciliation = "Reconciliation"
)

// Workbook builds an XLSX workbook for res. The Reconciliation sheet is added only
// when rec is non-nil. The caller closes the returned file.
func Workbook(res *ack.ValidationResult, rec *reconcile.Result) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName(f.GetSheetName(0), SheetSummary); err != nil {
		f.Close()
		return nil, fmt.Errorf("rename default sheet: %w", err)
	}

	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("create header style: %w", err)
	}

	w := &sheetWriter{f: f, header: header}
	w.summary(res)
	w.transactions(res)
	w.errors(res)
	if rec != nil {
		w.reconciliation(rec)
	}
	if w.err != nil {
		f.Close()
		return nil, w.err
	}
	f.SetActiveSheet(0)
	return f, nil
}

// WriteWorkbook writes the workbook for res and rec to w.
func WriteWorkbook(w io.Writer, res *ack.ValidationResult, rec *reconcile.Result) error {
	f, err := Workbook(res, rec)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// sheetWriter appends rows and remembers the first error.
type sheetWriter struct {
	f      *excelize.File
	header int
	err    error
}

func (w *sheetWriter) sheet(name string, columns ...string) {
	if w.err != nil {
		return
	}
	if name != SheetSummary {
		if _, err := w.f.NewSheet(name); err != nil {
			w.err = fmt.Errorf("create sheet %s: %w", name, err)
			return
		}
	}
	if len(columns) == 0 {
		return
	}
	row := make([]any, len(columns))
	for i, c := range columns {
		row[i] = c
	}
	w.row(name, 1, row...)
	if w.err != nil {
		return
	}
	end, err := excelize.CoordinatesToCellName(len(columns), 1)
	if err != nil {
		w.err = err
		return
	}
	if err := w.f.SetCellStyle(name, "A1", end, w.header); err != nil {
		w.err = fmt.Errorf("style %s header: %w", name, err)
	}
}

func (w *sheetWriter) row(sheet string, n int, values ...any) {
	if w.err != nil {
		return
	}
	cell, err := excelize.CoordinatesToCellName(1, n)
	if err != nil {
		w.err = err
		return
	}
	if err := w.f.SetSheetRow(sheet, cell, &values); err != nil {
		w.err = fmt.Errorf("write %s row %d: %w", sheet, n, err)
	}
}

func (w *sheetWriter) summary(res *ack.ValidationResult) {
	w.sheet(SheetSummary, "Field", "Value")
	fg := res.FunctionalGroup
	rows := [][]any{
		{"Interchange Control Number", res.InterchangeControlNumber},
		{"Sender ID", res.SenderID},
		{"Receiver ID", res.ReceiverID},
		{"Valid", res.IsValid},
		{"Overall Status", string(res.OverallStatus())},
		{"Summary", res.Summary()},
		{"Functional Groups", len(res.FunctionalGroups)},
		{"Transaction Sets Included", fg.Included},
		{"Transaction Sets Received", fg.Received},
		{"Transaction Sets Accepted", fg.Accepted},
		{"Total Errors", res.TotalErrors()},
		{"Validated At", res.Timestamp.UTC().Format(timestampLayout)},
	}
	for i, r := range rows {
		w.row(SheetSummary, i+2, r...)
	}
}

func (w *sheetWriter) transactions(res *ack.ValidationResult) {
	w.sheet(SheetTransactions, "Group Control #", "Functional ID", "Control #", "Type", "Status", "Ack Code", "Errors", "Syntax Error Codes")
	n := 2
	for _, g := range groupsOf(res) {
		for _, ts := range g.Transactions {
			w.row(SheetTransactions, n, g.GroupControlNumber, g.FunctionalIDCode, ts.ControlNumber,
				ts.TransactionSetID, string(ts.Status), ts.AckCode, ts.ErrorCount, strings.Join(ts.SyntaxErrorCodes, ", "))
			n++
		}
	}
}

func (w *sheetWriter) errors(res *ack.ValidationResult) {
	w.sheet(SheetErrors, "Control #", "Segment", "Position", "Element", "Reference", "Code", "Severity", "Description", "Bad Data")
	n := 2
	for _, ts := range res.Transactions() {
		for _, e := range ts.Errors {
			w.row(SheetErrors, n, ts.ControlNumber, e.SegmentID, optInt(e.SegmentPosition), optInt(e.ElementPosition),
				optInt(e.ElementReference), e.ErrorCode, string(e.Severity), e.ErrorDescription, e.BadData)
			n++
		}
	}
}

func (w *sheetWriter) reconciliation(rec *reconcile.Result) {
	w.sheet(SheetReconciliation, "Control #", "Type", "Status", "Validation Status", "Reason")
	for i, tr := range rec.FunctionalGroup.Transactions {
		valStatus := ""
		if tr.Acknowledgment != nil {
			valStatus = string(tr.Acknowledgment.Status)
		}
		w.row(SheetReconciliation, i+2, tr.ControlNumber(), transactionType(tr), string(tr.Status), valStatus, tr.MismatchReason)
	}
}

// optInt returns an empty cell for nil.
func optInt(n *int) any {
	if n == nil {
		return ""
	}
	return *n
}
