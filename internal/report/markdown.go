package report

import (
	"fmt"
	"strings"

	"github.com/roach88/edi997/internal/ack"
	"github.com/roach88/edi997/internal/config"
	"github.com/roach88/edi997/internal/reconcile"
)

const timestampLayout = "2006-01-02 15:04:05 UTC"

// MarkdownOptions controls Markdown rendering.
type MarkdownOptions struct {
	IncludeTimestamps bool

	// MaxErrorsPerTransaction caps the error rows listed per transaction. Zero
	// means unlimited.
	MaxErrorsPerTransaction int
}

// Markdown renders human-readable reports.
type Markdown struct {
	opts MarkdownOptions
}

// MarkdownOptionsFrom converts the reporting configuration.
func MarkdownOptionsFrom(c config.ReportingConfig) MarkdownOptions {
	return MarkdownOptions{
		IncludeTimestamps:       c.IncludeTimestamps,
		MaxErrorsPerTransaction: c.MaxErrorsPerTransaction,
	}
}

// NewMarkdown creates a Markdown renderer.
func NewMarkdown(opts MarkdownOptions) *Markdown {
	return &Markdown{opts: opts}
}

type lines struct {
	b strings.Builder
}

func (l *lines) add(format string, args ...any) {
	fmt.Fprintf(&l.b, format, args...)
	l.b.WriteByte('\n')
}

func (l *lines) blank() { l.b.WriteByte('\n') }

func (l *lines) String() string {
	return strings.TrimRight(l.b.String(), "\n") + "\n"
}

// Validation renders the validation report.
func (m *Markdown) Validation(res *ack.ValidationResult) string {
	var l lines
	l.add("# 997 Functional Acknowledgment Validation Report")
	l.blank()
	m.generated(&l, res)
	m.validationSummary(&l, res)
	m.interchange(&l, res)
	for _, g := range groupsOf(res) {
		m.group(&l, g)
		m.transactionSets(&l, g)
	}
	if res.TotalErrors() > 0 {
		m.errors(&l, res)
	}
	return l.String()
}

// Reconciliation renders the reconciliation report. res is optional and only
// supplies the timestamp.
func (m *Markdown) Reconciliation(rec *reconcile.Result, res *ack.ValidationResult) string {
	var l lines
	l.add("# 997 Reconciliation Report")
	l.blank()
	if res != nil {
		m.generated(&l, res)
	}
	m.reconciliationSummary(&l, rec)
	m.reconciliationDetails(&l, rec.FunctionalGroup)
	return l.String()
}

// Combined renders validation and reconciliation in one report.
func (m *Markdown) Combined(res *ack.ValidationResult, rec *reconcile.Result) string {
	var l lines
	l.add("# 997 Validation & Reconciliation Report")
	l.blank()
	m.generated(&l, res)
	l.add("## Validation Summary")
	l.blank()
	m.validationSummary(&l, res)
	l.add("## Reconciliation Summary")
	l.blank()
	m.reconciliationSummary(&l, rec)
	m.interchange(&l, res)
	m.combinedTransactions(&l, rec.FunctionalGroup)
	if res.TotalErrors() > 0 {
		m.errors(&l, res)
	}
	return l.String()
}

func (m *Markdown) generated(l *lines, res *ack.ValidationResult) {
	if !m.opts.IncludeTimestamps {
		return
	}
	l.add("**Generated:** %s", res.Timestamp.UTC().Format(timestampLayout))
	l.blank()
}

func (m *Markdown) validationSummary(l *lines, res *ack.ValidationResult) {
	fg := res.FunctionalGroup
	badge := "❌"
	if res.IsValid {
		badge = "✅"
	}
	l.add("**Status:** %s %s", badge, res.OverallStatus())
	l.blank()
	l.add("**Summary:** %s", res.Summary())
	l.blank()
	l.add("| Metric | Value |")
	l.add("|--------|-------|")
	l.add("| Transaction Sets Included | %d |", fg.Included)
	l.add("| Transaction Sets Received | %d |", fg.Received)
	l.add("| Transaction Sets Accepted | %d |", fg.Accepted)
	l.add("| Total Errors | %d |", res.TotalErrors())
	l.blank()
}

func (m *Markdown) interchange(l *lines, res *ack.ValidationResult) {
	l.add("## Interchange Details")
	l.blank()
	l.add("| Field | Value |")
	l.add("|-------|-------|")
	l.add("| Control Number | %s |", cell(res.InterchangeControlNumber))
	l.add("| Sender ID | %s |", cell(res.SenderID))
	l.add("| Receiver ID | %s |", cell(res.ReceiverID))
	l.blank()
}

func (m *Markdown) group(l *lines, g ack.FunctionalGroupValidation) {
	l.add("## Functional Group %s", g.GroupControlNumber)
	l.blank()
	l.add("| Field | Value |")
	l.add("|-------|-------|")
	l.add("| Functional ID Code | %s |", cell(g.FunctionalIDCode))
	l.add("| Group Control Number | %s |", cell(g.GroupControlNumber))
	l.add("| Status | %s |", g.Status)
	l.add("| Acknowledgment Code (AK9-01) | %s |", cell(g.AckCode))
	if len(g.SyntaxErrorCodes) > 0 {
		l.add("| Group Syntax Error Codes | %s |", strings.Join(g.SyntaxErrorCodes, ", "))
	}
	l.blank()
}

func (m *Markdown) transactionSets(l *lines, g ack.FunctionalGroupValidation) {
	l.add("### Transaction Sets")
	l.blank()
	if len(g.Transactions) == 0 {
		l.add("*No transaction sets found*")
		l.blank()
		return
	}
	l.add("| Control # | Type | Status | Ack Code | Errors |")
	l.add("|-----------|------|--------|----------|--------|")
	for _, ts := range g.Transactions {
		l.add("| %s | %s | %s %s | %s | %d |",
			cell(ts.ControlNumber), cell(ts.TransactionSetID), statusBadge(ts.Status), ts.Status, cell(ts.AckCode), ts.ErrorCount)
	}
	l.blank()
}

func (m *Markdown) errors(l *lines, res *ack.ValidationResult) {
	l.add("## Error Details")
	l.blank()
	for _, ts := range res.Transactions() {
		if ts.ErrorCount == 0 {
			continue
		}
		l.add("### Transaction %s (%s)", ts.ControlNumber, ts.TransactionSetID)
		l.blank()

		shown := ts.Errors
		if limit := m.opts.MaxErrorsPerTransaction; limit > 0 && len(shown) > limit {
			shown = shown[:limit]
		}
		l.add("| Segment | Position | Element | Code | Severity | Description |")
		l.add("|---------|----------|---------|------|----------|-------------|")
		for _, e := range shown {
			l.add("| %s | %s | %s | %s | %s | %s |",
				cell(e.SegmentID), intCell(e.SegmentPosition), intCell(e.ElementPosition),
				cell(e.ErrorCode), e.Severity, cell(e.ErrorDescription))
		}
		l.blank()
		if hidden := len(ts.Errors) - len(shown); hidden > 0 {
			l.add("*%d more errors not shown*", hidden)
			l.blank()
		}
		if len(ts.SyntaxErrorCodes) > 0 {
			l.add("**Syntax Error Codes:** %s", strings.Join(ts.SyntaxErrorCodes, ", "))
			l.blank()
		}
	}
}

func (m *Markdown) reconciliationSummary(l *lines, rec *reconcile.Result) {
	fg := rec.FunctionalGroup
	if rec.IsFullyReconciled {
		l.add("**Status:** ✅ Fully Reconciled")
	} else {
		l.add("**Status:** ⚠️ Partial Reconciliation")
	}
	l.blank()
	l.add("**Summary:** %s", rec.Summary)
	l.blank()
	l.add("| Metric | Count |")
	l.add("|--------|-------|")
	l.add("| Total Transactions | %d |", fg.TotalCount())
	l.add("| Matched | %d |", fg.MatchedCount())
	l.add("| Missing Acknowledgments | %d |", fg.MissingAckCount())
	l.add("| Unexpected Acknowledgments | %d |", fg.UnexpectedAckCount())
	l.add("| Mismatches | %d |", fg.MismatchCount())
	l.blank()
}

func (m *Markdown) reconciliationDetails(l *lines, g reconcile.FunctionalGroupReconciliation) {
	l.add("## Reconciliation Details")
	l.blank()
	if len(g.Transactions) == 0 {
		l.add("*No transactions to reconcile*")
		l.blank()
		return
	}
	l.add("| Control # | Type | Recon Status | Validation Status | Note |")
	l.add("|-----------|------|--------------|-------------------|------|")
	for _, tr := range g.Transactions {
		valStatus := "-"
		if tr.Acknowledgment != nil {
			valStatus = string(tr.Acknowledgment.Status)
		}
		l.add("| %s | %s | %s %s | %s | %s |",
			cell(tr.ControlNumber()), cell(transactionType(tr)), reconBadge(tr.Status), tr.Status, valStatus, cell(tr.MismatchReason))
	}
	l.blank()
}

func (m *Markdown) combinedTransactions(l *lines, g reconcile.FunctionalGroupReconciliation) {
	l.add("## Transaction Details")
	l.blank()
	if len(g.Transactions) == 0 {
		l.add("*No transactions found*")
		l.blank()
		return
	}
	l.add("| Control # | Type | Validation | Reconciliation | Errors |")
	l.add("|-----------|------|------------|----------------|--------|")
	for _, tr := range g.Transactions {
		valStatus, errCount := "-", 0
		if a := tr.Acknowledgment; a != nil {
			valStatus = fmt.Sprintf("%s %s", statusBadge(a.Status), a.Status)
			errCount = a.ErrorCount
		}
		l.add("| %s | %s | %s | %s %s | %d |",
			cell(tr.ControlNumber()), cell(transactionType(tr)), valStatus, reconBadge(tr.Status), tr.Status, errCount)
	}
	l.blank()
}

func groupsOf(res *ack.ValidationResult) []ack.FunctionalGroupValidation {
	if len(res.FunctionalGroups) > 0 {
		return res.FunctionalGroups
	}
	return []ack.FunctionalGroupValidation{res.FunctionalGroup}
}

func transactionType(tr reconcile.TransactionReconciliation) string {
	if tr.Outbound != nil {
		return tr.Outbound.TransactionSetID
	}
	if tr.Acknowledgment != nil {
		return tr.Acknowledgment.TransactionSetID
	}
	return ""
}

func statusBadge(s ack.Status) string {
	switch s {
	case ack.StatusAccepted:
		return "✅"
	case ack.StatusPartiallyAccepted:
		return "⚠️"
	default:
		return "❌"
	}
}

func reconBadge(s reconcile.Status) string {
	switch s {
	case reconcile.StatusMatched:
		return "✅"
	case reconcile.StatusMissingAck:
		return "⚠️"
	default:
		return "❌"
	}
}

// cell escapes pipes and replaces empty values with "-".
func cell(s string) string {
	if s == "" {
		return "-"
	}
	return strings.ReplaceAll(s, "|", `\|`)
}

func intCell(n *int) string {
	if n == nil {
		return "-"
	}
	return fmt.Sprint(*n)
}
