package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/edi997/internal/ack"
	"github.com/roach88/edi997/internal/reconcile"
	"github.com/roach88/edi997/internal/report"
	"github.com/roach88/edi997/internal/store"
)

// ReconcileOptions holds flags for the reconcile command.
type ReconcileOptions struct {
	*RootOptions
	Database string
	Group    string
	Report   string
	Pretty   bool
	Output   string
}

// ReconcileSummary is the payload of `reconcile --format json` without --report.
type ReconcileSummary struct {
	ValidationRunID     string `json:"validation_run_id,omitempty"`
	ReconciliationRunID string `json:"reconciliation_run_id,omitempty"`
	GroupControlNumber  string `json:"group_control_number"`
	FullyReconciled     bool   `json:"is_fully_reconciled"`
	Summary             string `json:"summary"`
	Matched             int    `json:"matched"`
	MissingAck          int    `json:"missing_ack"`
	UnexpectedAck       int    `json:"unexpected_ack"`
	Mismatched          int    `json:"mismatched"`
	Total               int    `json:"total"`
}

// NewReconcileCommand creates the reconcile command.
func NewReconcileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReconcileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "reconcile <997-file> [outbound.json]",
		Short: "Reconcile a 997 against the transactions that were sent",
		Long: `Validate a 997 file and match its acknowledged transactions against an
outbound functional group.

The outbound group comes from the JSON file when given; otherwise it is read
from the outbound registry in the database (see "edi997 outbound import"),
keyed by --group or by the 997's group control number.

Exit status is 0 when every transaction matched, 1 otherwise, and 2 on errors.

Example:
  edi997 reconcile ack.edi sent.json
  edi997 reconcile --db runs.db --report markdown ack.edi`,
		Args:          cobra.RangeArgs(1, 2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			outboundPath := ""
			if len(args) == 2 {
				outboundPath = args[1]
			}
			return runReconcile(opts, args[0], outboundPath, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "SQLite database for the outbound registry and run history (default store.path)")
	cmd.Flags().StringVar(&opts.Group, "group", "", "outbound group control number to read from the registry")
	cmd.Flags().StringVar(&opts.Report, "report", "", "report type (json|markdown|xlsx)")
	cmd.Flags().BoolVar(&opts.Pretty, "pretty", false, "indent JSON output")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write the report to a file instead of stdout")

	return cmd
}

func runReconcile(opts *ReconcileOptions, ackPath, outboundPath string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	if _, err := checkReportFlags(opts.Report, ""); err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeFlags, "invalid flags", err)
	}

	e, err := setup(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	p, err := e.pipeline()
	if err != nil {
		return err
	}
	st, err := e.openStore(opts.Database)
	if err != nil {
		return err
	}
	defer e.closeStore(st)

	content, err := p.ReadFile(ackPath)
	if err != nil {
		return e.formatter.Fail(ExitCommandError, ErrCodeNotFound, "failed to read 997", err)
	}
	res, err := p.ValidateBytes(content)
	if err != nil {
		return e.formatter.Fail(ExitCommandError, ErrCodeParse, "failed to parse 997", err)
	}

	outbound, err := loadOutbound(e, cmd, st, outboundPath, opts.Group, res)
	if err != nil {
		return err
	}

	rec, err := p.Reconcile(res, outbound)
	if err != nil {
		return e.formatter.Fail(ExitCommandError, ErrCodeGeneric, "reconciliation failed", err)
	}

	summary := ReconcileSummary{
		GroupControlNumber: rec.FunctionalGroup.GroupControlNumber,
		FullyReconciled:    rec.IsFullyReconciled,
		Summary:            rec.Summary,
		Matched:            rec.FunctionalGroup.MatchedCount(),
		MissingAck:         rec.FunctionalGroup.MissingAckCount(),
		UnexpectedAck:      rec.FunctionalGroup.UnexpectedAckCount(),
		Mismatched:         rec.FunctionalGroup.MismatchCount(),
		Total:              rec.FunctionalGroup.TotalCount(),
	}
	if st != nil {
		vrun, err := st.RecordValidation(cmd.Context(), ackPath, content, res)
		if err != nil {
			return e.formatter.Fail(ExitCommandError, ErrCodeStore, "failed to record run", err)
		}
		rrun, err := st.RecordReconciliation(cmd.Context(), vrun.ID, rec)
		if err != nil {
			return e.formatter.Fail(ExitCommandError, ErrCodeStore, "failed to record run", err)
		}
		summary.ValidationRunID, summary.ReconciliationRunID = vrun.ID, rrun.ID
	}

	w, closeOut, err := openOutput(cmd, opts.Output)
	if err != nil {
		return e.formatter.Fail(ExitCommandError, ErrCodeWriteFailed, "failed to open output", err)
	}
	werr := writeReconciliation(e, opts, w, res, rec, summary)
	if cerr := closeOut(); werr == nil {
		werr = cerr
	}
	if werr != nil {
		return e.formatter.Fail(ExitCommandError, ErrCodeWriteFailed, "failed to write report", werr)
	}

	if !rec.IsFullyReconciled {
		return NewExitError(ExitFailure, rec.Summary)
	}
	return nil
}

// loadOutbound reads the outbound group from path, or from the registry when
// path is empty.
func loadOutbound(e *env, cmd *cobra.Command, st *store.Store, path, group string, res *ack.ValidationResult) (reconcile.OutboundFunctionalGroup, error) {
	if path != "" {
		g, err := reconcile.LoadOutboundFile(path)
		if err != nil {
			return reconcile.OutboundFunctionalGroup{}, e.formatter.Fail(ExitCommandError, ErrCodeOutbound, "failed to load outbound group", err)
		}
		return g, nil
	}
	if st == nil {
		return reconcile.OutboundFunctionalGroup{}, e.formatter.Fail(ExitCommandError, ErrCodeFlags,
			"no outbound group: pass outbound.json or --db", nil)
	}
	if group == "" {
		group = res.FunctionalGroup.GroupControlNumber
	}
	g, err := st.GetOutbound(cmd.Context(), group)
	if errors.Is(err, store.ErrNotFound) {
		return reconcile.OutboundFunctionalGroup{}, e.formatter.Fail(ExitCommandError, ErrCodeNotFound, "outbound group not registered", err)
	}
	if err != nil {
		return reconcile.OutboundFunctionalGroup{}, e.formatter.Fail(ExitCommandError, ErrCodeStore, "failed to read outbound group", err)
	}
	e.logger.WithField("group_control_number", group).Debug("outbound_loaded_from_registry")
	return g, nil
}

func writeReconciliation(e *env, opts *ReconcileOptions, w io.Writer, res *ack.ValidationResult, rec *reconcile.Result, summary ReconcileSummary) error {
	switch opts.Report {
	case ReportJSON:
		return report.WriteJSON(w, report.Combined(res, rec), opts.Pretty)
	case ReportMarkdown:
		md := report.NewMarkdown(report.MarkdownOptionsFrom(e.cfg.Reporting))
		_, err := io.WriteString(w, md.Combined(res, rec))
		return err
	case ReportXLSX:
		return report.WriteWorkbook(w, res, rec)
	}

	if e.formatter.Format == "json" {
		return e.formatter.Success(summary)
	}
	if err := report.WriteReconciliationSummary(w, rec); err != nil {
		return err
	}
	for _, tr := range rec.FunctionalGroup.Transactions {
		if tr.MismatchReason != "" {
			fmt.Fprintf(w, "  %s %s: %s\n", tr.Status, tr.ControlNumber(), tr.MismatchReason)
		}
	}
	if summary.ReconciliationRunID != "" {
		fmt.Fprintf(w, "Recorded as run %s\n", summary.ReconciliationRunID)
	}
	return nil
}
