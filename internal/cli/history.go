package cli

import (
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/edi997/internal/report"
	"github.com/roach88/edi997/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Database        string
	Limit           int
	Reconciliations bool
	Hash            string
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "List recorded validation and reconciliation runs",
		Long: `List runs recorded by "validate --db" and "reconcile --db", newest first.

With a run ID, show the stored result of that validation run.

Example:
  edi997 history --db runs.db --limit 20
  edi997 history --db runs.db --reconciliations
  edi997 history --db runs.db 0192f0c4-...`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				return runHistoryShow(opts, args[0], cmd)
			}
			return runHistory(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (default store.path)")
	cmd.Flags().IntVar(&opts.Limit, "limit", store.DefaultListLimit, "maximum number of runs to list")
	cmd.Flags().BoolVar(&opts.Reconciliations, "reconciliations", false, "list reconciliation runs instead of validation runs")
	cmd.Flags().StringVar(&opts.Hash, "hash", "", "only validation runs of content with this SHA-256")

	return cmd
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	e, err := setup(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	if opts.Limit < 1 {
		return e.formatter.Fail(ExitCommandError, ErrCodeFlags, fmt.Sprintf("invalid limit %d: must be positive", opts.Limit), nil)
	}
	st, err := e.requireStore(opts.Database)
	if err != nil {
		return err
	}
	defer e.closeStore(st)

	ctx := cmd.Context()
	w := cmd.OutOrStdout()

	if opts.Reconciliations {
		runs, err := st.ListReconciliationRuns(ctx, opts.Limit)
		if err != nil {
			return e.formatter.Fail(ExitCommandError, ErrCodeStore, "failed to list runs", err)
		}
		if e.formatter.Format == "json" {
			return e.formatter.Success(runs)
		}
		if len(runs) == 0 {
			fmt.Fprintln(w, "No reconciliation runs recorded")
			return nil
		}
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tRECORDED\tGROUP\tMATCHED\tTOTAL\tRECONCILED")
		for _, r := range runs {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%t\n",
				r.ID, r.RecordedAt.Format(time.RFC3339), r.GroupControlNumber, r.Matched, r.Total, r.FullyReconciled)
		}
		return tw.Flush()
	}

	var runs []store.ValidationRun
	if opts.Hash != "" {
		runs, err = st.FindValidationRunsByHash(ctx, opts.Hash)
		if len(runs) > opts.Limit {
			runs = runs[:opts.Limit]
		}
	} else {
		runs, err = st.ListValidationRuns(ctx, opts.Limit)
	}
	if err != nil {
		return e.formatter.Fail(ExitCommandError, ErrCodeStore, "failed to list runs", err)
	}
	if e.formatter.Format == "json" {
		return e.formatter.Success(runs)
	}
	if len(runs) == 0 {
		fmt.Fprintln(w, "No validation runs recorded")
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tRECORDED\tSOURCE\tICN\tSTATUS\tVALID\tERRORS")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%t\t%d\n",
			r.ID, r.RecordedAt.Format(time.RFC3339), r.Source, r.InterchangeControlNumber, r.Status, r.IsValid, r.ErrorCount)
	}
	return tw.Flush()
}

func runHistoryShow(opts *HistoryOptions, id string, cmd *cobra.Command) error {
	e, err := setup(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	st, err := e.requireStore(opts.Database)
	if err != nil {
		return err
	}
	defer e.closeStore(st)

	run, res, err := st.GetValidationRun(cmd.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		return e.formatter.Fail(ExitCommandError, ErrCodeNotFound, "run not found", err)
	}
	if err != nil {
		return e.formatter.Fail(ExitCommandError, ErrCodeStore, "failed to read run", err)
	}

	if e.formatter.Format == "json" {
		view, err := report.ValidationView(res, report.ModeFull)
		if err != nil {
			return e.formatter.Fail(ExitCommandError, ErrCodeGeneric, "failed to render run", err)
		}
		return e.formatter.Success(map[string]interface{}{"run": run, "result": view})
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Run %s recorded %s\n\n", run.ID, run.RecordedAt.Format(time.RFC3339))
	return report.WriteValidationSummary(w, run.Source, res)
}
