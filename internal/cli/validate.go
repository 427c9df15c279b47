package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/edi997/internal/ack"
	"github.com/roach88/edi997/internal/pipeline"
	"github.com/roach88/edi997/internal/report"
	"github.com/roach88/edi997/internal/store"
	"github.com/roach88/edi997/internal/x12"
)

// Report kinds accepted by --report.
const (
	ReportJSON     = "json"
	ReportMarkdown = "markdown"
	ReportXLSX     = "xlsx"
)

// ValidReports lists the --report values. Empty selects the console summary.
var ValidReports = []string{ReportJSON, ReportMarkdown, ReportXLSX}

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
	Report   string
	JSONMode string
	Pretty   bool
	Output   string
	Database string
}

// FileSummary is the per-file entry of `validate --format json` without --report.
type FileSummary struct {
	Path    string     `json:"path"`
	RunID   string     `json:"run_id,omitempty"`
	Valid   bool       `json:"is_valid"`
	Status  ack.Status `json:"status,omitempty"`
	Summary string     `json:"summary,omitempty"`
	Errors  int        `json:"total_errors"`
	Error   *CLIError  `json:"error,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate <file>...",
		Short: "Validate 997 files",
		Long: `Parse and validate one or more 997 Functional Acknowledgment files.

Files are processed concurrently (batch.workers). Without --report a summary
table is printed per file; --report selects a full JSON, Markdown or XLSX report.

Exit status is 0 when every file is valid, 1 when any file is not accepted,
and 2 when any file cannot be read or parsed.

Example:
  edi997 validate inbound/*.edi
  edi997 validate --report json --json-mode compact ack.edi
  edi997 validate --report markdown -o report.md --db runs.db ack.edi`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Report, "report", "", "report type (json|markdown|xlsx)")
	cmd.Flags().StringVar(&opts.JSONMode, "json-mode", string(report.ModeFull), "JSON report mode (full|summary|compact)")
	cmd.Flags().BoolVar(&opts.Pretty, "pretty", false, "indent JSON output")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write the report to a file instead of stdout")
	cmd.Flags().StringVar(&opts.Database, "db", "", "record runs in this SQLite database (default store.path)")

	return cmd
}

func runValidate(opts *ValidateOptions, paths []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	mode, err := checkReportFlags(opts.Report, opts.JSONMode)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeFlags, "invalid flags", err)
	}
	if opts.Report == ReportXLSX && len(paths) != 1 {
		return formatter.Fail(ExitCommandError, ErrCodeFlags, "xlsx report takes exactly one file", nil)
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

	e.formatter.VerboseLog("Validating %d file(s) with %d worker(s)", len(paths), e.cfg.Batch.Workers)
	results, err := p.ValidateBatch(cmd.Context(), paths)
	if err != nil {
		return e.formatter.Fail(ExitCommandError, ErrCodeGeneric, "validation interrupted", err)
	}

	runIDs, err := recordResults(cmd, st, results)
	if err != nil {
		return e.formatter.Fail(ExitCommandError, ErrCodeStore, "failed to record run", err)
	}

	w, closeOut, err := openOutput(cmd, opts.Output)
	if err != nil {
		return e.formatter.Fail(ExitCommandError, ErrCodeWriteFailed, "failed to open output", err)
	}
	werr := writeValidation(e, opts, mode, w, results, runIDs)
	if cerr := closeOut(); werr == nil {
		werr = cerr
	}
	if werr != nil {
		return e.formatter.Fail(ExitCommandError, ErrCodeWriteFailed, "failed to write report", werr)
	}

	return validationExit(results)
}

// checkReportFlags validates --report and --json-mode.
func checkReportFlags(kind, jsonMode string) (report.JSONMode, error) {
	if kind != "" {
		valid := false
		for _, r := range ValidReports {
			if r == kind {
				valid = true
			}
		}
		if !valid {
			return "", fmt.Errorf("invalid report %q: must be one of %v", kind, ValidReports)
		}
	}
	return report.ParseJSONMode(jsonMode)
}

// recordResults stores every successfully validated file and returns run IDs by
// path. A nil store records nothing.
func recordResults(cmd *cobra.Command, st *store.Store, results []pipeline.FileResult) (map[string]string, error) {
	ids := make(map[string]string)
	if st == nil {
		return ids, nil
	}
	for _, r := range results {
		if r.Result == nil {
			continue
		}
		run, err := st.RecordValidation(cmd.Context(), r.Path, r.Content, r.Result)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", r.Path, err)
		}
		ids[r.Path] = run.ID
	}
	return ids, nil
}

func writeValidation(e *env, opts *ValidateOptions, mode report.JSONMode, w io.Writer, results []pipeline.FileResult, runIDs map[string]string) error {
	// Per-file failures go to stderr so they never mix with a report on stdout.
	if opts.Report != "" {
		for _, r := range results {
			if r.Err != nil {
				fmt.Fprintf(e.formatter.GetErrWriter(), "Error [%s]: %s: %v\n", ErrCodeParse, r.Path, r.Err)
			}
		}
	}
	ok := okResults(results)

	switch opts.Report {
	case ReportJSON:
		if len(results) == 1 {
			if len(ok) == 0 {
				return nil
			}
			return report.WriteValidationJSON(w, ok[0].Result, mode, opts.Pretty)
		}
		views := make([]any, 0, len(ok))
		for _, r := range ok {
			v, err := report.ValidationView(r.Result, mode)
			if err != nil {
				return err
			}
			views = append(views, v)
		}
		return report.WriteJSON(w, views, opts.Pretty)

	case ReportMarkdown:
		md := report.NewMarkdown(report.MarkdownOptionsFrom(e.cfg.Reporting))
		docs := make([]string, 0, len(ok))
		for _, r := range ok {
			docs = append(docs, md.Validation(r.Result))
		}
		_, err := io.WriteString(w, strings.Join(docs, "\n---\n\n"))
		return err

	case ReportXLSX:
		if len(ok) == 0 {
			return nil
		}
		return report.WriteWorkbook(w, ok[0].Result, nil)
	}

	if e.formatter.Format == "json" {
		summaries := make([]FileSummary, 0, len(results))
		for _, r := range results {
			summaries = append(summaries, fileSummary(r, runIDs[r.Path]))
		}
		return e.formatter.Success(summaries)
	}

	for i, r := range results {
		if i > 0 {
			fmt.Fprintln(w)
		}
		if r.Err != nil {
			fmt.Fprintf(w, "✗ %s: %v\n", r.Path, r.Err)
			continue
		}
		if err := report.WriteValidationSummary(w, r.Path, r.Result); err != nil {
			return err
		}
		if id := runIDs[r.Path]; id != "" {
			fmt.Fprintf(w, "Recorded as run %s\n", id)
		}
	}
	return nil
}

func okResults(results []pipeline.FileResult) []pipeline.FileResult {
	ok := make([]pipeline.FileResult, 0, len(results))
	for _, r := range results {
		if r.Err == nil {
			ok = append(ok, r)
		}
	}
	return ok
}

func fileSummary(r pipeline.FileResult, runID string) FileSummary {
	s := FileSummary{Path: r.Path, RunID: runID}
	if r.Err != nil {
		s.Error = &CLIError{Code: ErrCodeParse, Message: r.Err.Error()}
		if xc := x12.CodeOf(r.Err); xc != "" {
			s.Error.Details = map[string]string{"x12_code": string(xc)}
		}
		return s
	}
	s.Valid = r.Result.IsValid
	s.Status = r.Result.OverallStatus()
	s.Summary = r.Result.Summary()
	s.Errors = r.Result.TotalErrors()
	return s
}

// validationExit maps batch results to the command's exit status.
func validationExit(results []pipeline.FileResult) error {
	failed, invalid := 0, 0
	for _, r := range results {
		switch {
		case r.Err != nil:
			failed++
		case !r.Result.IsValid:
			invalid++
		}
	}
	if failed > 0 {
		return NewExitError(ExitCommandError, fmt.Sprintf("%d of %d file(s) could not be validated", failed, len(results)))
	}
	if invalid > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d of %d file(s) not valid", invalid, len(results)))
	}
	return nil
}
