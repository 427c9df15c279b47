package cli

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/edi997/internal/reconcile"
	"github.com/roach88/edi997/internal/store"
)

// OutboundOptions holds flags shared by the outbound subcommands.
type OutboundOptions struct {
	*RootOptions
	Database string
}

// NewOutboundCommand creates the outbound command group.
func NewOutboundCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &OutboundOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "outbound",
		Short: "Manage the outbound group registry",
		Long: `Register the functional groups that were sent so that "edi997 reconcile"
can look them up by group control number instead of reading a JSON file.`,
	}

	cmd.PersistentFlags().StringVar(&opts.Database, "db", "", "path to SQLite database (default store.path)")

	cmd.AddCommand(&cobra.Command{
		Use:           "import <outbound.json>",
		Short:         "Register an outbound functional group",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOutboundImport(opts, args[0], cmd)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:           "show <group-control-number>",
		Short:         "Show a registered outbound functional group",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOutboundShow(opts, args[0], cmd)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:           "list",
		Short:         "List registered group control numbers",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOutboundList(opts, cmd)
		},
	})

	return cmd
}

func runOutboundImport(opts *OutboundOptions, path string, cmd *cobra.Command) error {
	e, err := setup(opts.RootOptions, cmd)
	if err != nil {
		return err
	}

	g, err := reconcile.LoadOutboundFile(path)
	if err != nil {
		return e.formatter.Fail(ExitCommandError, ErrCodeOutbound, "failed to load outbound group", err)
	}

	st, err := e.requireStore(opts.Database)
	if err != nil {
		return err
	}
	defer e.closeStore(st)

	if err := st.ImportOutbound(cmd.Context(), g); err != nil {
		return e.formatter.Fail(ExitCommandError, ErrCodeStore, "failed to import outbound group", err)
	}

	if e.formatter.Format == "json" {
		return e.formatter.Success(map[string]interface{}{
			"group_control_number": g.GroupControlNumber,
			"transactions":         g.TransactionCount(),
		})
	}
	return e.formatter.Success(fmt.Sprintf("✓ Imported outbound group %s (%d transactions)",
		g.GroupControlNumber, g.TransactionCount()))
}

func runOutboundShow(opts *OutboundOptions, gcn string, cmd *cobra.Command) error {
	e, err := setup(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	st, err := e.requireStore(opts.Database)
	if err != nil {
		return err
	}
	defer e.closeStore(st)

	g, err := st.GetOutbound(cmd.Context(), gcn)
	if errors.Is(err, store.ErrNotFound) {
		return e.formatter.Fail(ExitCommandError, ErrCodeNotFound, "outbound group not registered", err)
	}
	if err != nil {
		return e.formatter.Fail(ExitCommandError, ErrCodeStore, "failed to read outbound group", err)
	}

	if e.formatter.Format == "json" {
		return e.formatter.Success(g)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Group %s (%s), %d transactions\n\n", g.GroupControlNumber, g.FunctionalIDCode, g.TransactionCount())
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CONTROL NUMBER\tSET ID\tFUNCTIONAL ID")
	for _, t := range g.Transactions {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", t.ControlNumber, t.TransactionSetID, t.FunctionalIDCode)
	}
	return tw.Flush()
}

func runOutboundList(opts *OutboundOptions, cmd *cobra.Command) error {
	e, err := setup(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	st, err := e.requireStore(opts.Database)
	if err != nil {
		return err
	}
	defer e.closeStore(st)

	groups, err := st.ListOutboundGroups(cmd.Context())
	if err != nil {
		return e.formatter.Fail(ExitCommandError, ErrCodeStore, "failed to list outbound groups", err)
	}

	if e.formatter.Format == "json" {
		return e.formatter.Success(groups)
	}
	if len(groups) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No outbound groups registered")
		return nil
	}
	for _, gcn := range groups {
		fmt.Fprintln(cmd.OutOrStdout(), gcn)
	}
	return nil
}
