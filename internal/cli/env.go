package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/roach88/edi997/internal/config"
	"github.com/roach88/edi997/internal/logging"
	"github.com/roach88/edi997/internal/pipeline"
	"github.com/roach88/edi997/internal/store"
)

// env is the per-invocation state shared by every command: merged config, the
// stderr logger and the output formatter.
type env struct {
	cfg       config.Config
	logger    *logrus.Logger
	formatter *OutputFormatter
}

// newFormatter builds the formatter before config is loaded, so config errors can
// be reported in the requested format.
func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}
}

// setup loads configuration and builds the logger. Errors are already reported
// and carry ExitCommandError.
func setup(opts *RootOptions, cmd *cobra.Command) (*env, error) {
	formatter := newFormatter(opts, cmd)

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, formatter.Fail(ExitCommandError, ErrCodeConfig, "failed to load config", err)
	}

	level := cfg.Logging.Level
	if opts.LogLevel != "" {
		level = opts.LogLevel
	}
	if opts.Verbose {
		level = "debug"
	}
	logger, err := logging.New(cmd.ErrOrStderr(), level, cfg.Logging.Format)
	if err != nil {
		return nil, formatter.Fail(ExitCommandError, ErrCodeFlags, "failed to configure logging", err)
	}

	return &env{cfg: cfg, logger: logger, formatter: formatter}, nil
}

// pipeline builds the processing pipeline from the merged config.
func (e *env) pipeline() (*pipeline.Pipeline, error) {
	p, err := pipeline.New(e.cfg, pipeline.WithLogger(e.logger))
	if err != nil {
		return nil, e.formatter.Fail(ExitCommandError, ErrCodeConfig, "failed to build pipeline", err)
	}
	return p, nil
}

// openStore opens the history database at path, or at store.path when path is
// empty. It returns nil without error when neither is set.
func (e *env) openStore(path string) (*store.Store, error) {
	if path == "" {
		path = e.cfg.Store.Path
	}
	if path == "" {
		return nil, nil
	}
	st, err := store.Open(path)
	if err != nil {
		return nil, e.formatter.Fail(ExitCommandError, ErrCodeStore, "failed to open database", err)
	}
	e.logger.WithField("path", path).Debug("database_opened")
	return st, nil
}

// requireStore is openStore for commands that cannot run without a database.
func (e *env) requireStore(path string) (*store.Store, error) {
	st, err := e.openStore(path)
	if err != nil {
		return nil, err
	}
	if st == nil {
		return nil, e.formatter.Fail(ExitCommandError, ErrCodeFlags,
			"no database configured: pass --db or set store.path", nil)
	}
	return st, nil
}

func (e *env) closeStore(st *store.Store) {
	if st == nil {
		return
	}
	if err := st.Close(); err != nil {
		e.logger.WithError(err).Error("database_close_failed")
	}
}

// openOutput returns the destination for reports: the file at path, or stdout.
func openOutput(cmd *cobra.Command, path string) (io.Writer, func() error, error) {
	if path == "" || path == "-" {
		return cmd.OutOrStdout(), func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("create %s: %w", path, err)
	}
	return f, f.Close, nil
}
