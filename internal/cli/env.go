package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/caseline/internal/calendar"
	"github.com/roach88/caseline/internal/config"
	"github.com/roach88/caseline/internal/dialog"
	"github.com/roach88/caseline/internal/goals"
	"github.com/roach88/caseline/internal/intake"
	"github.com/roach88/caseline/internal/store"
)

// Error code constants - unified across all CLI commands. Config errors use
// the config package codes (C001-C004) and dialog errors their own codes.
const (
	ErrCodeGeneric      = "E001" // Generic/unknown error
	ErrCodeInput        = "E002" // Input file missing or malformed
	ErrCodeDatabase     = "E003" // Database could not be opened
	ErrCodeNotFound     = "E005" // Client, appointment or session not found
	ErrCodeInvalidArg   = "E006" // Argument rejected (bad date, bad status, etc.)
	ErrCodeRejected     = "E007" // Request refused by the domain (duplicate goal, etc.)
	ErrCodeInvalidField = "E101" // Pipe list failed validation
)

// env is the per-command runtime: output, logging, config and store.
type env struct {
	opts   *RootOptions
	out    *OutputFormatter
	logger *slog.Logger
	cfg    *config.Config
	store  *store.Store
}

func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}
}

// newLogger configures logging based on the verbose flag.
func newLogger(opts *RootOptions, w io.Writer) *slog.Logger {
	logLevel := slog.LevelInfo
	if opts.Verbose {
		logLevel = slog.LevelDebug
	}
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: logLevel,
	})
	return slog.New(handler)
}

// openEnv loads the config and opens the database. The caller must Close
// the returned env.
func openEnv(opts *RootOptions, cmd *cobra.Command) (*env, error) {
	e := &env{
		opts:   opts,
		out:    newFormatter(opts, cmd),
		logger: newLogger(opts, cmd.ErrOrStderr()),
	}

	cfg, err := loadConfig(opts.Config)
	if err != nil {
		return nil, e.fail(err)
	}
	e.cfg = cfg

	path := opts.Database
	if path == "" {
		path = DefaultDatabase
	}
	e.logger.Debug("opening database", "path", path)
	st, err := store.Open(path, store.WithNameColumn(cfg.Columns.Name), store.WithClock(e.now))
	if err != nil {
		return nil, e.failWith(ErrCodeDatabase, ExitCommandError, err.Error())
	}
	e.store = st
	return e, nil
}

// openOutput is openEnv for commands that only need output and config.
func openOutput(opts *RootOptions, cmd *cobra.Command) (*env, error) {
	e := &env{
		opts:   opts,
		out:    newFormatter(opts, cmd),
		logger: newLogger(opts, cmd.ErrOrStderr()),
	}
	cfg, err := loadConfig(opts.Config)
	if err != nil {
		return nil, e.fail(err)
	}
	e.cfg = cfg
	return e, nil
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

// Close closes the database, if one was opened.
func (e *env) Close() {
	if e == nil || e.store == nil {
		return
	}
	if err := e.store.Close(); err != nil {
		e.logger.Error("error closing database", "error", err)
	}
}

func (e *env) now() time.Time {
	if e.opts.Now != nil {
		return e.opts.Now()
	}
	return time.Now()
}

func (e *env) tokens() dialog.TokenGenerator {
	if e.opts.FlowGenerator != nil {
		return e.opts.FlowGenerator
	}
	return dialog.UUIDv7Generator{}
}

// calendarSource returns a file source for path, or an empty source when
// path is empty.
func calendarSource(path string) calendar.Source {
	if path == "" {
		return calendar.StaticSource{}
	}
	return calendar.NewFileSource(path)
}

// fail reports err in the configured format and returns the matching
// ExitError.
func (e *env) fail(err error) error {
	code, exit := classify(err)
	return e.failWith(code, exit, err.Error())
}

func (e *env) failWith(code string, exit int, message string) error {
	_ = e.out.Error(code, message, nil)
	return NewExitError(exit, fmt.Sprintf("%s: %s", code, message))
}

// classify maps an error to its error code and exit code.
func classify(err error) (string, int) {
	var cfgErr *config.Error
	if errors.As(err, &cfgErr) {
		return cfgErr.Code, ExitCommandError
	}
	var dlgErr *dialog.Error
	if errors.As(err, &dlgErr) {
		return string(dlgErr.Code), ExitFailure
	}
	switch {
	case errors.Is(err, store.ErrNotFound), errors.Is(err, calendar.ErrNotFound):
		return ErrCodeNotFound, ExitFailure
	case errors.Is(err, goals.ErrDuplicateGoal), errors.Is(err, goals.ErrUnknownGoal),
		errors.Is(err, goals.ErrEmptyGoal):
		return ErrCodeRejected, ExitFailure
	case errors.Is(err, intake.ErrUnknownForm), errors.Is(err, intake.ErrNoClient):
		return ErrCodeInvalidArg, ExitFailure
	case errors.Is(err, os.ErrNotExist):
		return ErrCodeInput, ExitCommandError
	default:
		return ErrCodeGeneric, ExitFailure
	}
}

// parseTime accepts a date (2006-01-02, UTC midnight) or an RFC 3339
// timestamp. Empty input is the zero time.
func parseTime(flag, v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse("2006-01-02", v); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("--%s: expected YYYY-MM-DD or RFC 3339, got %q", flag, v)
	}
	return t, nil
}

// parseWindow parses the --from/--to pair.
func (e *env) parseWindow(from, to string) (time.Time, time.Time, error) {
	start, err := parseTime("from", from)
	if err != nil {
		return start, start, e.failWith(ErrCodeInvalidArg, ExitCommandError, err.Error())
	}
	end, err := parseTime("to", to)
	if err != nil {
		return start, end, e.failWith(ErrCodeInvalidArg, ExitCommandError, err.Error())
	}
	if !start.IsZero() && !end.IsZero() && !end.After(start) {
		return start, end, e.failWith(ErrCodeInvalidArg, ExitCommandError, "--to must be after --from")
	}
	return start, end, nil
}
