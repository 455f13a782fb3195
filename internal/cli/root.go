package cli

import (
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/caseline/internal/dialog"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose  bool
	Format   string // FormatText or FormatJSON
	Database string
	Config   string

	// FlowGenerator overrides the dialog token generator (for testing).
	// If nil, defaults to dialog.UUIDv7Generator.
	FlowGenerator dialog.TokenGenerator

	// Now overrides the wall clock (for testing). If nil, uses time.Now.
	Now func() time.Time
}

// ValidFormats lists the values accepted by --format.
var ValidFormats = []string{FormatText, FormatJSON}

// DefaultDatabase is the --db default.
const DefaultDatabase = "caseline.db"

// NewRootCommand creates the root command for the caseline CLI.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{})
}

// newRootCommand builds the command tree around opts. Flag parsing fills the
// flag-backed fields; FlowGenerator and Now are left as given.
func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "caseline",
		Short: "caseline - calendar to client record glue",
		Long: `Link calendar appointments to client records, pick the session goal,
pre-fill intake and session forms, ingest submissions, and track which
sessions still need documentation.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			slog.SetDefault(newLogger(opts, cmd.ErrOrStderr()))
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "debug logging and diagnostics on stderr")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", FormatText, "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.Database, "db", DefaultDatabase, "path to SQLite database")
	cmd.PersistentFlags().StringVar(&opts.Config, "config", "", "path to CUE config file (defaults apply when empty)")

	cmd.AddCommand(NewClientsCommand(opts))
	cmd.AddCommand(NewMatchCommand(opts))
	cmd.AddCommand(NewFieldCommand(opts))
	cmd.AddCommand(NewGoalsCommand(opts))
	cmd.AddCommand(NewFormCommand(opts))
	cmd.AddCommand(NewSessionsCommand(opts))
	cmd.AddCommand(NewDialogCommand(opts))
	cmd.AddCommand(NewConfigCommand(opts))

	return cmd
}

func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}
