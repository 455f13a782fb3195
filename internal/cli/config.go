package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/caseline/internal/config"
)

// NewConfigCommand creates the config command group.
func NewConfigCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect configuration",
	}

	cmd.AddCommand(&cobra.Command{
		Use:           "show",
		Short:         "Print the effective configuration",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openOutput(rootOpts, cmd)
			if err != nil {
				return err
			}
			return e.out.Emit(e.cfg, func(w io.Writer) error {
				return writeConfig(w, e.cfg)
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate <file.cue>",
		Short: "Check a config file against the schema",
		Long: `Check a CUE config file against the embedded schema without touching
the database.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := newFormatter(rootOpts, cmd)
			if _, err := config.Load(args[0]); err != nil {
				code, exit := classify(err)
				_ = out.Error(code, err.Error(), nil)
				return NewExitError(exit, fmt.Sprintf("%s: %s", code, err.Error()))
			}
			return out.Emit(map[string]bool{"valid": true}, func(w io.Writer) error {
				_, err := fmt.Fprintln(w, "✓ Config valid")
				return err
			})
		},
	})

	return cmd
}

func writeConfig(w io.Writer, cfg *config.Config) error {
	c := cfg.Columns
	fmt.Fprintf(w, "Columns: id=%s name=%s goals=%s history=%s\n", c.ID, c.Name, c.Goals, c.History)
	for _, name := range cfg.FormNames() {
		f := cfg.Forms[name]
		fmt.Fprintf(w, "Form %s: %s (%d field(s), prefill %v)\n", name, f.BaseURL, len(f.Fields), f.Prefill)
	}
	for _, col := range []string{c.Goals, c.History} {
		fmt.Fprintf(w, "Policy %s: %s\n", col, cfg.PolicyFor(col))
	}
	return nil
}
