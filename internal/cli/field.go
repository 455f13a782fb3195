package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/caseline/internal/pipelist"
)

// FieldResult is the payload of the field subcommands that rewrite a value.
type FieldResult struct {
	Value string   `json:"value"`
	Items []string `json:"items"`
}

// NewFieldCommand creates the field command group. Every subcommand works on
// literal pipe-list values and touches no database.
func NewFieldCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "field",
		Short: "Edit pipe-separated list values",
		Long: `Operate on "|"-separated list values such as a goals cell.

Example:
  caseline field add "Sleep|Work" "Exercise"
  caseline field clean " A |A||B"`,
	}

	cmd.AddCommand(newFieldValidateCommand(rootOpts))
	cmd.AddCommand(newFieldCleanCommand(rootOpts))
	cmd.AddCommand(newFieldMergeCommand(rootOpts))
	cmd.AddCommand(newFieldAddCommand(rootOpts))
	cmd.AddCommand(newFieldRewriteCommand(rootOpts, "remove <value> <item>", "Remove every occurrence of an item", 2,
		func(args []string) string { return pipelist.Remove(args[0], args[1]) }))
	cmd.AddCommand(newFieldRewriteCommand(rootOpts, "update <value> <old> <new>", "Replace every occurrence of an item", 3,
		func(args []string) string { return pipelist.Update(args[0], args[1], args[2]) }))
	cmd.AddCommand(newFieldReorderCommand(rootOpts))
	cmd.AddCommand(newFieldContainsCommand(rootOpts))
	return cmd
}

func emitField(rootOpts *RootOptions, cmd *cobra.Command, value string) error {
	out := newFormatter(rootOpts, cmd)
	res := FieldResult{Value: value, Items: pipelist.Parse(value)}
	return out.Emit(res, func(w io.Writer) error {
		_, err := fmt.Fprintln(w, res.Value)
		return err
	})
}

func newFieldRewriteCommand(rootOpts *RootOptions, use, short string, nargs int, fn func([]string) string) *cobra.Command {
	return &cobra.Command{
		Use:           use,
		Short:         short,
		Args:          cobra.ExactArgs(nargs),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return emitField(rootOpts, cmd, fn(args))
		},
	}
}

func newFieldAddCommand(rootOpts *RootOptions) *cobra.Command {
	var allowDuplicates bool
	cmd := &cobra.Command{
		Use:           "add <value> <item>",
		Short:         "Append an item",
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return emitField(rootOpts, cmd, pipelist.Add(args[0], args[1], allowDuplicates))
		},
	}
	cmd.Flags().BoolVar(&allowDuplicates, "allow-duplicates", false, "append even if the item is present")
	return cmd
}

func newFieldMergeCommand(rootOpts *RootOptions) *cobra.Command {
	var keepDuplicates bool
	cmd := &cobra.Command{
		Use:           "merge <value>...",
		Short:         "Concatenate lists",
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return emitField(rootOpts, cmd, pipelist.Merge(args, !keepDuplicates))
		},
	}
	cmd.Flags().BoolVar(&keepDuplicates, "keep-duplicates", false, "keep repeated items")
	return cmd
}

func newFieldReorderCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "reorder <value> <item>...",
		Short:         "Move the named items to the front in the given order",
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return emitField(rootOpts, cmd, pipelist.Reorder(args[0], args[1:]))
		},
	}
}

func newFieldCleanCommand(rootOpts *RootOptions) *cobra.Command {
	opts := pipelist.DefaultCleanOptions()
	var keepDuplicates, keepEmpty, noTrim, keepLineBreaks bool
	cmd := &cobra.Command{
		Use:           "clean <value>",
		Short:         "Fix empty items, duplicates, padding and line breaks",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.RemoveDuplicates = !keepDuplicates
			opts.RemoveEmpty = !keepEmpty
			opts.TrimItems = !noTrim
			opts.RemoveLineBreaks = !keepLineBreaks
			return emitField(rootOpts, cmd, pipelist.Clean(args[0], opts))
		},
	}
	cmd.Flags().BoolVar(&keepDuplicates, "keep-duplicates", false, "keep repeated items")
	cmd.Flags().BoolVar(&keepEmpty, "keep-empty", false, "keep empty items")
	cmd.Flags().BoolVar(&noTrim, "no-trim", false, "keep surrounding whitespace")
	cmd.Flags().BoolVar(&keepLineBreaks, "keep-linebreaks", false, "keep line breaks and tabs")
	return cmd
}

func newFieldValidateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "validate <value>",
		Short:         "Report problems in a list value",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := newFormatter(rootOpts, cmd)
			report := pipelist.Validate(args[0])
			if err := out.Emit(report, func(w io.Writer) error {
				return writeFieldReport(w, report)
			}); err != nil {
				return err
			}
			if !report.Valid {
				return NewExitError(ExitFailure, fmt.Sprintf("%s: list has %d issue(s)", ErrCodeInvalidField, len(report.Issues)))
			}
			return nil
		},
	}
}

func writeFieldReport(w io.Writer, report pipelist.Report) error {
	if report.Valid {
		_, err := fmt.Fprintf(w, "✓ Valid (%d item(s))\n", report.ItemCount)
		return err
	}
	fmt.Fprintf(w, "✗ %d issue(s) in %d item(s), %d unique\n", len(report.Issues), report.ItemCount, report.UniqueItemCount)
	for _, is := range report.Issues {
		if is.Item != "" {
			fmt.Fprintf(w, "  %s: %s: %q\n", is.Code, is.Message, is.Item)
			continue
		}
		fmt.Fprintf(w, "  %s: %s\n", is.Code, is.Message)
	}
	return nil
}

// ContainsResult is the payload of field contains.
type ContainsResult struct {
	Contains bool `json:"contains"`
}

func newFieldContainsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "contains <value> <item>",
		Short:         "Report whether an item is present",
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := newFormatter(rootOpts, cmd)
			res := ContainsResult{Contains: pipelist.Contains(args[0], args[1])}
			return out.Emit(res, func(w io.Writer) error {
				_, err := fmt.Fprintln(w, res.Contains)
				return err
			})
		},
	}
}
