package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/caseline/internal/goals"
)

// GoalsResult is the payload of the goals subcommands.
type GoalsResult struct {
	ClientID string   `json:"client_id"`
	Goals    []string `json:"goals"`
}

// NewGoalsCommand creates the goals command group.
func NewGoalsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "goals",
		Short: "Manage a client's treatment goals",
	}

	type goalsOp func(ctx context.Context, svc *goals.Service, args []string) ([]string, error)
	add := func(use, short string, args cobra.PositionalArgs, op goalsOp) {
		cmd.AddCommand(&cobra.Command{
			Use:           use,
			Short:         short,
			Args:          args,
			SilenceUsage:  true,
			SilenceErrors: true,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runGoals(rootOpts, cmd, args, op)
			},
		})
	}

	add("list <client-id>", "List goals", cobra.ExactArgs(1),
		func(ctx context.Context, svc *goals.Service, args []string) ([]string, error) {
			return svc.List(ctx, args[0])
		})
	add("add <client-id> <goal>", "Add a goal", cobra.ExactArgs(2),
		func(ctx context.Context, svc *goals.Service, args []string) ([]string, error) {
			return svc.Add(ctx, args[0], args[1])
		})
	add("remove <client-id> <goal>", "Remove a goal", cobra.ExactArgs(2),
		func(ctx context.Context, svc *goals.Service, args []string) ([]string, error) {
			return svc.Remove(ctx, args[0], args[1])
		})
	add("rename <client-id> <old> <new>", "Rename a goal in place", cobra.ExactArgs(3),
		func(ctx context.Context, svc *goals.Service, args []string) ([]string, error) {
			return svc.Rename(ctx, args[0], args[1], args[2])
		})
	add("reorder <client-id> <goal>...", "Move goals to the front in the given order", cobra.MinimumNArgs(2),
		func(ctx context.Context, svc *goals.Service, args []string) ([]string, error) {
			return svc.Reorder(ctx, args[0], args[1:])
		})
	add("clean <client-id>", "Normalize the stored goals list", cobra.ExactArgs(1),
		func(ctx context.Context, svc *goals.Service, args []string) ([]string, error) {
			return svc.Clean(ctx, args[0])
		})

	return cmd
}

func runGoals(rootOpts *RootOptions, cmd *cobra.Command, args []string,
	op func(context.Context, *goals.Service, []string) ([]string, error)) error {
	e, err := openEnv(rootOpts, cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	svc := goals.NewService(e.store, e.cfg.Columns.Goals, e.logger)
	list, err := op(cmd.Context(), svc, args)
	if err != nil {
		return e.fail(err)
	}

	res := GoalsResult{ClientID: args[0], Goals: list}
	return e.out.Emit(res, func(w io.Writer) error {
		if len(res.Goals) == 0 {
			_, err := fmt.Fprintf(w, "%s has no goals\n", res.ClientID)
			return err
		}
		for i, g := range res.Goals {
			fmt.Fprintf(w, "%d. %s\n", i+1, g)
		}
		return nil
	})
}
