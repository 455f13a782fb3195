package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/caseline/internal/dialog"
)

// NewDialogCommand creates the dialog command group.
func NewDialogCommand(rootOpts *RootOptions) *cobra.Command {
	var calendarPath, sessionForm string
	cmd := &cobra.Command{
		Use:   "dialog",
		Short: "Walk the client then goal selection flow",
		Long: `Run the two-step selection flow one step per invocation.

Example:
  caseline dialog begin --calendar ./calendar.yaml --appointment evt-1
  caseline dialog client <token> C001
  caseline dialog goal <token> "Sleep hygiene"`,
	}
	cmd.PersistentFlags().StringVar(&calendarPath, "calendar", "", "path to calendar YAML file")
	cmd.PersistentFlags().StringVar(&sessionForm, "form", dialog.DefaultSessionForm, "form whose link is returned at the end")

	run := func(cmd *cobra.Command, step func(*dialog.Service) (dialog.Flow, error)) error {
		e, err := openEnv(rootOpts, cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		svc := dialog.NewService(e.store, calendarSource(calendarPath), e.cfg,
			dialog.WithTokens(e.tokens()),
			dialog.WithSessionForm(sessionForm),
			dialog.WithLogger(e.logger),
		)
		flow, err := step(svc)
		if err != nil {
			return e.fail(err)
		}
		return e.out.Emit(flow, func(w io.Writer) error {
			return writeFlow(w, flow)
		})
	}

	var appointmentID string
	begin := &cobra.Command{
		Use:           "begin",
		Short:         "Start a flow",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(svc *dialog.Service) (dialog.Flow, error) {
				return svc.Begin(cmd.Context(), appointmentID)
			})
		},
	}
	begin.Flags().StringVar(&appointmentID, "appointment", "", "appointment to match and link")

	client := &cobra.Command{
		Use:           "client <token> <client-id>",
		Short:         "Choose the client",
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(svc *dialog.Service) (dialog.Flow, error) {
				return svc.ChooseClient(cmd.Context(), args[0], args[1])
			})
		},
	}

	goal := &cobra.Command{
		Use:           "goal <token> <goal>",
		Short:         "Choose the goal and finish the flow",
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(svc *dialog.Service) (dialog.Flow, error) {
				return svc.ChooseGoal(cmd.Context(), args[0], args[1])
			})
		},
	}

	show := &cobra.Command{
		Use:           "show <token>",
		Short:         "Show the state of a flow",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(svc *dialog.Service) (dialog.Flow, error) {
				return svc.Get(cmd.Context(), args[0])
			})
		},
	}

	cmd.AddCommand(begin, client, goal, show)
	return cmd
}

func writeFlow(w io.Writer, flow dialog.Flow) error {
	fmt.Fprintf(w, "Flow %s: step %s\n", flow.Token, flow.Step)
	if flow.AppointmentID != "" {
		fmt.Fprintf(w, "Appointment: %s\n", flow.AppointmentID)
	}
	switch flow.Step {
	case dialog.StepClient:
		if flow.Suggestion != nil {
			fmt.Fprintf(w, "Suggested: %s (%s), %s confidence\n", flow.Suggestion.Name, flow.Suggestion.ID, flow.Confidence)
		}
		for _, c := range flow.Candidates {
			fmt.Fprintf(w, "  %s  %s\n", c.ID, c.Name)
		}
	case dialog.StepGoal:
		fmt.Fprintf(w, "Client: %s\n", flow.ClientID)
		if len(flow.Goals) == 0 {
			fmt.Fprintln(w, "  (no goals)")
		}
		for i, g := range flow.Goals {
			fmt.Fprintf(w, "  %d. %s\n", i+1, g)
		}
	case dialog.StepDone:
		fmt.Fprintf(w, "Client: %s\nGoal: %s\n", flow.ClientID, flow.Goal)
		if flow.FormURL != "" {
			fmt.Fprintf(w, "Form: %s\n", flow.FormURL)
		}
	}
	return nil
}
