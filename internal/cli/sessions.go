package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/caseline/internal/sessions"
	"github.com/roach88/caseline/internal/store"
)

// NewSessionsCommand creates the sessions command group.
func NewSessionsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Track which sessions are linked and documented",
	}
	cmd.AddCommand(newSessionsSyncCommand(rootOpts))
	cmd.AddCommand(newSessionsListCommand(rootOpts))
	cmd.AddCommand(newSessionsLinkCommand(rootOpts))
	cmd.AddCommand(newSessionsDocumentCommand(rootOpts))
	cmd.AddCommand(newSessionsSummaryCommand(rootOpts))
	return cmd
}

func newSessionsSyncCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &MatchOptions{RootOptions: rootOpts}
	cmd := &cobra.Command{
		Use:   "sync --calendar <file>",
		Short: "Match appointments and record session rows",
		Long: `Match every appointment in the window and upsert its session row.

Manual links, documentation status and recorded goals survive re-syncs.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(rootOpts, cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			start, end, err := e.parseWindow(opts.From, opts.To)
			if err != nil {
				return err
			}
			tr := sessions.NewTracker(e.store, calendarSource(opts.Calendar), e.logger)
			synced, err := tr.Sync(cmd.Context(), start, end)
			if err != nil {
				return e.fail(err)
			}
			return e.out.Emit(synced, func(w io.Writer) error {
				return writeSessions(w, synced)
			})
		},
	}
	cmd.Flags().StringVar(&opts.Calendar, "calendar", "", "path to calendar YAML file (required)")
	cmd.Flags().StringVar(&opts.From, "from", "", "window start (YYYY-MM-DD or RFC 3339)")
	cmd.Flags().StringVar(&opts.To, "to", "", "window end, exclusive (YYYY-MM-DD or RFC 3339)")
	_ = cmd.MarkFlagRequired("calendar")
	return cmd
}

func newSessionsListCommand(rootOpts *RootOptions) *cobra.Command {
	var status, client, from, to string
	cmd := &cobra.Command{
		Use:           "list",
		Short:         "List tracked sessions",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(rootOpts, cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			if status != "" && !store.ValidStatus(status) {
				return e.failWith(ErrCodeInvalidArg, ExitCommandError,
					fmt.Sprintf("--status: must be %q or %q", store.StatusPending, store.StatusDocumented))
			}
			start, end, err := e.parseWindow(from, to)
			if err != nil {
				return err
			}
			tr := sessions.NewTracker(e.store, calendarSource(""), e.logger)
			list, err := tr.List(cmd.Context(), store.SessionFilter{Status: status, ClientID: client, From: start, To: end})
			if err != nil {
				return e.fail(err)
			}
			return e.out.Emit(list, func(w io.Writer) error {
				return writeSessions(w, list)
			})
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "only sessions with this status (pending|documented)")
	cmd.Flags().StringVar(&client, "client", "", "only sessions linked to this client")
	cmd.Flags().StringVar(&from, "from", "", "window start (YYYY-MM-DD or RFC 3339)")
	cmd.Flags().StringVar(&to, "to", "", "window end, exclusive (YYYY-MM-DD or RFC 3339)")
	return cmd
}

func newSessionsLinkCommand(rootOpts *RootOptions) *cobra.Command {
	var calendarPath string
	cmd := &cobra.Command{
		Use:   "link <appointment-id> <client-id>",
		Short: "Link an appointment to a client by hand",
		Long: `Link an appointment to a client with high confidence. Manual links are
kept by later syncs. --calendar is needed only for appointments that were
never synced.`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(rootOpts, cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			tr := sessions.NewTracker(e.store, calendarSource(calendarPath), e.logger)
			sess, err := tr.Link(cmd.Context(), args[0], args[1])
			if err != nil {
				return e.fail(err)
			}
			return e.out.Emit(sess, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "Linked %s to %s\n", sess.AppointmentID, sess.ClientID)
				return err
			})
		},
	}
	cmd.Flags().StringVar(&calendarPath, "calendar", "", "path to calendar YAML file")
	return cmd
}

func newSessionsDocumentCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "document <appointment-id>",
		Short:         "Mark a session documented",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(rootOpts, cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			tr := sessions.NewTracker(e.store, calendarSource(""), e.logger)
			if err := tr.MarkDocumented(cmd.Context(), args[0]); err != nil {
				return e.fail(err)
			}
			sess, err := e.store.GetSession(cmd.Context(), args[0])
			if err != nil {
				return e.fail(err)
			}
			return e.out.Emit(sess, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "Documented %s\n", sess.AppointmentID)
				return err
			})
		},
	}
}

func newSessionsSummaryCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "summary",
		Short:         "Count sessions by state",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(rootOpts, cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			tr := sessions.NewTracker(e.store, calendarSource(""), e.logger)
			sum, err := tr.Summary(cmd.Context())
			if err != nil {
				return e.fail(err)
			}
			return e.out.Emit(sum, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "Total: %d\nPending: %d\nDocumented: %d\nUnmatched: %d\nNeeds review: %d\n",
					sum.Total, sum.Pending, sum.Documented, sum.Unmatched, sum.NeedsReview)
				return err
			})
		},
	}
}

func writeSessions(w io.Writer, list []store.Session) error {
	if len(list) == 0 {
		_, err := fmt.Fprintln(w, "No sessions")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	fmt.Fprintln(tw, "APPOINTMENT\tSTART\tCLIENT\tCONFIDENCE\tLINK\tSTATUS\tGOAL")
	for _, s := range list {
		client, goal := s.ClientID, s.Goal
		if client == "" {
			client = "-"
		}
		if goal == "" {
			goal = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			s.AppointmentID, s.Start.UTC().Format("2006-01-02 15:04"), client, s.Confidence, s.LinkSource, s.Status, goal)
	}
	return tw.Flush()
}
