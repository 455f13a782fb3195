package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/caseline/internal/match"
)

// MatchOptions holds flags for the match command.
type MatchOptions struct {
	*RootOptions
	Calendar string
	From     string
	To       string
}

// MatchRow is one appointment in the match report.
type MatchRow struct {
	AppointmentID string           `json:"appointment_id"`
	Title         string           `json:"title"`
	Start         string           `json:"start"`
	ClientID      string           `json:"client_id,omitempty"`
	ClientName    string           `json:"client_name,omitempty"`
	Confidence    match.Confidence `json:"confidence"`
	Strategy      string           `json:"strategy,omitempty"`
}

// MatchReport is the payload of the match command.
type MatchReport struct {
	Rows        []MatchRow `json:"rows"`
	Matched     int        `json:"matched"`
	NeedsReview int        `json:"needs_review"`
}

// NewMatchCommand creates the match command.
func NewMatchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &MatchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "match --calendar <file>",
		Short: "Match calendar appointments to clients",
		Long: `Match every appointment in the calendar window to at most one client.

Strategies run in order and the first hit wins: client id in the title,
exact name, then partial name. Nothing is written; use "sessions sync" to
record the links.

Example:
  caseline match --calendar ./calendar.yaml --from 2026-04-01 --to 2026-04-08`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMatch(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Calendar, "calendar", "", "path to calendar YAML file (required)")
	cmd.Flags().StringVar(&opts.From, "from", "", "window start (YYYY-MM-DD or RFC 3339)")
	cmd.Flags().StringVar(&opts.To, "to", "", "window end, exclusive (YYYY-MM-DD or RFC 3339)")
	_ = cmd.MarkFlagRequired("calendar")

	return cmd
}

func runMatch(opts *MatchOptions, cmd *cobra.Command) error {
	e, err := openEnv(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	start, end, err := e.parseWindow(opts.From, opts.To)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	appts, err := calendarSource(opts.Calendar).List(ctx, start, end)
	if err != nil {
		return e.fail(err)
	}
	clients, err := e.store.ListClients(ctx)
	if err != nil {
		return e.fail(err)
	}
	e.out.VerboseLog("Matching %d appointment(s) against %d client(s)", len(appts), len(clients))

	report := buildMatchReport(appts, clients)
	return e.out.Emit(report, func(w io.Writer) error {
		return writeMatchReport(w, report)
	})
}

func buildMatchReport(appts []match.Appointment, clients []match.Client) MatchReport {
	report := MatchReport{Rows: make([]MatchRow, 0, len(appts))}
	for _, appt := range appts {
		r := match.Match(appt, clients)
		row := MatchRow{
			AppointmentID: appt.ID,
			Title:         appt.Title,
			Start:         appt.Start.UTC().Format("2006-01-02 15:04"),
			Confidence:    r.Confidence,
			Strategy:      r.Strategy,
		}
		if r.Matched() {
			row.ClientID = r.Client.ID
			row.ClientName = r.Client.Name
			report.Matched++
		}
		if r.Confidence == match.ConfidenceMedium || r.Confidence == match.ConfidenceLow {
			report.NeedsReview++
		}
		report.Rows = append(report.Rows, row)
	}
	return report
}

func writeMatchReport(w io.Writer, report MatchReport) error {
	if len(report.Rows) == 0 {
		_, err := fmt.Fprintln(w, "No appointments in window")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	fmt.Fprintln(tw, "APPOINTMENT\tSTART\tCLIENT\tCONFIDENCE\tSTRATEGY\tTITLE")
	for _, row := range report.Rows {
		client := "-"
		if row.ClientID != "" {
			client = fmt.Sprintf("%s (%s)", row.ClientName, row.ClientID)
		}
		strategy := row.Strategy
		if strategy == "" {
			strategy = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			row.AppointmentID, row.Start, client, row.Confidence, strategy, row.Title)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "\n%d of %d matched, %d need review\n", report.Matched, len(report.Rows), report.NeedsReview)
	return err
}
