package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/caseline/internal/intake"
)

// PrefillResult is the payload of form prefill.
type PrefillResult struct {
	Form     string `json:"form"`
	ClientID string `json:"client_id"`
	URL      string `json:"url"`
}

// IngestResult is the payload of form ingest.
type IngestResult struct {
	Outcomes   []intake.Outcome `json:"outcomes"`
	Applied    int              `json:"applied"`
	Duplicates int              `json:"duplicates"`
}

// NewFormCommand creates the form command group.
func NewFormCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "form",
		Short: "Pre-fill forms and ingest submissions",
	}
	cmd.AddCommand(newFormPrefillCommand(rootOpts))
	cmd.AddCommand(newFormIngestCommand(rootOpts))
	return cmd
}

func newFormPrefillCommand(rootOpts *RootOptions) *cobra.Command {
	var set []string
	cmd := &cobra.Command{
		Use:   "prefill <form> <client-id>",
		Short: "Print a pre-filled form link for a client",
		Long: `Print the form link with the form's prefill fields filled from the
client record. --set supplies values that are not client columns.

Example:
  caseline form prefill session C001 --set appointment_id=evt-1 --set goal="Sleep hygiene"`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(rootOpts, cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			extra, err := parseAssignments(set)
			if err != nil {
				return e.failWith(ErrCodeInvalidArg, ExitCommandError, err.Error())
			}
			form, ok := e.cfg.Form(args[0])
			if !ok {
				return e.fail(fmt.Errorf("%w: %q", intake.ErrUnknownForm, args[0]))
			}
			client, err := e.store.GetClient(cmd.Context(), args[1])
			if err != nil {
				return e.fail(err)
			}
			link, err := intake.Prefill(form, e.cfg.Columns, client, extra)
			if err != nil {
				return e.fail(err)
			}

			res := PrefillResult{Form: form.Name, ClientID: client.ID, URL: link}
			return e.out.Emit(res, func(w io.Writer) error {
				_, err := fmt.Fprintln(w, res.URL)
				return err
			})
		},
	}
	cmd.Flags().StringArrayVar(&set, "set", nil, "extra field value as key=value (repeatable)")
	return cmd
}

func parseAssignments(pairs []string) (map[string]string, error) {
	out := make(map[string]string, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, fmt.Errorf("--set: expected key=value, got %q", p)
		}
		out[k] = v
	}
	return out, nil
}

func newFormIngestCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "ingest <file|->",
		Short: "Apply form submissions to client records",
		Long: `Apply submissions from a YAML or JSON file ("-" reads stdin).

Each submission is applied at most once; re-ingesting the same file only
reports duplicates. Stops at the first failing submission.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(rootOpts, cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			var r io.Reader = cmd.InOrStdin()
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return e.failWith(ErrCodeInput, ExitCommandError, err.Error())
				}
				defer f.Close()
				r = f
			}
			subs, err := intake.DecodeSubmissions(r)
			if err != nil {
				return e.failWith(ErrCodeInput, ExitCommandError, err.Error())
			}

			in := intake.NewIngester(e.store, e.cfg, intake.WithClock(e.now), intake.WithLogger(e.logger))
			outcomes, err := in.IngestAll(cmd.Context(), subs)
			if err != nil {
				return e.fail(err)
			}

			res := IngestResult{Outcomes: outcomes}
			for _, o := range outcomes {
				if o.Duplicate {
					res.Duplicates++
				} else {
					res.Applied++
				}
			}
			return e.out.Emit(res, func(w io.Writer) error {
				for _, o := range res.Outcomes {
					switch {
					case o.Duplicate:
						fmt.Fprintf(w, "= %s already ingested\n", shortID(o.SubmissionID))
					default:
						fmt.Fprintf(w, "+ %s %s: %d column(s) updated", shortID(o.SubmissionID), o.ClientID, len(o.Updated))
						if o.SessionDocumented {
							fmt.Fprint(w, ", session documented")
						}
						fmt.Fprintln(w)
					}
				}
				_, err := fmt.Fprintf(w, "%d applied, %d duplicate(s)\n", res.Applied, res.Duplicates)
				return err
			})
		},
	}
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
