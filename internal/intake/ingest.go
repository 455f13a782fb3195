package intake

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/roach88/caseline/internal/config"
	"github.com/roach88/caseline/internal/match"
	"github.com/roach88/caseline/internal/pipelist"
	"github.com/roach88/caseline/internal/store"
)

var (
	// ErrUnknownForm is returned for a submission naming an unconfigured form.
	ErrUnknownForm = errors.New("unknown form")
	// ErrNoClient is returned when a submission carries no client id.
	ErrNoClient = errors.New("submission has no client id")
)

// Outcome reports what Ingest did.
type Outcome struct {
	SubmissionID      string            `json:"submission_id"`
	ClientID          string            `json:"client_id,omitempty"`
	Updated           map[string]string `json:"updated,omitempty"`
	Duplicate         bool              `json:"duplicate"`
	SessionDocumented bool              `json:"session_documented"`
}

// Ingester applies submissions to the directory.
//
// The store must be opened with store.WithNameColumn(cfg.Columns.Name) so
// that name answers rename the client instead of writing a column.
type Ingester struct {
	store  *store.Store
	cfg    *config.Config
	now    func() time.Time
	logger *slog.Logger
}

// Option configures an Ingester.
type Option func(*Ingester)

// WithClock sets the time used for submissions without a timestamp.
func WithClock(now func() time.Time) Option {
	return func(in *Ingester) { in.now = now }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(in *Ingester) { in.logger = logger }
}

// NewIngester creates an Ingester.
func NewIngester(s *store.Store, cfg *config.Config, opts ...Option) *Ingester {
	in := &Ingester{store: s, cfg: cfg, now: time.Now, logger: slog.Default()}
	for _, opt := range opts {
		opt(in)
	}
	return in
}

// Ingest applies one submission.
//
// Answers are mapped to domain fields through the form's field ids;
// unmapped and blank answers are ignored. The client is the one named by
// the id answer, else sub.ClientID. Each client column is combined with its
// stored value under the column's policy and only changed columns are
// written. An appointment_id answer marks that session documented, and a
// goal answer is recorded on the session.
func (in *Ingester) Ingest(ctx context.Context, sub Submission) (Outcome, error) {
	form, ok := in.cfg.Form(sub.Form)
	if !ok {
		return Outcome{}, fmt.Errorf("%w: %q", ErrUnknownForm, sub.Form)
	}
	// Hash before the clock fills a missing timestamp: an undated
	// submission keeps its id across re-ingestion.
	out := Outcome{SubmissionID: SubmissionID(sub)}
	if sub.SubmittedAt.IsZero() {
		sub.SubmittedAt = in.now()
	}
	seen, err := in.store.HasSubmission(ctx, out.SubmissionID)
	if err != nil {
		return out, err
	}
	if seen {
		out.Duplicate = true
		in.logger.Debug("submission already ingested", "id", out.SubmissionID, "form", form.Name)
		return out, nil
	}

	answers := in.mapAnswers(form, sub.Answers)
	cols := in.cfg.Columns

	clientID := answers[cols.ID]
	if clientID == "" {
		clientID = strings.TrimSpace(sub.ClientID)
	}
	if clientID == "" {
		return out, ErrNoClient
	}
	updates := map[string]string{}
	client, err := in.store.ModifyClient(ctx, clientID, func(client match.Client) (map[string]string, error) {
		for _, column := range sortedKeys(answers) {
			if column == cols.ID || column == FieldAppointmentID || column == FieldGoal {
				continue
			}
			current, next := client.Field(column), ""
			if column == cols.Name {
				current, next = client.Name, answers[column]
			} else {
				next = apply(in.cfg.PolicyFor(column), current, answers[column], sub.SubmittedAt)
			}
			if next != current {
				updates[column] = next
			}
		}
		return updates, nil
	})
	if err != nil {
		return out, err
	}
	out.ClientID = client.ID
	if len(updates) > 0 {
		out.Updated = updates
	}

	if apptID := answers[FieldAppointmentID]; apptID != "" {
		documented, err := in.documentSession(ctx, apptID, answers[FieldGoal])
		if err != nil {
			return out, err
		}
		out.SessionDocumented = documented
	}

	inserted, err := in.store.RecordSubmission(ctx, store.Submission{
		ID:          out.SubmissionID,
		Form:        form.Name,
		ClientID:    client.ID,
		SubmittedAt: sub.SubmittedAt,
		Answers:     sub.Answers,
	})
	if err != nil {
		return out, err
	}
	out.Duplicate = !inserted

	in.logger.Info("submission ingested",
		"id", out.SubmissionID,
		"form", form.Name,
		"client", client.ID,
		"columns", len(updates),
		"documented", out.SessionDocumented,
	)
	return out, nil
}

// IngestAll applies submissions in order and stops at the first error.
func (in *Ingester) IngestAll(ctx context.Context, subs []Submission) ([]Outcome, error) {
	outcomes := make([]Outcome, 0, len(subs))
	for i, sub := range subs {
		out, err := in.Ingest(ctx, sub)
		if err != nil {
			return outcomes, fmt.Errorf("submission %d: %w", i+1, err)
		}
		outcomes = append(outcomes, out)
	}
	return outcomes, nil
}

func (in *Ingester) mapAnswers(form config.Form, raw map[string]string) map[string]string {
	answers := make(map[string]string, len(raw))
	for fieldID, value := range raw {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		domain, ok := form.DomainFieldFor(fieldID)
		if !ok {
			in.logger.Debug("ignoring unmapped answer", "form", form.Name, "field", fieldID)
			continue
		}
		answers[domain] = value
	}
	return answers
}

func (in *Ingester) documentSession(ctx context.Context, appointmentID, goal string) (bool, error) {
	sess, err := in.store.GetSession(ctx, appointmentID)
	if errors.Is(err, store.ErrNotFound) {
		in.logger.Warn("submission names an unknown appointment", "appointment", appointmentID)
		return false, nil
	}
	if err != nil {
		return false, err
	}
	sess.Status = store.StatusDocumented
	if goal != "" {
		sess.Goal = goal
	}
	if err := in.store.PutSession(ctx, sess); err != nil {
		return false, err
	}
	return true, nil
}

// apply combines an answer with the stored value.
func apply(policy config.Policy, current, answer string, at time.Time) string {
	switch policy {
	case config.PolicyAppend:
		return pipelist.AppendStamped(current, answer, at)
	case config.PolicyMerge:
		return pipelist.Merge([]string{current, answer}, true)
	default:
		return answer
	}
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
