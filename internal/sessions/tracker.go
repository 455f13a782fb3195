// Package sessions keeps one tracking row per calendar appointment: which
// client it belongs to, how confident that link is, and whether the session
// has been documented.
package sessions

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/roach88/caseline/internal/calendar"
	"github.com/roach88/caseline/internal/match"
	"github.com/roach88/caseline/internal/store"
)

// Summary counts sessions by state.
type Summary struct {
	Total       int `json:"total"`
	Pending     int `json:"pending"`
	Documented  int `json:"documented"`
	Unmatched   int `json:"unmatched"`
	NeedsReview int `json:"needs_review"`
}

// Tracker syncs appointments into session rows.
type Tracker struct {
	store  *store.Store
	source calendar.Source
	logger *slog.Logger
}

// NewTracker creates a Tracker. A nil logger uses slog.Default().
func NewTracker(s *store.Store, src calendar.Source, logger *slog.Logger) *Tracker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracker{store: s, source: src, logger: logger}
}

// Sync matches every appointment in [start, end) against the directory and
// upserts its session row.
//
// Appointment details are refreshed on every sync. Manual links are never
// overwritten by the matcher, and documentation status and goal carry over.
// Returns the synced rows in calendar order.
func (t *Tracker) Sync(ctx context.Context, start, end time.Time) ([]store.Session, error) {
	appts, err := t.source.List(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("sync: %w", err)
	}
	clients, err := t.store.ListClients(ctx)
	if err != nil {
		return nil, fmt.Errorf("sync: %w", err)
	}

	synced := make([]store.Session, 0, len(appts))
	for _, appt := range appts {
		sess, err := t.syncOne(ctx, appt, clients)
		if err != nil {
			return synced, err
		}
		synced = append(synced, sess)
	}
	t.logger.Info("sessions synced", "appointments", len(appts), "clients", len(clients))
	return synced, nil
}

func (t *Tracker) syncOne(ctx context.Context, appt match.Appointment, clients []match.Client) (store.Session, error) {
	sess := store.Session{
		AppointmentID: appt.ID,
		Title:         appt.Title,
		Start:         appt.Start,
		End:           appt.End,
		Status:        store.StatusPending,
		LinkSource:    store.LinkAuto,
		Confidence:    match.ConfidenceNone,
	}

	existing, err := t.store.GetSession(ctx, appt.ID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return sess, err
	}
	found := err == nil
	if found {
		sess.Status = existing.Status
		sess.Goal = existing.Goal
	}

	if found && existing.LinkSource == store.LinkManual {
		sess.ClientID = existing.ClientID
		sess.Confidence = existing.Confidence
		sess.LinkSource = store.LinkManual
	} else {
		r := match.Match(appt, clients)
		if r.Matched() {
			sess.ClientID = r.Client.ID
		}
		sess.Confidence = r.Confidence
		if found && existing.ClientID != sess.ClientID {
			// A different client means the old goal no longer applies.
			sess.Goal = ""
		}
		t.logger.Debug("appointment matched",
			"appointment", appt.ID,
			"client", sess.ClientID,
			"confidence", sess.Confidence,
			"strategy", r.Strategy,
		)
	}

	if err := t.store.PutSession(ctx, sess); err != nil {
		return sess, err
	}
	return t.store.GetSession(ctx, appt.ID)
}

// Link ties an appointment to a client by hand. The link has high
// confidence and survives later syncs. An appointment that was never synced
// is looked up in the calendar first.
func (t *Tracker) Link(ctx context.Context, appointmentID, clientID string) (store.Session, error) {
	client, err := t.store.GetClient(ctx, clientID)
	if err != nil {
		return store.Session{}, err
	}

	sess, err := t.store.GetSession(ctx, appointmentID)
	if errors.Is(err, store.ErrNotFound) {
		appt, findErr := calendar.Find(ctx, t.source, appointmentID)
		if findErr != nil {
			return store.Session{}, findErr
		}
		sess = store.Session{
			AppointmentID: appt.ID,
			Title:         appt.Title,
			Start:         appt.Start,
			End:           appt.End,
			Status:        store.StatusPending,
		}
	} else if err != nil {
		return store.Session{}, err
	}

	if sess.ClientID != client.ID {
		sess.Goal = ""
	}
	sess.ClientID = client.ID
	sess.Confidence = match.ConfidenceHigh
	sess.LinkSource = store.LinkManual
	if err := t.store.PutSession(ctx, sess); err != nil {
		return store.Session{}, err
	}
	t.logger.Info("session linked", "appointment", appointmentID, "client", client.ID)
	return t.store.GetSession(ctx, appointmentID)
}

// SetGoal records the goal addressed in a session.
func (t *Tracker) SetGoal(ctx context.Context, appointmentID, goal string) (store.Session, error) {
	sess, err := t.store.GetSession(ctx, appointmentID)
	if err != nil {
		return store.Session{}, err
	}
	sess.Goal = goal
	if err := t.store.PutSession(ctx, sess); err != nil {
		return store.Session{}, err
	}
	return t.store.GetSession(ctx, appointmentID)
}

// MarkDocumented sets an appointment's session to documented.
func (t *Tracker) MarkDocumented(ctx context.Context, appointmentID string) error {
	if err := t.store.SetSessionStatus(ctx, appointmentID, store.StatusDocumented); err != nil {
		return err
	}
	t.logger.Info("session documented", "appointment", appointmentID)
	return nil
}

// List returns the session rows matching f.
func (t *Tracker) List(ctx context.Context, f store.SessionFilter) ([]store.Session, error) {
	return t.store.ListSessions(ctx, f)
}

// Summary counts every tracked session. Needs-review counts automatic links
// with medium or low confidence.
func (t *Tracker) Summary(ctx context.Context) (Summary, error) {
	all, err := t.store.ListSessions(ctx, store.SessionFilter{})
	if err != nil {
		return Summary{}, err
	}
	return Summarize(all), nil
}

// Summarize counts the given sessions.
func Summarize(sessions []store.Session) Summary {
	var sum Summary
	for _, sess := range sessions {
		sum.Total++
		switch sess.Status {
		case store.StatusDocumented:
			sum.Documented++
		default:
			sum.Pending++
		}
		if sess.ClientID == "" {
			sum.Unmatched++
			continue
		}
		if sess.LinkSource != store.LinkManual {
			switch sess.Confidence {
			case match.ConfidenceMedium, match.ConfidenceLow:
				sum.NeedsReview++
			}
		}
	}
	return sum
}
