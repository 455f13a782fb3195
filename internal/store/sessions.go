package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/roach88/caseline/internal/match"
)

// Session documentation statuses.
const (
	StatusPending    = "pending"
	StatusDocumented = "documented"
)

// Link sources record who linked the appointment to the client.
const (
	LinkAuto   = "auto"
	LinkManual = "manual"
)

// Session is the tracking row for one appointment.
type Session struct {
	AppointmentID string           `json:"appointment_id"`
	Title         string           `json:"title"`
	Start         time.Time        `json:"start"`
	End           time.Time        `json:"end"`
	ClientID      string           `json:"client_id,omitempty"`
	Confidence    match.Confidence `json:"confidence"`
	LinkSource    string           `json:"link_source"`
	Status        string           `json:"status"`
	Goal          string           `json:"goal,omitempty"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

// SessionFilter narrows ListSessions. Zero values match everything.
type SessionFilter struct {
	Status   string
	ClientID string
	From     time.Time
	To       time.Time
}

// ValidStatus reports whether status is a known session status.
func ValidStatus(status string) bool {
	return status == StatusPending || status == StatusDocumented
}

// PutSession inserts or replaces the row for sess.AppointmentID. Empty
// Status, LinkSource and Confidence default to pending, auto and none.
func (s *Store) PutSession(ctx context.Context, sess Session) error {
	if strings.TrimSpace(sess.AppointmentID) == "" {
		return fmt.Errorf("put session: empty appointment id")
	}
	if sess.Status == "" {
		sess.Status = StatusPending
	}
	if !ValidStatus(sess.Status) {
		return fmt.Errorf("put session %s: invalid status %q", sess.AppointmentID, sess.Status)
	}
	if sess.LinkSource == "" {
		sess.LinkSource = LinkAuto
	}
	if sess.Confidence == "" {
		sess.Confidence = match.ConfidenceNone
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions
		(appointment_id, title, start_at, end_at, client_id, confidence, link_source, status, goal, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(appointment_id) DO UPDATE SET
			title = excluded.title,
			start_at = excluded.start_at,
			end_at = excluded.end_at,
			client_id = excluded.client_id,
			confidence = excluded.confidence,
			link_source = excluded.link_source,
			status = excluded.status,
			goal = excluded.goal,
			updated_at = excluded.updated_at
	`,
		sess.AppointmentID,
		sess.Title,
		formatTime(sess.Start),
		formatTime(sess.End),
		sess.ClientID,
		string(sess.Confidence),
		sess.LinkSource,
		sess.Status,
		sess.Goal,
		s.stamp(),
	)
	if err != nil {
		return fmt.Errorf("put session %s: %w", sess.AppointmentID, err)
	}
	return nil
}

// GetSession returns the row for an appointment, or ErrNotFound.
func (s *Store) GetSession(ctx context.Context, appointmentID string) (Session, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT appointment_id, title, start_at, end_at, client_id, confidence, link_source, status, goal, updated_at
		FROM sessions WHERE appointment_id = ?
	`, appointmentID)
	sess, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, fmt.Errorf("session %s: %w", appointmentID, ErrNotFound)
	}
	return sess, err
}

// ListSessions returns sessions matching f ordered by start time, then
// appointment id.
func (s *Store) ListSessions(ctx context.Context, f SessionFilter) ([]Session, error) {
	query := `
		SELECT appointment_id, title, start_at, end_at, client_id, confidence, link_source, status, goal, updated_at
		FROM sessions WHERE 1 = 1`
	var args []any
	if f.Status != "" {
		query += ` AND status = ?`
		args = append(args, f.Status)
	}
	if f.ClientID != "" {
		query += ` AND client_id = ? COLLATE NOCASE`
		args = append(args, f.ClientID)
	}
	if !f.From.IsZero() {
		query += ` AND start_at >= ?`
		args = append(args, formatTime(f.From))
	}
	if !f.To.IsZero() {
		query += ` AND start_at < ?`
		args = append(args, formatTime(f.To))
	}
	query += ` ORDER BY start_at ASC, appointment_id ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	sessions := []Session{}
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return sessions, nil
}

// SetSessionStatus changes the documentation status of an appointment.
// Returns ErrNotFound when the appointment has no session row.
func (s *Store) SetSessionStatus(ctx context.Context, appointmentID, status string) error {
	if !ValidStatus(status) {
		return fmt.Errorf("set session status: invalid status %q", status)
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE sessions SET status = ?, updated_at = ? WHERE appointment_id = ?
	`, status, s.stamp(), appointmentID)
	if err != nil {
		return fmt.Errorf("set session status %s: %w", appointmentID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set session status %s: %w", appointmentID, err)
	}
	if n == 0 {
		return fmt.Errorf("session %s: %w", appointmentID, ErrNotFound)
	}
	return nil
}

func scanSession(row rowScanner) (Session, error) {
	var sess Session
	var start, end, updated, confidence string
	err := row.Scan(
		&sess.AppointmentID,
		&sess.Title,
		&start,
		&end,
		&sess.ClientID,
		&confidence,
		&sess.LinkSource,
		&sess.Status,
		&sess.Goal,
		&updated,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return sess, err
		}
		return sess, fmt.Errorf("scan session: %w", err)
	}
	sess.Confidence = match.ParseConfidence(confidence)
	if sess.Start, err = parseTime(start); err != nil {
		return sess, err
	}
	if sess.End, err = parseTime(end); err != nil {
		return sess, err
	}
	if sess.UpdatedAt, err = parseTime(updated); err != nil {
		return sess, err
	}
	return sess, nil
}
