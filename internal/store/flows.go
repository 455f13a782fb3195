package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Flow is the persisted state of a client → goal selection dialog.
type Flow struct {
	Token         string    `json:"token"`
	Step          string    `json:"step"`
	AppointmentID string    `json:"appointment_id,omitempty"`
	ClientID      string    `json:"client_id,omitempty"`
	Goal          string    `json:"goal,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// PutFlow inserts or replaces a flow. CreatedAt is set on first insert and
// kept afterwards.
func (s *Store) PutFlow(ctx context.Context, f Flow) error {
	if f.Token == "" {
		return fmt.Errorf("put flow: empty token")
	}
	now := s.stamp()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO dialog_flows (token, step, appointment_id, client_id, goal, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(token) DO UPDATE SET
			step = excluded.step,
			appointment_id = excluded.appointment_id,
			client_id = excluded.client_id,
			goal = excluded.goal,
			updated_at = excluded.updated_at
	`, f.Token, f.Step, f.AppointmentID, f.ClientID, f.Goal, now, now)
	if err != nil {
		return fmt.Errorf("put flow %s: %w", f.Token, err)
	}
	return nil
}

// GetFlow returns a flow by token, or ErrNotFound.
func (s *Store) GetFlow(ctx context.Context, token string) (Flow, error) {
	var f Flow
	var created, updated string
	err := s.db.QueryRowContext(ctx, `
		SELECT token, step, appointment_id, client_id, goal, created_at, updated_at
		FROM dialog_flows WHERE token = ?
	`, token).Scan(&f.Token, &f.Step, &f.AppointmentID, &f.ClientID, &f.Goal, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return Flow{}, fmt.Errorf("flow %s: %w", token, ErrNotFound)
	}
	if err != nil {
		return Flow{}, fmt.Errorf("get flow %s: %w", token, err)
	}
	if f.CreatedAt, err = parseTime(created); err != nil {
		return Flow{}, err
	}
	if f.UpdatedAt, err = parseTime(updated); err != nil {
		return Flow{}, err
	}
	return f, nil
}
