package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Submission is an ingested form response.
type Submission struct {
	ID          string            `json:"id"`
	Form        string            `json:"form"`
	ClientID    string            `json:"client_id"`
	SubmittedAt time.Time         `json:"submitted_at"`
	Answers     map[string]string `json:"answers"`
}

// RecordSubmission stores sub unless a submission with the same ID exists.
// Uses ON CONFLICT(id) DO NOTHING; inserted is false for a duplicate.
func (s *Store) RecordSubmission(ctx context.Context, sub Submission) (inserted bool, err error) {
	answers, err := json.Marshal(sub.Answers)
	if err != nil {
		return false, fmt.Errorf("record submission: marshal answers: %w", err)
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO submissions (id, form, client_id, submitted_at, answers)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, sub.ID, sub.Form, sub.ClientID, formatTime(sub.SubmittedAt), string(answers))
	if err != nil {
		return false, fmt.Errorf("record submission %s: %w", sub.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("record submission %s: %w", sub.ID, err)
	}
	return n > 0, nil
}

// HasSubmission reports whether a submission with id was recorded.
func (s *Store) HasSubmission(ctx context.Context, id string) (bool, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM submissions WHERE id = ?`, id).Scan(&n); err != nil {
		return false, fmt.Errorf("has submission %s: %w", id, err)
	}
	return n > 0, nil
}

// ListSubmissions returns submissions for a client, oldest first.
func (s *Store) ListSubmissions(ctx context.Context, clientID string) ([]Submission, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, form, client_id, submitted_at, answers
		FROM submissions WHERE client_id = ? COLLATE NOCASE
		ORDER BY submitted_at ASC, id ASC
	`, clientID)
	if err != nil {
		return nil, fmt.Errorf("query submissions: %w", err)
	}
	defer rows.Close()

	subs := []Submission{}
	for rows.Next() {
		var sub Submission
		var submittedAt, answers string
		if err := rows.Scan(&sub.ID, &sub.Form, &sub.ClientID, &submittedAt, &answers); err != nil {
			return nil, fmt.Errorf("scan submission: %w", err)
		}
		if sub.SubmittedAt, err = parseTime(submittedAt); err != nil {
			return nil, err
		}
		if sub.Answers, err = unmarshalFields(answers); err != nil {
			return nil, fmt.Errorf("submission %s: %w", sub.ID, err)
		}
		subs = append(subs, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate submissions: %w", err)
	}
	return subs, nil
}
