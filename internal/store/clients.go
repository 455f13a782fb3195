package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/caseline/internal/match"
)

// PutClient inserts a client or replaces the name and fields of an existing
// one. An existing client keeps its position in ListClients.
func (s *Store) PutClient(ctx context.Context, c match.Client) error {
	id := strings.TrimSpace(c.ID)
	if id == "" {
		return fmt.Errorf("put client: empty id")
	}
	fieldsJSON, err := marshalFields(c.Fields)
	if err != nil {
		return fmt.Errorf("put client %s: %w", id, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO clients (id, name, fields, seq)
		VALUES (?, ?, ?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM clients))
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			fields = excluded.fields
	`, id, strings.TrimSpace(c.Name), fieldsJSON)
	if err != nil {
		return fmt.Errorf("put client %s: %w", id, err)
	}
	return nil
}

// ListClients returns every client in insertion order. Returns an empty slice
// (not nil) when the directory is empty.
func (s *Store) ListClients(ctx context.Context) ([]match.Client, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, fields FROM clients ORDER BY seq ASC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query clients: %w", err)
	}
	defer rows.Close()

	clients := []match.Client{}
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, err
		}
		clients = append(clients, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate clients: %w", err)
	}
	return clients, nil
}

// GetClient returns a client by id (case-insensitive). Returns ErrNotFound
// when there is no such client.
func (s *Store) GetClient(ctx context.Context, id string) (match.Client, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, fields FROM clients WHERE id = ?
	`, strings.TrimSpace(id))
	c, err := scanClient(row)
	if errors.Is(err, sql.ErrNoRows) {
		return match.Client{}, fmt.Errorf("client %s: %w", id, ErrNotFound)
	}
	return c, err
}

// UpdateClient merges fields into the stored client.
//
// The name column (see WithNameColumn) renames the client; every other key
// sets that column. An empty value clears the column. Returns false when the
// client does not exist.
func (s *Store) UpdateClient(ctx context.Context, id string, fields map[string]string) (bool, error) {
	_, err := s.ModifyClient(ctx, id, func(match.Client) (map[string]string, error) {
		return fields, nil
	})
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

// ModifyClient reads the client, passes it to fn and merges the fields fn
// returns the way UpdateClient does. The read, fn and the write run in one
// write transaction, so fn always sees the latest committed row. fn returning
// no fields skips the write; an error from fn aborts without writing.
// Returns the stored client, or ErrNotFound.
func (s *Store) ModifyClient(ctx context.Context, id string, fn func(match.Client) (map[string]string, error)) (match.Client, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return match.Client{}, fmt.Errorf("update client: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	c, err := scanClient(tx.QueryRowContext(ctx, `
		SELECT id, name, fields FROM clients WHERE id = ?
	`, strings.TrimSpace(id)))
	if errors.Is(err, sql.ErrNoRows) {
		return match.Client{}, fmt.Errorf("client %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return match.Client{}, fmt.Errorf("update client %s: %w", id, err)
	}

	fields, err := fn(c)
	if err != nil {
		return match.Client{}, err
	}
	if len(fields) == 0 {
		return c, nil
	}

	if c.Fields == nil {
		c.Fields = map[string]string{}
	}
	for column, value := range fields {
		if column == s.nameColumn {
			c.Name = strings.TrimSpace(value)
			continue
		}
		if value == "" {
			delete(c.Fields, column)
			continue
		}
		c.Fields[column] = value
	}

	fieldsJSON, err := marshalFields(c.Fields)
	if err != nil {
		return match.Client{}, fmt.Errorf("update client %s: %w", id, err)
	}
	if _, err := tx.ExecContext(ctx, `
		UPDATE clients SET name = ?, fields = ? WHERE id = ?
	`, c.Name, fieldsJSON, c.ID); err != nil {
		return match.Client{}, fmt.Errorf("update client %s: %w", id, err)
	}

	if err := tx.Commit(); err != nil {
		return match.Client{}, fmt.Errorf("update client %s: commit: %w", id, err)
	}
	return c, nil
}

// DeleteClient removes a client. Returns false when it did not exist.
func (s *Store) DeleteClient(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM clients WHERE id = ?`, strings.TrimSpace(id))
	if err != nil {
		return false, fmt.Errorf("delete client %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete client %s: %w", id, err)
	}
	return n > 0, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanClient(row rowScanner) (match.Client, error) {
	var c match.Client
	var fieldsJSON string
	if err := row.Scan(&c.ID, &c.Name, &fieldsJSON); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c, err
		}
		return c, fmt.Errorf("scan client: %w", err)
	}
	fields, err := unmarshalFields(fieldsJSON)
	if err != nil {
		return c, fmt.Errorf("client %s: %w", c.ID, err)
	}
	c.Fields = fields
	return c, nil
}

// marshalFields converts a column map to JSON TEXT. encoding/json sorts map
// keys, so the stored text is deterministic.
func marshalFields(fields map[string]string) (string, error) {
	if len(fields) == 0 {
		return "{}", nil
	}
	data, err := json.Marshal(fields)
	if err != nil {
		return "", fmt.Errorf("marshal fields: %w", err)
	}
	return string(data), nil
}

func unmarshalFields(data string) (map[string]string, error) {
	fields := map[string]string{}
	if data == "" || data == "{}" {
		return fields, nil
	}
	if err := json.Unmarshal([]byte(data), &fields); err != nil {
		return nil, fmt.Errorf("unmarshal fields: %w", err)
	}
	return fields, nil
}
