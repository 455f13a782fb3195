// Package goals manages a client's treatment goals, stored as a pipe list in
// the directory's goals column.
package goals

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/roach88/caseline/internal/match"
	"github.com/roach88/caseline/internal/pipelist"
	"github.com/roach88/caseline/internal/store"
)

var (
	// ErrEmptyGoal is returned when a goal is blank.
	ErrEmptyGoal = errors.New("goal is empty")
	// ErrDuplicateGoal is returned when a goal is already on the list.
	ErrDuplicateGoal = errors.New("goal already exists")
	// ErrUnknownGoal is returned when renaming a goal that is not on the list.
	ErrUnknownGoal = errors.New("goal not found")
)

// Service edits the goals column of directory clients.
type Service struct {
	store  *store.Store
	column string
	logger *slog.Logger
}

// NewService creates a Service for the given goals column. A nil logger uses
// slog.Default().
func NewService(s *store.Store, column string, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: s, column: column, logger: logger}
}

// List returns the client's goals in order.
func (s *Service) List(ctx context.Context, clientID string) ([]string, error) {
	c, err := s.store.GetClient(ctx, clientID)
	if err != nil {
		return nil, err
	}
	return pipelist.Parse(c.Field(s.column)), nil
}

// Add appends a goal. Adding a goal that is already listed fails with
// ErrDuplicateGoal.
func (s *Service) Add(ctx context.Context, clientID, goal string) ([]string, error) {
	goal = strings.TrimSpace(goal)
	if goal == "" {
		return nil, ErrEmptyGoal
	}
	return s.mutate(ctx, clientID, func(cur string) (string, error) {
		if pipelist.Contains(cur, goal) {
			return "", fmt.Errorf("%w: %q", ErrDuplicateGoal, goal)
		}
		return pipelist.Add(cur, goal, false), nil
	})
}

// Remove drops a goal. Removing an absent goal is not an error.
func (s *Service) Remove(ctx context.Context, clientID, goal string) ([]string, error) {
	return s.mutate(ctx, clientID, func(cur string) (string, error) {
		if !pipelist.Contains(cur, goal) {
			return cur, nil
		}
		return pipelist.Remove(cur, goal), nil
	})
}

// Rename replaces oldGoal with newGoal in place.
func (s *Service) Rename(ctx context.Context, clientID, oldGoal, newGoal string) ([]string, error) {
	newGoal = strings.TrimSpace(newGoal)
	if newGoal == "" {
		return nil, ErrEmptyGoal
	}
	return s.mutate(ctx, clientID, func(cur string) (string, error) {
		if !pipelist.Contains(cur, oldGoal) {
			return "", fmt.Errorf("%w: %q", ErrUnknownGoal, oldGoal)
		}
		if strings.TrimSpace(oldGoal) != newGoal && pipelist.Contains(cur, newGoal) {
			return "", fmt.Errorf("%w: %q", ErrDuplicateGoal, newGoal)
		}
		return pipelist.Update(cur, oldGoal, newGoal), nil
	})
}

// Reorder moves the named goals to the front in the given order. Names not
// on the list are ignored.
func (s *Service) Reorder(ctx context.Context, clientID string, order []string) ([]string, error) {
	return s.mutate(ctx, clientID, func(cur string) (string, error) {
		return pipelist.Reorder(cur, order), nil
	})
}

// Clean normalizes the stored list with pipelist.DefaultCleanOptions.
func (s *Service) Clean(ctx context.Context, clientID string) ([]string, error) {
	return s.mutate(ctx, clientID, func(cur string) (string, error) {
		return pipelist.Clean(cur, pipelist.DefaultCleanOptions()), nil
	})
}

// mutate applies fn to the stored goals and writes the result back only
// when it differs. The read and the write share one store transaction.
func (s *Service) mutate(ctx context.Context, clientID string, fn func(string) (string, error)) ([]string, error) {
	var next string
	changed := false
	c, err := s.store.ModifyClient(ctx, clientID, func(client match.Client) (map[string]string, error) {
		cur := client.Field(s.column)
		var err error
		if next, err = fn(cur); err != nil {
			return nil, err
		}
		if next == cur {
			return nil, nil
		}
		changed = true
		return map[string]string{s.column: next}, nil
	})
	if err != nil {
		return nil, err
	}
	if changed {
		s.logger.Debug("goals updated", "client", c.ID, "column", s.column)
	}
	return pipelist.Parse(next), nil
}
