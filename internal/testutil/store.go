package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/roach88/caseline/internal/match"
	"github.com/roach88/caseline/internal/store"
)

// NewStore opens a store in a temp directory that is closed when the test
// ends.
func NewStore(t *testing.T, opts ...store.Option) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "caseline.db"), opts...)
	if err != nil {
		t.Fatalf("store.Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// SeedClients writes clients to s in order.
func SeedClients(t *testing.T, s *store.Store, clients ...match.Client) {
	t.Helper()
	for _, c := range clients {
		if err := s.PutClient(context.Background(), c); err != nil {
			t.Fatalf("PutClient(%s) failed: %v", c.ID, err)
		}
	}
}

// Clients is a small directory used across package tests.
func Clients() []match.Client {
	return []match.Client{
		{ID: "C001", Name: "John Doe", Fields: map[string]string{"goals": "Sleep hygiene|Reduce anxiety"}},
		{ID: "C002", Name: "Jane Smith", Fields: map[string]string{"goals": "Return to work"}},
		{ID: "C003", Name: "Ana", Fields: map[string]string{}},
	}
}
