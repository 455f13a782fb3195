package store

import (
	"path/filepath"
	"testing"
	"time"
)

// fixedNow is the clock used by createTestStore.
var fixedNow = time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)

// createTestStore creates a new store in a temp directory for testing.
func createTestStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	opts = append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)
	s, err := Open(path, opts...)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}
