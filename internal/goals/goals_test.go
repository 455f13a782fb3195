package goals

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/caseline/internal/match"
	"github.com/roach88/caseline/internal/store"
	"github.com/roach88/caseline/internal/testutil"
)

func newService(t *testing.T, goals string) (*Service, *store.Store) {
	t.Helper()
	s := testutil.NewStore(t)
	testutil.SeedClients(t, s, match.Client{ID: "C001", Name: "John Doe", Fields: map[string]string{"goals": goals}})
	return NewService(s, "goals", nil), s
}

func storedGoals(t *testing.T, s *store.Store) string {
	t.Helper()
	c, err := s.GetClient(context.Background(), "C001")
	require.NoError(t, err)
	return c.Field("goals")
}

func TestList(t *testing.T) {
	svc, _ := newService(t, " Sleep | Work ||")

	goals, err := svc.List(context.Background(), "c001")
	require.NoError(t, err)
	assert.Equal(t, []string{"Sleep", "Work"}, goals)
}

func TestList_UnknownClient(t *testing.T) {
	svc, _ := newService(t, "")
	_, err := svc.List(context.Background(), "C404")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestAdd(t *testing.T) {
	svc, s := newService(t, "Sleep")
	ctx := context.Background()

	goals, err := svc.Add(ctx, "C001", "  Exercise ")
	require.NoError(t, err)
	assert.Equal(t, []string{"Sleep", "Exercise"}, goals)
	assert.Equal(t, "Sleep|Exercise", storedGoals(t, s))

	_, err = svc.Add(ctx, "C001", "Sleep")
	assert.ErrorIs(t, err, ErrDuplicateGoal)

	_, err = svc.Add(ctx, "C001", "   ")
	assert.ErrorIs(t, err, ErrEmptyGoal)
}

func TestAdd_ToEmptyList(t *testing.T) {
	svc, s := newService(t, "")

	goals, err := svc.Add(context.Background(), "C001", "Sleep")
	require.NoError(t, err)
	assert.Equal(t, []string{"Sleep"}, goals)
	assert.Equal(t, "Sleep", storedGoals(t, s))
}

func TestRemove(t *testing.T) {
	svc, s := newService(t, "Sleep|Work|Sleep")
	ctx := context.Background()

	goals, err := svc.Remove(ctx, "C001", "Sleep")
	require.NoError(t, err)
	assert.Equal(t, []string{"Work"}, goals)
	assert.Equal(t, "Work", storedGoals(t, s))

	goals, err = svc.Remove(ctx, "C001", "Missing")
	require.NoError(t, err)
	assert.Equal(t, []string{"Work"}, goals)
}

func TestRemove_LastGoalClearsColumn(t *testing.T) {
	svc, s := newService(t, "Sleep")

	goals, err := svc.Remove(context.Background(), "C001", "Sleep")
	require.NoError(t, err)
	assert.Empty(t, goals)
	assert.Equal(t, "", storedGoals(t, s))
}

func TestRename(t *testing.T) {
	svc, s := newService(t, "Sleep|Work")
	ctx := context.Background()

	goals, err := svc.Rename(ctx, "C001", "Sleep", "Sleep hygiene")
	require.NoError(t, err)
	assert.Equal(t, []string{"Sleep hygiene", "Work"}, goals)
	assert.Equal(t, "Sleep hygiene|Work", storedGoals(t, s))

	_, err = svc.Rename(ctx, "C001", "Missing", "X")
	assert.ErrorIs(t, err, ErrUnknownGoal)

	_, err = svc.Rename(ctx, "C001", "Work", "Sleep hygiene")
	assert.ErrorIs(t, err, ErrDuplicateGoal)

	_, err = svc.Rename(ctx, "C001", "Work", " ")
	assert.ErrorIs(t, err, ErrEmptyGoal)

	goals, err = svc.Rename(ctx, "C001", "Work", "Work")
	require.NoError(t, err, "renaming to itself is a no-op")
	assert.Equal(t, []string{"Sleep hygiene", "Work"}, goals)
}

func TestReorder(t *testing.T) {
	svc, s := newService(t, "A|B|C")

	goals, err := svc.Reorder(context.Background(), "C001", []string{"C", "X", "A"})
	require.NoError(t, err)
	assert.Equal(t, []string{"C", "A", "B"}, goals)
	assert.Equal(t, "C|A|B", storedGoals(t, s))
}

func TestClean(t *testing.T) {
	svc, s := newService(t, " A |A||B\n")

	goals, err := svc.Clean(context.Background(), "C001")
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, goals)
	assert.Equal(t, "A|B", storedGoals(t, s))
}

func TestAdd_ConcurrentProcessesKeepEveryGoal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "caseline.db")
	ctx := context.Background()

	var services []*Service
	for i := 0; i < 2; i++ {
		s, err := store.Open(path)
		require.NoError(t, err)
		t.Cleanup(func() { s.Close() })
		services = append(services, NewService(s, "goals", nil))
	}
	require.NoError(t, services[0].store.PutClient(ctx, match.Client{ID: "C001", Name: "John Doe"}))

	var wg sync.WaitGroup
	var want []string
	for i := 0; i < 8; i++ {
		goal := fmt.Sprintf("Goal %d", i)
		want = append(want, goal)
		wg.Add(1)
		go func(svc *Service) {
			defer wg.Done()
			_, err := svc.Add(ctx, "C001", goal)
			assert.NoError(t, err)
		}(services[i%2])
	}
	wg.Wait()

	got, err := services[1].List(ctx, "C001")
	require.NoError(t, err)
	assert.ElementsMatch(t, want, got)
}
