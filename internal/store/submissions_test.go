package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordSubmission_Idempotent(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	sub := Submission{
		ID:          "sub-1",
		Form:        "intake",
		ClientID:    "C001",
		SubmittedAt: time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC),
		Answers:     map[string]string{"entry.1": "Sleep"},
	}

	inserted, err := s.RecordSubmission(ctx, sub)
	require.NoError(t, err)
	assert.True(t, inserted)

	inserted, err = s.RecordSubmission(ctx, sub)
	require.NoError(t, err)
	assert.False(t, inserted)

	has, err := s.HasSubmission(ctx, "sub-1")
	require.NoError(t, err)
	assert.True(t, has)

	has, err = s.HasSubmission(ctx, "sub-2")
	require.NoError(t, err)
	assert.False(t, has)
}

func TestListSubmissions(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)

	for i, id := range []string{"sub-b", "sub-a"} {
		_, err := s.RecordSubmission(ctx, Submission{
			ID:          id,
			Form:        "session",
			ClientID:    "C001",
			SubmittedAt: base.Add(time.Duration(i) * time.Hour),
			Answers:     map[string]string{"n": id},
		})
		require.NoError(t, err)
	}

	subs, err := s.ListSubmissions(ctx, "c001")
	require.NoError(t, err)
	require.Len(t, subs, 2)
	assert.Equal(t, "sub-b", subs[0].ID)
	assert.Equal(t, "sub-a", subs[1].Answers["n"])
}
