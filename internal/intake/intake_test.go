package intake

import (
	"context"
	"io"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/caseline/internal/config"
	"github.com/roach88/caseline/internal/match"
	"github.com/roach88/caseline/internal/store"
	"github.com/roach88/caseline/internal/testutil"
)

func loadConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load(filepath.Join("testdata", "config.cue"))
	require.NoError(t, err)
	return cfg
}

func newIngester(t *testing.T) (*Ingester, *store.Store) {
	t.Helper()
	cfg := loadConfig(t)
	s := testutil.NewStore(t, store.WithNameColumn(cfg.Columns.Name))
	testutil.SeedClients(t, s, testutil.Clients()...)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewIngester(s, cfg, WithLogger(logger), WithClock(testutil.NewClock(time.Time{}, 0).Now)), s
}

func TestPrefill(t *testing.T) {
	cfg := loadConfig(t)
	form, _ := cfg.Form("intake")
	client := match.Client{ID: "C001", Name: "John Doe", Fields: map[string]string{"phone": "555 0100"}}

	link, err := Prefill(form, cfg.Columns, client, nil)
	require.NoError(t, err)

	u, err := url.Parse(link)
	require.NoError(t, err)
	assert.Equal(t, "forms.example.com", u.Host)
	q := u.Query()
	assert.Equal(t, "pp_url", q.Get("usp"), "existing query parameters are kept")
	assert.Equal(t, "C001", q.Get("entry.1"))
	assert.Equal(t, "John Doe", q.Get("entry.2"))
	assert.Equal(t, "555 0100", q.Get("entry.4"))
	assert.False(t, q.Has("entry.3"), "goals are not prefilled")
}

func TestPrefill_ExtraAndMissingValues(t *testing.T) {
	cfg := loadConfig(t)
	form, _ := cfg.Form("session")

	link, err := Prefill(form, cfg.Columns, match.Client{ID: "C002"}, map[string]string{
		FieldAppointmentID: "evt-9",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://forms.example.com/session?entry.10=C002&entry.11=evt-9", link)
}

func TestPrefill_Deterministic(t *testing.T) {
	cfg := loadConfig(t)
	form, _ := cfg.Form("intake")
	client := match.Client{ID: "C001", Name: "John Doe", Fields: map[string]string{"phone": "1"}}

	first, err := Prefill(form, cfg.Columns, client, nil)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := Prefill(form, cfg.Columns, client, nil)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestSubmissionID(t *testing.T) {
	at := time.Date(2026, 4, 2, 10, 0, 0, 0, time.UTC)
	a := Submission{Form: "intake", ClientID: "C001", SubmittedAt: at, Answers: map[string]string{"x": "1", "y": "2"}}
	b := Submission{Form: "intake", ClientID: "C001", SubmittedAt: at.In(time.FixedZone("EST", -5*3600)), Answers: map[string]string{"y": "2", "x": "1"}}

	assert.Equal(t, SubmissionID(a), SubmissionID(b), "map order and time zone do not change the id")
	assert.Len(t, SubmissionID(a), 64)

	c := a
	c.Answers = map[string]string{"x": "1", "y": "3"}
	assert.NotEqual(t, SubmissionID(a), SubmissionID(c))
}

func TestSubmissionID_NFC(t *testing.T) {
	composed := Submission{Form: "f", Answers: map[string]string{"n": "Jos\u00e9"}}
	decomposed := Submission{Form: "f", Answers: map[string]string{"n": "Jose\u0301"}}
	assert.Equal(t, SubmissionID(composed), SubmissionID(decomposed))
}

func TestDecodeSubmissions(t *testing.T) {
	f, err := os.Open(filepath.Join("testdata", "submissions.yaml"))
	require.NoError(t, err)
	defer f.Close()

	subs, err := DecodeSubmissions(f)
	require.NoError(t, err)
	require.Len(t, subs, 3)
	assert.Equal(t, "intake", subs[0].Form)
	assert.Equal(t, "Exercise", subs[0].Answers["entry.3"])
	assert.Equal(t, "evt-1", subs[1].Answers["entry.11"])
	assert.Equal(t, "C002", subs[2].ClientID)
	assert.True(t, time.Date(2026, 4, 2, 12, 0, 0, 0, time.UTC).Equal(subs[2].SubmittedAt))
}

func TestDecodeSubmissions_JSON(t *testing.T) {
	subs, err := DecodeSubmissions(strings.NewReader(`{"form": "intake", "answers": {"entry.1": "C001"}}`))
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, "C001", subs[0].Answers["entry.1"])
}

func TestDecodeSubmissions_Errors(t *testing.T) {
	_, err := DecodeSubmissions(strings.NewReader("just a string\n"))
	assert.Error(t, err)

	_, err = DecodeSubmissions(strings.NewReader("form: [unclosed\n"))
	assert.Error(t, err)

	subs, err := DecodeSubmissions(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, subs)
}

func TestIngest_MergePolicy(t *testing.T) {
	in, s := newIngester(t)
	ctx := context.Background()

	out, err := in.Ingest(ctx, Submission{
		Form:        "intake",
		SubmittedAt: time.Date(2026, 4, 2, 10, 0, 0, 0, time.UTC),
		Answers:     map[string]string{"entry.1": "c001", "entry.3": "Reduce anxiety|Exercise", "entry.4": "555"},
	})
	require.NoError(t, err)
	assert.False(t, out.Duplicate)
	assert.Equal(t, "C001", out.ClientID)
	assert.Equal(t, map[string]string{"goals": "Sleep hygiene|Reduce anxiety|Exercise", "phone": "555"}, out.Updated)

	c, err := s.GetClient(ctx, "C001")
	require.NoError(t, err)
	assert.Equal(t, "Sleep hygiene|Reduce anxiety|Exercise", c.Field("goals"))
	assert.Equal(t, "555", c.Field("phone"))
}

func TestIngest_Idempotent(t *testing.T) {
	in, s := newIngester(t)
	ctx := context.Background()
	sub := Submission{
		Form:        "session",
		SubmittedAt: time.Date(2026, 4, 2, 11, 0, 0, 0, time.UTC),
		Answers:     map[string]string{"entry.10": "C002", "entry.13": "Check-in"},
	}

	first, err := in.Ingest(ctx, sub)
	require.NoError(t, err)
	assert.False(t, first.Duplicate)
	assert.Equal(t, "[2026-04-02] Check-in", first.Updated["session_history"])

	second, err := in.Ingest(ctx, sub)
	require.NoError(t, err)
	assert.True(t, second.Duplicate)
	assert.Equal(t, first.SubmissionID, second.SubmissionID)
	assert.Empty(t, second.Updated)

	c, err := s.GetClient(ctx, "C002")
	require.NoError(t, err)
	assert.Equal(t, "[2026-04-02] Check-in", c.Field("session_history"))
}

func TestIngest_UndatedSubmissionIsIdempotent(t *testing.T) {
	cfg := loadConfig(t)
	s := testutil.NewStore(t, store.WithNameColumn(cfg.Columns.Name))
	testutil.SeedClients(t, s, testutil.Clients()...)
	clock := testutil.NewClock(testutil.Epoch, 36*time.Hour)
	in := NewIngester(s, cfg, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))), WithClock(clock.Now))
	ctx := context.Background()
	sub := Submission{Form: "session", Answers: map[string]string{"entry.10": "C002", "entry.13": "Check-in"}}

	first, err := in.Ingest(ctx, sub)
	require.NoError(t, err)
	assert.False(t, first.Duplicate)
	assert.Equal(t, SubmissionID(sub), first.SubmissionID)

	second, err := in.Ingest(ctx, sub)
	require.NoError(t, err)
	assert.True(t, second.Duplicate)
	assert.Equal(t, first.SubmissionID, second.SubmissionID)

	c, err := s.GetClient(ctx, "C002")
	require.NoError(t, err)
	assert.Equal(t, "[2026-04-01] Check-in", c.Field("session_history"))
}

func TestIngest_AppendAccumulates(t *testing.T) {
	in, s := newIngester(t)
	ctx := context.Background()

	for i, note := range []string{"First visit", "Second visit"} {
		_, err := in.Ingest(ctx, Submission{
			Form:        "session",
			SubmittedAt: time.Date(2026, 4, 2+i, 11, 0, 0, 0, time.UTC),
			Answers:     map[string]string{"entry.10": "C003", "entry.13": note},
		})
		require.NoError(t, err)
	}

	c, err := s.GetClient(ctx, "C003")
	require.NoError(t, err)
	assert.Equal(t, "[2026-04-02] First visit|[2026-04-03] Second visit", c.Field("session_history"))
}

func TestIngest_DocumentsSession(t *testing.T) {
	in, s := newIngester(t)
	ctx := context.Background()
	start := time.Date(2026, 4, 2, 9, 0, 0, 0, time.UTC)
	require.NoError(t, s.PutSession(ctx, store.Session{
		AppointmentID: "evt-1",
		Title:         "Therapy - John Doe (C001)",
		Start:         start,
		End:           start.Add(time.Hour),
		ClientID:      "C001",
		Confidence:    match.ConfidenceHigh,
	}))

	out, err := in.Ingest(ctx, Submission{
		Form:        "session",
		SubmittedAt: start.Add(2 * time.Hour),
		Answers:     map[string]string{"entry.10": "C001", "entry.11": "evt-1", "entry.12": "Sleep hygiene"},
	})
	require.NoError(t, err)
	assert.True(t, out.SessionDocumented)
	assert.Empty(t, out.Updated, "appointment and goal answers are not client columns")

	sess, err := s.GetSession(ctx, "evt-1")
	require.NoError(t, err)
	assert.Equal(t, store.StatusDocumented, sess.Status)
	assert.Equal(t, "Sleep hygiene", sess.Goal)
	assert.Equal(t, "C001", sess.ClientID, "link is kept")
}

func TestIngest_UnknownAppointmentIsNotAnError(t *testing.T) {
	in, _ := newIngester(t)

	out, err := in.Ingest(context.Background(), Submission{
		Form:    "session",
		Answers: map[string]string{"entry.10": "C001", "entry.11": "evt-404"},
	})
	require.NoError(t, err)
	assert.False(t, out.SessionDocumented)
}

func TestIngest_RenamesClient(t *testing.T) {
	in, s := newIngester(t)
	ctx := context.Background()

	out, err := in.Ingest(ctx, Submission{
		Form:    "intake",
		Answers: map[string]string{"entry.1": "C003", "entry.2": "Ana Lopez"},
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"name": "Ana Lopez"}, out.Updated)

	c, err := s.GetClient(ctx, "C003")
	require.NoError(t, err)
	assert.Equal(t, "Ana Lopez", c.Name)
	assert.Empty(t, c.Field("name"))
}

func TestIngest_BlankAndUnmappedAnswersIgnored(t *testing.T) {
	in, s := newIngester(t)
	ctx := context.Background()

	out, err := in.Ingest(ctx, Submission{
		Form:    "intake",
		Answers: map[string]string{"entry.1": "C002", "entry.3": "  ", "entry.99": "noise"},
	})
	require.NoError(t, err)
	assert.Empty(t, out.Updated)

	c, err := s.GetClient(ctx, "C002")
	require.NoError(t, err)
	assert.Equal(t, "Return to work", c.Field("goals"))
}

func TestIngest_Errors(t *testing.T) {
	in, _ := newIngester(t)
	ctx := context.Background()

	_, err := in.Ingest(ctx, Submission{Form: "nope"})
	assert.ErrorIs(t, err, ErrUnknownForm)

	_, err = in.Ingest(ctx, Submission{Form: "intake", Answers: map[string]string{"entry.3": "x"}})
	assert.ErrorIs(t, err, ErrNoClient)

	_, err = in.Ingest(ctx, Submission{Form: "intake", ClientID: "C404", Answers: map[string]string{"entry.3": "x"}})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestIngestAll_StopsAtFirstError(t *testing.T) {
	in, _ := newIngester(t)

	outcomes, err := in.IngestAll(context.Background(), []Submission{
		{Form: "intake", Answers: map[string]string{"entry.1": "C001", "entry.4": "1"}},
		{Form: "missing"},
		{Form: "intake", Answers: map[string]string{"entry.1": "C002", "entry.4": "2"}},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownForm)
	assert.Contains(t, err.Error(), "submission 2")
	assert.Len(t, outcomes, 1)
}
