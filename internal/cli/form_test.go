package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/caseline/internal/match"
	"github.com/roach88/caseline/internal/store"
)

const testSubmissions = `form: intake
submitted_at: 2026-04-02T10:00:00Z
answers:
  entry.1001: C001
  entry.1003: Exercise
---
form: session
submitted_at: 2026-04-02T11:00:00Z
answers:
  entry.2001: C001
  entry.2002: evt-1
  entry.2003: Sleep hygiene
  entry.2004: Discussed sleep routine
`

func TestFormPrefill(t *testing.T) {
	h := newHarness(t)
	h.importClients()

	out := h.mustRun("form", "prefill", "intake", "C001")
	assert.Equal(t, "https://forms.example.com/intake?entry.1001=C001&entry.1002=John+Doe\n", out)

	var res PrefillResult
	decodeData(t, h.mustRun("--format", "json", "form", "prefill", "session", "C001",
		"--set", "appointment_id=evt-1", "--set", "goal=Sleep hygiene"), &res)
	assert.Equal(t, "session", res.Form)
	assert.Equal(t, "C001", res.ClientID)
	assert.Equal(t, "https://forms.example.com/session?entry.2001=C001&entry.2002=evt-1&entry.2003=Sleep+hygiene", res.URL)
}

func TestFormPrefill_Errors(t *testing.T) {
	h := newHarness(t)
	h.importClients()

	out, err := h.run("form", "prefill", "survey", "C001")
	require.Error(t, err)
	assert.Contains(t, out, "Error [E006]")

	out, err = h.run("form", "prefill", "intake", "C404")
	require.Error(t, err)
	assert.Contains(t, out, "Error [E005]")

	_, err = h.run("form", "prefill", "intake", "C001", "--set", "novalue")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestFormIngest(t *testing.T) {
	h := newHarness(t)
	h.importClients()
	h.mustRun("sessions", "sync", "--calendar", testCalendar)

	path := filepath.Join(t.TempDir(), "submissions.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testSubmissions), 0o644))

	out := h.mustRun("form", "ingest", path)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "+ "))
	assert.True(t, strings.HasSuffix(lines[0], "C001: 1 column(s) updated"), lines[0])
	assert.True(t, strings.HasSuffix(lines[1], "C001: 1 column(s) updated, session documented"), lines[1])
	assert.Equal(t, "2 applied, 0 duplicate(s)", lines[2])

	var client match.Client
	decodeData(t, h.mustRun("--format", "json", "clients", "show", "C001"), &client)
	assert.Equal(t, "Sleep hygiene|Reduce anxiety|Exercise", client.Fields["goals"])
	assert.Contains(t, client.Fields["session_history"], "Discussed sleep routine")

	var sess []store.Session
	decodeData(t, h.mustRun("--format", "json", "sessions", "list", "--status", "documented"), &sess)
	require.Len(t, sess, 1)
	assert.Equal(t, "evt-1", sess[0].AppointmentID)
	assert.Equal(t, "Sleep hygiene", sess[0].Goal)

	// Re-ingesting the same file changes nothing.
	var res IngestResult
	decodeData(t, h.mustRun("--format", "json", "form", "ingest", path), &res)
	assert.Equal(t, 0, res.Applied)
	assert.Equal(t, 2, res.Duplicates)

	decodeData(t, h.mustRun("--format", "json", "clients", "show", "C001"), &client)
	assert.Equal(t, "Sleep hygiene|Reduce anxiety|Exercise", client.Fields["goals"])
}

func TestFormIngest_Stdin(t *testing.T) {
	h := newHarness(t)
	h.importClients()

	cmd := newRootCommand(h.opts)
	out := &strings.Builder{}
	cmd.SetOut(out)
	cmd.SetIn(strings.NewReader("form: intake\nanswers:\n  entry.1001: C002\n  entry.1003: Exercise\n"))
	cmd.SetArgs([]string{"--db", h.db, "--config", testConfig, "form", "ingest", "-"})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "1 applied, 0 duplicate(s)")

	assert.Equal(t, "1. Return to work\n2. Exercise\n", h.mustRun("goals", "list", "C002"))
}

func TestFormIngest_UnknownClient(t *testing.T) {
	h := newHarness(t)
	path := filepath.Join(t.TempDir(), "submissions.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testSubmissions), 0o644))

	out, err := h.run("form", "ingest", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Error [E005]")
	assert.Contains(t, out, "submission 1")
}
