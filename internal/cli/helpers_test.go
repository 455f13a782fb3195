package cli

import (
	"bytes"
	"encoding/json"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/roach88/caseline/internal/testutil"
)

const (
	testConfig   = "testdata/caseline.cue"
	testCalendar = "testdata/calendar.yaml"
	testClients  = "testdata/clients.yaml"
)

// cliHarness runs commands against one temporary database with a fixed
// clock and predictable flow tokens.
type cliHarness struct {
	t    *testing.T
	db   string
	opts *RootOptions
}

func newHarness(t *testing.T) *cliHarness {
	t.Helper()
	clock := testutil.NewClock(testutil.Epoch, time.Second)
	return &cliHarness{
		t:  t,
		db: filepath.Join(t.TempDir(), "caseline.db"),
		opts: &RootOptions{
			FlowGenerator: testutil.NewSequenceGenerator(""),
			Now:           clock.Now,
		},
	}
}

// run executes args with --db and --config set and returns stdout.
func (h *cliHarness) run(args ...string) (string, error) {
	h.t.Helper()
	cmd := newRootCommand(h.opts)
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(append([]string{"--db", h.db, "--config", testConfig}, args...))
	err := cmd.Execute()
	return out.String(), err
}

// mustRun is run for commands that must succeed.
func (h *cliHarness) mustRun(args ...string) string {
	h.t.Helper()
	out, err := h.run(args...)
	require.NoError(h.t, err, "output: %s", out)
	return out
}

// importClients loads testdata/clients.yaml.
func (h *cliHarness) importClients() {
	h.t.Helper()
	h.mustRun("clients", "import", testClients)
}

// decodeData unmarshals the data of a JSON success envelope into v.
func decodeData(t *testing.T, out string, v interface{}) {
	t.Helper()
	var resp struct {
		Status string          `json:"status"`
		Data   json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp), "output: %s", out)
	require.Equal(t, "ok", resp.Status, "output: %s", out)
	require.NoError(t, json.Unmarshal(resp.Data, v))
}

// decodeError returns the error of a JSON error envelope.
func decodeError(t *testing.T, out string) CLIError {
	t.Helper()
	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp), "output: %s", out)
	require.Equal(t, "error", resp.Status, "output: %s", out)
	require.NotNil(t, resp.Error)
	return *resp.Error
}
