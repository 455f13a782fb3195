package config

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, Columns{ID: "client_id", Name: "name", Goals: "goals", History: "session_history"}, cfg.Columns)
	assert.Empty(t, cfg.Forms)
	assert.NotNil(t, cfg.Forms)
	assert.Equal(t, PolicyReplace, cfg.PolicyFor("goals"))
	assert.Equal(t, PolicyAppend, cfg.PolicyFor("session_history"))
}

func TestLoad_File(t *testing.T) {
	cfg, err := Load(filepath.Join("testdata", "caseline.cue"))
	require.NoError(t, err)

	assert.Equal(t, "Goals", cfg.Columns.Goals)
	assert.Equal(t, "client_id", cfg.Columns.ID, "unset columns keep their defaults")
	assert.Equal(t, []string{"intake", "session"}, cfg.FormNames())

	intake, ok := cfg.Form("intake")
	require.True(t, ok)
	assert.Equal(t, "intake", intake.Name)
	assert.Equal(t, "https://forms.example.com/intake", intake.BaseURL)
	assert.Equal(t, []string{"client_id", "name"}, intake.Prefill)

	id, ok := intake.FieldFor("goals")
	require.True(t, ok)
	assert.Equal(t, "entry.1003", id)

	domain, ok := intake.DomainFieldFor("entry.1004")
	require.True(t, ok)
	assert.Equal(t, "phone", domain)

	_, ok = intake.DomainFieldFor("entry.9999")
	assert.False(t, ok)

	assert.Equal(t, PolicyMerge, cfg.PolicyFor("Goals"))
	assert.Equal(t, PolicyReplace, cfg.PolicyFor("phone"))
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.cue"))
	assertCode(t, err, ErrCodeRead)
}

func TestParse_PrefillWithoutPrefillList(t *testing.T) {
	cfg, err := Parse([]byte(`forms: f: {base_url: "https://x.example", fields: a: "e.1"}`), "f.cue")
	require.NoError(t, err)
	assert.Empty(t, cfg.Forms["f"].Prefill)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		code string
	}{
		{"syntax error", `columns: {`, ErrCodeCompile},
		{"unknown top-level field", `colums: id: "ID"`, ErrCodeSchema},
		{"unknown policy", `policies: goals: "overwrite"`, ErrCodeSchema},
		{"empty column name", `columns: id: ""`, ErrCodeSchema},
		{"form without base url", `forms: f: fields: a: "e.1"`, ErrCodeSchema},
		{"non-http base url", `forms: f: {base_url: "ftp://x", fields: a: "e.1"}`, ErrCodeSchema},
		{"prefill of unmapped field", `forms: f: {base_url: "https://x.example", fields: a: "e.1", prefill: ["b"]}`, ErrCodeSchema},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.src), "test.cue")
			assertCode(t, err, tt.code)
		})
	}
}

func TestError_Format(t *testing.T) {
	e := &Error{Code: ErrCodeRead, Message: "boom"}
	assert.Equal(t, "C001: boom", e.Error())
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var cfgErr *Error
	require.True(t, errors.As(err, &cfgErr), "expected *config.Error, got %T", err)
	assert.Equal(t, code, cfgErr.Code, cfgErr.Error())
}
