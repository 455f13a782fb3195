package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Output formats accepted by --format.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Exit codes returned by the caseline binary.
const (
	ExitSuccess      = 0 // command succeeded
	ExitFailure      = 1 // request rejected: unknown goal, invalid list, wrong dialog step
	ExitCommandError = 2 // command could not run: bad config, unreadable input, database open failure
)

// ExitError carries the process exit code out of a command. The message has
// already been written through the OutputFormatter when a command returns it.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *ExitError) Unwrap() error { return e.Err }

// NewExitError returns an ExitError with no underlying cause.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError returns an ExitError around err.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode maps a command error to a process exit code: ExitSuccess for
// nil, the carried code for an ExitError anywhere in the chain, ExitFailure
// otherwise.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if !errors.As(err, &exitErr) {
		return ExitFailure
	}
	return exitErr.Code
}

// CLIResponse is the JSON envelope written for every command in json format.
type CLIResponse struct {
	Status string      `json:"status"` // "ok" or "error"
	Data   interface{} `json:"data,omitempty"`
	Error  *CLIError   `json:"error,omitempty"`
}

// CLIError is the error part of the envelope.
type CLIError struct {
	Code    string      `json:"code"` // E005, C003, UNKNOWN_GOAL, ...
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// OutputFormatter writes command results as text or as the JSON envelope.
// Diagnostics go to ErrWriter so they never interleave with JSON on Writer.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer
	Verbose   bool
}

func (f *OutputFormatter) json() bool { return f.Format == FormatJSON }

// encode writes resp as one line of JSON. HTML escaping is off so form
// links keep their literal "&".
func (f *OutputFormatter) encode(resp CLIResponse) error {
	enc := json.NewEncoder(f.Writer)
	enc.SetEscapeHTML(false)
	return enc.Encode(resp)
}

// Success writes data. In text format strings and Stringers print as is and
// anything else falls back to indented JSON.
func (f *OutputFormatter) Success(data interface{}) error {
	if f.json() {
		return f.encode(CLIResponse{Status: "ok", Data: data})
	}
	switch v := data.(type) {
	case string:
		_, err := fmt.Fprintln(f.Writer, v)
		return err
	case fmt.Stringer:
		_, err := fmt.Fprintln(f.Writer, v.String())
		return err
	}
	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(f.Writer, "%s\n", b)
	return err
}

// Emit writes data as the JSON envelope, or calls text to render it for
// humans. A nil text renderer uses Success.
func (f *OutputFormatter) Emit(data interface{}, text func(w io.Writer) error) error {
	if f.json() || text == nil {
		return f.Success(data)
	}
	return text(f.Writer)
}

// Error writes an error result. Details are shown in text format only with
// --verbose.
func (f *OutputFormatter) Error(code, message string, details interface{}) error {
	if f.json() {
		return f.encode(CLIResponse{
			Status: "error",
			Error:  &CLIError{Code: code, Message: message, Details: details},
		})
	}
	if _, err := fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message); err != nil {
		return err
	}
	if f.Verbose && details != nil {
		_, err := fmt.Fprintf(f.Writer, "Details: %v\n", details)
		return err
	}
	return nil
}

// VerboseLog writes a diagnostic line when --verbose is set.
func (f *OutputFormatter) VerboseLog(format string, args ...interface{}) {
	if !f.Verbose {
		return
	}
	fmt.Fprintf(f.GetErrWriter(), format+"\n", args...)
}

// GetErrWriter returns ErrWriter, or Writer when none is set.
func (f *OutputFormatter) GetErrWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}
