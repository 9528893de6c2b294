package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/roach88/shelterpair/internal/config"
	"github.com/roach88/shelterpair/internal/ingest"
	"github.com/roach88/shelterpair/internal/pairing"
	"github.com/roach88/shelterpair/internal/pipeline"
	"github.com/roach88/shelterpair/internal/store"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Pairing failure or failed scenarios
	ExitCommandError = 2 // Command error (bad flags, config, paths, database)
)

// Error codes used in JSON responses.
const (
	ErrCodeGeneric       = "E001" // Generic/unknown error
	ErrCodeConfigInvalid = "E002" // Config failed to load or validate
	ErrCodeNoInput       = "E003" // No intake or outcome files
	ErrCodeInputRead     = "E004" // Input file could not be read or cleaned
	ErrCodeNotFound      = "E005" // Run or path not found
	ErrCodePairing       = "E006" // Pairing rejected the input
	ErrCodeStore         = "E007" // Database error
)

// ExitError carries the process exit code for a failed command. Commands
// return it after reporting the failure themselves.
type ExitError struct {
	Code    int    // ExitFailure or ExitCommandError
	Message string // reported message
	Err     error  // optional cause
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *ExitError) Unwrap() error { return e.Err }

// NewExitError returns an ExitError without a cause.
func NewExitError(code int, message string) *ExitError {
	return WrapExitError(code, message, nil)
}

// WrapExitError returns an ExitError wrapping err.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode returns the code of the first ExitError in err's chain,
// ExitSuccess for nil and ExitFailure otherwise.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// classify maps an error to its response code and exit code. Pairing
// rejections are data failures; everything else is a command error.
func classify(err error) (string, int) {
	var pe *pairing.PairingError
	switch {
	case errors.As(err, &pe):
		return ErrCodePairing, ExitFailure
	case config.IsValidationError(err):
		return ErrCodeConfigInvalid, ExitCommandError
	case errors.Is(err, pipeline.ErrNoInput):
		return ErrCodeNoInput, ExitCommandError
	case errors.Is(err, store.ErrNotFound):
		return ErrCodeNotFound, ExitCommandError
	case errors.Is(err, ingest.ErrMissingColumn):
		return ErrCodeInputRead, ExitCommandError
	}
	var de *ingest.DateError
	if errors.As(err, &de) {
		return ErrCodeInputRead, ExitCommandError
	}
	return ErrCodeGeneric, ExitCommandError
}

// OutputFormatter writes command results as text or as a JSON CLIResponse.
// Diagnostics go to ErrWriter, or to Writer when ErrWriter is nil. RunID,
// when set, is stamped on every JSON response.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer
	Verbose   bool
	RunID     string
}

// CLIResponse is the JSON envelope of every command result. Status is "ok"
// or "error".
type CLIResponse struct {
	Status string    `json:"status"`
	Data   any       `json:"data,omitempty"`
	Error  *CLIError `json:"error,omitempty"`
	RunID  string    `json:"run_id,omitempty"`
}

// CLIError describes a failed command in a CLIResponse.
type CLIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

func (f *OutputFormatter) emit(resp CLIResponse) error {
	resp.RunID = f.RunID
	return json.NewEncoder(f.Writer).Encode(resp)
}

// Success writes data as an "ok" response, or prints it in text mode.
func (f *OutputFormatter) Success(data any) error {
	if f.Format != "json" {
		_, err := fmt.Fprintln(f.Writer, data)
		return err
	}
	return f.emit(CLIResponse{Status: "ok", Data: data})
}

// Error writes an "error" response. Text mode prints details only when
// verbose.
func (f *OutputFormatter) Error(code, message string, details any) error {
	if f.Format == "json" {
		return f.emit(CLIResponse{
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

// Fail reports err through the formatter and returns the ExitError the
// command should return.
func (f *OutputFormatter) Fail(message string, err error) error {
	code, exit := classify(err)
	var re *pipeline.RunError
	if errors.As(err, &re) {
		f.RunID = re.RunID
	}
	var details any
	var pe *pairing.PairingError
	if errors.As(err, &pe) {
		details = pairingDetails(pe)
	}
	if outErr := f.Error(code, fmt.Sprintf("%s: %v", message, err), details); outErr != nil {
		return outErr
	}
	return WrapExitError(exit, message, err)
}

func pairingDetails(pe *pairing.PairingError) map[string]string {
	d := map[string]string{"kind": string(pe.Code)}
	if pe.EntityID != "" {
		d["entity_id"] = pe.EntityID
	}
	if pe.Timestamp != "" {
		d["timestamp"] = pe.Timestamp
	}
	for k, v := range pe.Details {
		d[k] = v
	}
	return d
}

// VerboseLog prints a diagnostic line to GetErrWriter when verbose.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if f.Verbose {
		fmt.Fprintf(f.GetErrWriter(), format+"\n", args...)
	}
}

// GetErrWriter returns ErrWriter, falling back to Writer.
func (f *OutputFormatter) GetErrWriter() io.Writer {
	if f.ErrWriter == nil {
		return f.Writer
	}
	return f.ErrWriter
}
