package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/isleshocky77/crmsetup/internal/install"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Installation or validation failure
	ExitCommandError = 2 // Command error (bad configuration, lock held, missing paths)
)

// ExitError represents an error with a specific exit code.
// Use this to return errors with meaningful exit codes from CLI commands.
type ExitError struct {
	Code    int    // Exit code (use ExitFailure or ExitCommandError)
	Message string // Error message
	Err     error  // Underlying error (optional)
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitSuccess for nil and ExitFailure if the error is not an ExitError.
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

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // Separate writer for verbose/diagnostic output (defaults to Writer)
	Verbose   bool
}

// CLIResponse is the standard JSON response format for CLI output.
type CLIResponse struct {
	Status string      `json:"status"`          // "ok" or "error"
	Data   interface{} `json:"data,omitempty"`  // success payload
	Error  *CLIError   `json:"error,omitempty"` // error details
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string      `json:"code"`              // error kind or validation code
	Message string      `json:"message"`           // human-readable message
	Details interface{} `json:"details,omitempty"` // additional context
}

var (
	okMark   = color.New(color.FgGreen).SprintFunc()
	failMark = color.New(color.FgRed).SprintFunc()
	warnText = color.New(color.FgYellow)
)

// Success outputs a successful result in the configured format.
func (f *OutputFormatter) Success(data interface{}) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "ok",
			Data:   data,
		})
	}

	// Human-readable text output
	fmt.Fprintln(f.Writer, data)
	return nil
}

// Error outputs an error in the configured format.
func (f *OutputFormatter) Error(code, message string, details interface{}) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "error",
			Error: &CLIError{
				Code:    code,
				Message: message,
				Details: details,
			},
		})
	}

	// Human-readable error
	fmt.Fprintf(f.Writer, "%s Error [%s]: %s\n", failMark("✗"), code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(f.Writer, "Details: %v\n", details)
	}
	return nil
}

// Warn prints a highlighted warning line in text mode. JSON output carries
// warnings inside the payload instead.
func (f *OutputFormatter) Warn(format string, args ...interface{}) {
	if f.Format == "json" {
		return
	}
	warnText.Fprintf(f.Writer, "! "+format+"\n", args...)
}

// VerboseLog outputs a message only if verbose mode is enabled.
// Uses ErrWriter if set, otherwise falls back to Writer.
// When format is JSON, verbose logs go to ErrWriter to avoid corrupting JSON output.
func (f *OutputFormatter) VerboseLog(format string, args ...interface{}) {
	if !f.Verbose {
		return
	}
	fmt.Fprintf(f.GetErrWriter(), format+"\n", args...)
}

// GetErrWriter returns the appropriate writer for diagnostic output.
// Returns ErrWriter if set, otherwise Writer.
func (f *OutputFormatter) GetErrWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}

// Report prints an installation report. JSON mode wraps it in the
// standard response; a failed run is reported with status "error" and the
// report as details.
func (f *OutputFormatter) Report(r install.Report) error {
	if f.Format == "json" {
		if r.Succeeded() {
			return f.Success(r)
		}
		return f.Error(errorCode(r.Err), r.Cause, r)
	}

	w := f.Writer
	fmt.Fprintf(w, "Installation %s\n", r.RunID)
	for _, rec := range r.Stages {
		if rec.Stage == install.StageComplete {
			continue
		}
		mark := okMark("✓")
		if rec.Status != install.StatusOK {
			mark = failMark("✗")
		}
		fmt.Fprintf(w, "  %s %s\n", mark, rec.Stage)
	}

	if len(r.TablesCreated) > 0 {
		fmt.Fprintf(w, "Tables created: %s\n", strings.Join(r.TablesCreated, ", "))
	}
	if len(r.RelationshipTablesCreated) > 0 {
		fmt.Fprintf(w, "Relationship tables created: %s\n", strings.Join(r.RelationshipTablesCreated, ", "))
	}
	for _, s := range r.Skipped {
		f.Warn("skipped %s: %s", s.Module, s.Reason)
	}
	fmt.Fprintf(w, "Administrator: %s\n", r.Admin)
	if r.SchedulersSeeded > 0 {
		fmt.Fprintf(w, "Schedulers seeded: %d\n", r.SchedulersSeeded)
	}

	if !r.Succeeded() {
		fmt.Fprintf(w, "%s Failed in %s: %s\n", failMark("✗"), r.FailedStage, r.Cause)
		return nil
	}
	fmt.Fprintf(w, "%s Installation complete (%ds)\n", okMark("✓"), int(r.Elapsed.Seconds()))
	return nil
}

// errorCode names the error kind of an installer error.
func errorCode(err error) string {
	var ierr *install.Error
	if errors.As(err, &ierr) {
		return string(ierr.Kind)
	}
	return "ERROR"
}
