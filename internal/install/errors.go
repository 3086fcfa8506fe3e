package install

import (
	"context"
	"errors"
	"fmt"
)

// ErrorKind categorizes installation errors.
type ErrorKind string

const (
	// KindConfiguration indicates invalid or missing configuration.
	KindConfiguration ErrorKind = "CONFIGURATION_ERROR"

	// KindProvisioning indicates the database could not be created or
	// opened.
	KindProvisioning ErrorKind = "DATABASE_PROVISIONING_ERROR"

	// KindSchemaDefinition indicates a malformed vardef. The module is
	// skipped; this kind only appears in skip records and logs.
	KindSchemaDefinition ErrorKind = "SCHEMA_DEFINITION_ERROR"

	// KindSchema indicates a DDL or metadata failure.
	KindSchema ErrorKind = "SCHEMA_ERROR"

	// KindSeedData indicates default data could not be written.
	KindSeedData ErrorKind = "SEED_DATA_ERROR"

	// KindTimeout indicates the run exceeded its deadline or was
	// cancelled.
	KindTimeout ErrorKind = "TIMEOUT"
)

// Error is a fatal installation error.
type Error struct {
	// Kind identifies the error category.
	Kind ErrorKind

	// Stage is the stage that failed. Filled in by the sequencer.
	Stage Stage

	// Subject names the module, table or file involved, if any.
	Subject string

	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := string(e.Kind)
	if e.Stage != "" {
		msg += fmt.Sprintf(" in %s", e.Stage)
	}
	if e.Subject != "" {
		msg += fmt.Sprintf(" (%s)", e.Subject)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsKind reports whether err is an *Error of the given kind.
// Uses errors.As to handle wrapped errors.
func IsKind(err error, kind ErrorKind) bool {
	var ie *Error
	if errors.As(err, &ie) {
		return ie.Kind == kind
	}
	return false
}

func newError(kind ErrorKind, subject string, err error) *Error {
	return &Error{Kind: kind, Subject: subject, Err: err}
}

// classify turns any stage error into an *Error for stage. Context
// errors become KindTimeout; errors without a kind get fallback.
func classify(stage Stage, fallback ErrorKind, err error) *Error {
	var ie *Error
	if errors.As(err, &ie) {
		out := *ie
		if out.Stage == "" {
			out.Stage = stage
		}
		if isContextErr(out.Err) {
			out.Kind = KindTimeout
		}
		return &out
	}
	kind := fallback
	if isContextErr(err) {
		kind = KindTimeout
	}
	return &Error{Kind: kind, Stage: stage, Err: err}
}

func isContextErr(err error) bool {
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
}
