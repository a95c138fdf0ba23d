package vault

import (
	"errors"
	"fmt"
)

// Sentinel errors for the core operations. Callers distinguish outcomes with
// errors.Is; everything else is an internal failure.
var (
	// ErrNotFound means no record with the requested id exists.
	ErrNotFound = errors.New("record not found")

	// ErrNotAuthorized means the record exists but belongs to another owner.
	// This is always surfaced, never silently downgraded.
	ErrNotAuthorized = errors.New("caller does not own this record")

	// ErrDecryption means a token is malformed, tampered with, or was
	// produced under a different key. Batch operations skip the affected
	// record; single-record operations surface it.
	ErrDecryption = errors.New("cannot decrypt secret")

	// ErrImportFormat means a snapshot payload is structurally invalid.
	// It is fatal for the whole import call.
	ErrImportFormat = errors.New("malformed snapshot payload")
)

// ValidationError reports a rejected input field. It is recoverable: the
// caller is expected to correct the field and retry.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
