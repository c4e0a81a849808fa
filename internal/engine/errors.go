package engine

import (
	"errors"
	"fmt"

	"github.com/m3rciful/mediabot/internal/media"
	"github.com/m3rciful/mediabot/internal/upload"
)

var (
	// ErrIllegalEvent marks an event that has no transition from the current step.
	// It is never returned by Handle.
	ErrIllegalEvent = errors.New("engine: event not allowed in current step")
	// ErrNoPendingMedia is returned when a step expects a pending record that is missing.
	ErrNoPendingMedia = errors.New("engine: no pending media")
)

// LookupError wraps a failed user lookup during login.
type LookupError struct {
	UserID string
	Err    error
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("lookup user %q: %v", e.UserID, e.Err)
}

func (e *LookupError) Unwrap() error { return e.Err }

// Code reports the failure kind for handler logs.
func (e *LookupError) Code() string { return "lookup_error" }

// PersistError wraps a failed RecordStore write.
type PersistError struct {
	Collection string
	ID         string
	Err        error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("persist %s/%s: %v", e.Collection, e.ID, e.Err)
}

func (e *PersistError) Unwrap() error { return e.Err }

func (e *PersistError) Code() string { return "persist_error" }

// FailureKind classifies err for logs.
func FailureKind(err error) string {
	var (
		lookupErr  *LookupError
		uploadErr  *upload.Error
		persistErr *PersistError
	)
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrIllegalEvent):
		return "illegal_event"
	case errors.Is(err, media.ErrUserNotFound):
		return "lookup_not_found"
	case errors.As(err, &lookupErr):
		return "lookup_error"
	case errors.As(err, &uploadErr):
		return "upload_error"
	case errors.As(err, &persistErr):
		return "persist_error"
	case errors.Is(err, ErrNoPendingMedia):
		return "no_pending_media"
	}
	return "transport"
}

func recoverable(err error) bool {
	switch FailureKind(err) {
	case "lookup_not_found", "lookup_error", "upload_error", "persist_error", "no_pending_media":
		return true
	}
	return false
}
