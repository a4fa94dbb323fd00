// Package dpr is the client-side engine for Daily Progress Reports. It
// owns the canonical DPR view-model, enforces submission and status
// rules before any network traffic, reconciles the editable worker-log
// mirrors against server state, and supports read-only time travel
// through version snapshots.
package dpr

import "fmt"

// ValidationError is a client-side precondition failure. It is raised
// before any request is issued and is always recoverable by the user
// correcting their input.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation: " + e.Reason
	}
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Reason)
}

// RequestError is any failed network call. Local edits survive it so
// the user can retry; nothing retries automatically.
type RequestError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *RequestError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s: server returned %d", e.Op, e.StatusCode)
}

func (e *RequestError) Unwrap() error { return e.Err }

// NotFoundError means the DPR or log no longer exists. Terminal for the
// current view; the caller should navigate away rather than retry.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}
