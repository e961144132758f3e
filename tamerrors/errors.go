// Package tamerrors defines the error taxonomy shared by every layer of the
// TAM intranet client. Callers are expected to match with errors.Is against
// the sentinel values or with errors.As against the typed errors.
package tamerrors

import (
	"errors"
	"fmt"
)

// Sentinel errors for errors.Is() matching.
var (
	// ErrAuthentication means credentials were rejected even after the single
	// re-login attempt. Fatal for the session.
	ErrAuthentication = errors.New("authentication failed")

	// ErrMissingPermission means the session is valid but the acting user
	// lacks rights for the write target. Fatal to that call only.
	ErrMissingPermission = errors.New("missing permission")

	// ErrMalformedDate means a date literal or an embedded-epoch wrapper
	// could not be parsed.
	ErrMalformedDate = errors.New("malformed date")

	// ErrIncompleteResponse means the intranet payload is missing a
	// structurally required field.
	ErrIncompleteResponse = errors.New("incomplete response")

	// ErrTransport covers connection-level failures below HTTP semantics.
	ErrTransport = errors.New("transport error")

	// ErrTransportTimeout is a transport failure caused by the per-call
	// timeout. Never retried by this library.
	ErrTransportTimeout = errors.New("transport timeout")

	// ErrBadStatus means the intranet answered with an unexpected HTTP or
	// payload status code.
	ErrBadStatus = errors.New("bad status")

	// ErrUserIDNotMatching means the login username could not be matched to
	// a person id in the school resources.
	ErrUserIDNotMatching = errors.New("user id not matching")
)

// AuthenticationError reports a failed login exchange. Op names the step of
// the exchange that failed (login, csrf, resources, retry).
type AuthenticationError struct {
	Op  string
	Err error
}

func (e *AuthenticationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("authentication failed during %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("authentication failed during %s", e.Op)
}

func (e *AuthenticationError) Unwrap() error { return e.Err }

func (e *AuthenticationError) Is(target error) bool { return target == ErrAuthentication }

// MissingPermissionError reports a write the acting account may not perform.
type MissingPermissionError struct {
	Op          string
	TimetableID int
}

func (e *MissingPermissionError) Error() string {
	return fmt.Sprintf("%s: missing permission for timetable entry %d", e.Op, e.TimetableID)
}

func (e *MissingPermissionError) Is(target error) bool { return target == ErrMissingPermission }

// MalformedDateError names the offending literal so callers can see what the
// intranet (or the user) actually sent.
type MalformedDateError struct {
	Value string
}

func (e *MalformedDateError) Error() string {
	return fmt.Sprintf("malformed date %q", e.Value)
}

func (e *MalformedDateError) Is(target error) bool { return target == ErrMalformedDate }

// IncompleteResponseError names the entity type and the missing field. The
// likely cause is an upstream contract change, so it is never retried and no
// default is fabricated.
type IncompleteResponseError struct {
	Entity string
	Field  string
}

func (e *IncompleteResponseError) Error() string {
	return fmt.Sprintf("incomplete %s payload: missing field %q", e.Entity, e.Field)
}

func (e *IncompleteResponseError) Is(target error) bool { return target == ErrIncompleteResponse }

// TransportError wraps a network-level failure. Timeout marks failures caused
// by the caller-configured per-call timeout.
type TransportError struct {
	Op      string
	Timeout bool
	Err     error
}

func (e *TransportError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("%s: transport timeout: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s: transport error: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

func (e *TransportError) Is(target error) bool {
	if target == ErrTransport {
		return true
	}
	return e.Timeout && target == ErrTransportTimeout
}

// BadStatusError reports an unexpected HTTP status or an error code inside a
// JSON envelope. Endpoint names the logical operation that was running.
type BadStatusError struct {
	Endpoint string
	Status   int
}

func (e *BadStatusError) Error() string {
	return fmt.Sprintf("%s: bad status %d", e.Endpoint, e.Status)
}

func (e *BadStatusError) Is(target error) bool { return target == ErrBadStatus }
