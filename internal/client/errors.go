package client

import (
	"errors"
	"fmt"
)

// Kind classifies a fetch failure. Callers branch on the kind rather than
// inspecting concrete error types.
type Kind string

const (
	// KindInvalidInput marks out-of-contract parameters. Never retried.
	KindInvalidInput Kind = "invalid_input"
	// KindNetwork marks transport-level failures, including timeouts.
	KindNetwork Kind = "network"
	// KindHTTP marks non-2xx upstream responses; Status carries the code.
	KindHTTP Kind = "http"
	// KindInvalidResponse marks non-JSON or structurally malformed bodies.
	KindInvalidResponse Kind = "invalid_response"
	// KindCancelled marks fetches aborted via the caller's context. Not a
	// user-visible error; accumulation must ignore it entirely.
	KindCancelled Kind = "cancelled"
)

// Error is the tagged fetch error variant. Status is set only for KindHTTP.
type Error struct {
	Kind   Kind
	Status int
	Err    error
}

func (e *Error) Error() string {
	switch {
	case e.Kind == KindHTTP:
		return fmt.Sprintf("fetch: upstream returned HTTP %d", e.Status)
	case e.Err != nil:
		return fmt.Sprintf("fetch: %s: %v", e.Kind, e.Err)
	default:
		return fmt.Sprintf("fetch: %s", e.Kind)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf extracts the Kind from err, or the empty Kind for foreign errors.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return ""
}

// IsCancelled reports whether err is a cancelled-fetch outcome.
func IsCancelled(err error) bool { return KindOf(err) == KindCancelled }

func invalidInput(format string, args ...any) error {
	return &Error{Kind: KindInvalidInput, Err: fmt.Errorf(format, args...)}
}
