// Package dispatch defines the boundary through which queued mutations are
// replayed against the remote API, plus the production HTTP implementation.
package dispatch

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/finbridge/ledgerbridge/internal/queue"
)

// Dispatcher performs one remote mutation. The engine is agnostic to
// authentication, serialization and transport; this single call shape is
// all it needs.
type Dispatcher interface {
	Dispatch(ctx context.Context, method queue.Method, endpoint string, body json.RawMessage) error
}

// Func adapts a plain function to the Dispatcher interface.
type Func func(ctx context.Context, method queue.Method, endpoint string, body json.RawMessage) error

// Dispatch implements Dispatcher.
func (f Func) Dispatch(ctx context.Context, method queue.Method, endpoint string, body json.RawMessage) error {
	return f(ctx, method, endpoint, body)
}

// TransientError marks a dispatch failure assumed recoverable: timeouts,
// connection resets, 5xx responses. The coordinator retries these with
// backoff.
type TransientError struct {
	Status int // HTTP status, 0 for transport-level failures
	Err    error
}

func (e TransientError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("transient dispatch failure (status %d): %v", e.Status, e.Err)
	}
	return fmt.Sprintf("transient dispatch failure: %v", e.Err)
}

func (e TransientError) Unwrap() error { return e.Err }

// PermanentError marks a 4xx-class rejection the server will never accept.
// NOTE: the coordinator currently retries these identically to transient
// failures up to the same ceiling (see DESIGN.md); the distinction exists
// so callers and logs can tell the two apart.
type PermanentError struct {
	Status int
	Body   string
}

func (e PermanentError) Error() string {
	return fmt.Sprintf("mutation rejected by server (status %d): %s", e.Status, e.Body)
}
