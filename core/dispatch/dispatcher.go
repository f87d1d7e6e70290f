// Package dispatch hands confirmed actions to the automation backend. A
// dispatch is the only side-effecting step in a call, so it runs exactly once
// per confirmed action and reports success or failure back to the session
// rather than retrying forever.
package dispatch

import (
	"context"
	"errors"
	"time"
)

// ErrDispatchFailed marks a dispatch that exhausted its retry budget or was
// rejected outright. The session turns it into a spoken failure notice.
var ErrDispatchFailed = errors.New("dispatch failed")

// Request carries one confirmed action to the backend.
type Request struct {
	Action    string            `json:"action"`
	SessionID string            `json:"session_id"`
	Slots     map[string]string `json:"slots"`
	Timestamp time.Time         `json:"timestamp"`
}

// Result is the backend's answer. Summary, when present, is spoken to the
// caller after sanitization.
type Result struct {
	Success bool   `json:"success"`
	Summary string `json:"summary,omitempty"`
}

// Dispatcher executes a confirmed action. Implementations must be safe for
// concurrent use across sessions and must respect ctx cancellation.
type Dispatcher interface {
	Dispatch(ctx context.Context, request Request) (*Result, error)
}

// DispatcherFunc adapts a function to the Dispatcher interface.
type DispatcherFunc func(ctx context.Context, request Request) (*Result, error)

func (f DispatcherFunc) Dispatch(ctx context.Context, request Request) (*Result, error) {
	return f(ctx, request)
}
