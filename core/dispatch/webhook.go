package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	defaultTimeout        = 8 * time.Second
	defaultMaxAttempts    = 3
	defaultInitialBackoff = 500 * time.Millisecond
	defaultMaxBackoff     = 2 * time.Second
)

// WebhookDispatcher posts confirmed actions to an HTTP automation endpoint.
// Transient failures (429 and 5xx) are retried with capped exponential
// backoff; anything else fails immediately.
type WebhookDispatcher struct {
	url            string
	timeout        time.Duration
	maxAttempts    int
	initialBackoff time.Duration
	maxBackoff     time.Duration

	httpClient *http.Client
	sleep      func(context.Context, time.Duration) error
}

type WebhookOption func(*WebhookDispatcher)

// WithTimeout bounds a single delivery attempt.
func WithTimeout(timeout time.Duration) WebhookOption {
	return func(d *WebhookDispatcher) { d.timeout = timeout }
}

// WithMaxAttempts sets the total number of delivery attempts.
func WithMaxAttempts(attempts int) WebhookOption {
	return func(d *WebhookDispatcher) {
		if attempts > 0 {
			d.maxAttempts = attempts
		}
	}
}

// WithBackoff sets the initial retry delay and its cap.
func WithBackoff(initial, max time.Duration) WebhookOption {
	return func(d *WebhookDispatcher) {
		d.initialBackoff = initial
		d.maxBackoff = max
	}
}

func NewWebhookDispatcher(url string, opts ...WebhookOption) *WebhookDispatcher {
	dispatcher := &WebhookDispatcher{
		url:            url,
		timeout:        defaultTimeout,
		maxAttempts:    defaultMaxAttempts,
		initialBackoff: defaultInitialBackoff,
		maxBackoff:     defaultMaxBackoff,
		httpClient:     &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
		sleep:          sleepContext,
	}
	for _, opt := range opts {
		opt(dispatcher)
	}
	return dispatcher
}

// Dispatch implements Dispatcher. It returns ErrDispatchFailed once the
// retry budget is spent; the caller must not dispatch the same action again.
func (d *WebhookDispatcher) Dispatch(ctx context.Context, request Request) (*Result, error) {
	ctx, span := tracer.Start(ctx, "dispatch action")
	defer span.End()
	span.SetAttributes(
		attribute.String("dispatch.action", request.Action),
		attribute.String("dispatch.session_id", request.SessionID),
	)

	body, err := json.Marshal(request)
	if err != nil {
		err = fmt.Errorf("error marshalling dispatch request: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	backoff := d.initialBackoff
	var lastErr error
	for attempt := 1; attempt <= d.maxAttempts; attempt++ {
		if attempt > 1 {
			if err := d.sleep(ctx, backoff); err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
				return nil, err
			}
			backoff *= 2
			if backoff > d.maxBackoff {
				backoff = d.maxBackoff
			}
		}

		result, retryable, err := d.attempt(ctx, body)
		if err == nil {
			span.SetAttributes(attribute.Int("dispatch.attempts", attempt))
			return result, nil
		}
		lastErr = err
		if !retryable {
			break
		}
		logger.WarnContext(ctx, "Dispatch attempt failed, retrying",
			"action", request.Action, "attempt", attempt, "error", err)
	}

	err = fmt.Errorf("%w: %s: %v", ErrDispatchFailed, request.Action, lastErr)
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return nil, err
}

func (d *WebhookDispatcher) attempt(ctx context.Context, body []byte) (result *Result, retryable bool, err error) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, "POST", d.url, bytes.NewReader(body))
	if err != nil {
		return nil, false, fmt.Errorf("error creating HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		// Network errors and per-attempt timeouts are worth another try.
		return nil, true, fmt.Errorf("error sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return nil, true, fmt.Errorf("non-OK HTTP status: %s", resp.Status)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, false, fmt.Errorf("non-OK HTTP status: %s", resp.Status)
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, false, fmt.Errorf("error reading response body: %w", err)
	}

	parsed := &Result{Success: true}
	if len(bytes.TrimSpace(respBody)) > 0 {
		// Backends that answer with plain text still count as success.
		if err := json.Unmarshal(respBody, parsed); err != nil {
			parsed = &Result{Success: true}
		}
	}
	return parsed, false, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
