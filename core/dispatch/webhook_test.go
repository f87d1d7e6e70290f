package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func instantSleep(ctx context.Context, _ time.Duration) error {
	return ctx.Err()
}

func testRequest() Request {
	return Request{
		Action:    "book_appointment",
		SessionID: "session-1",
		Slots:     map[string]string{"client_name": "Jane Doe"},
		Timestamp: time.Date(2025, 9, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestDispatchPostsRequestBody(t *testing.T) {
	var got Request
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q, want application/json", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}
		w.Write([]byte(`{"success": true, "summary": "Booked for Monday."}`))
	}))
	defer server.Close()

	dispatcher := NewWebhookDispatcher(server.URL)
	result, err := dispatcher.Dispatch(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}

	if !result.Success || result.Summary != "Booked for Monday." {
		t.Fatalf("unexpected result: %+v", result)
	}
	if got.Action != "book_appointment" || got.SessionID != "session-1" {
		t.Fatalf("unexpected request payload: %+v", got)
	}
	if got.Slots["client_name"] != "Jane Doe" {
		t.Fatalf("slots not forwarded: %+v", got.Slots)
	}
}

func TestDispatchRetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch calls.Add(1) {
		case 1:
			http.Error(w, "busy", http.StatusServiceUnavailable)
		case 2:
			http.Error(w, "slow down", http.StatusTooManyRequests)
		default:
			w.Write([]byte(`{"success": true}`))
		}
	}))
	defer server.Close()

	dispatcher := NewWebhookDispatcher(server.URL)
	dispatcher.sleep = instantSleep

	result, err := dispatcher.Dispatch(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}
	if !result.Success {
		t.Fatalf("unexpected result: %+v", result)
	}
	if got := calls.Load(); got != 3 {
		t.Fatalf("expected 3 attempts, got %d", got)
	}
}

func TestDispatchStopsAfterMaxAttempts(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer server.Close()

	dispatcher := NewWebhookDispatcher(server.URL, WithMaxAttempts(2))
	dispatcher.sleep = instantSleep

	_, err := dispatcher.Dispatch(context.Background(), testRequest())
	if err == nil {
		t.Fatal("expected dispatch to fail")
	}
	if !errors.Is(err, ErrDispatchFailed) {
		t.Fatalf("expected ErrDispatchFailed, got %v", err)
	}
	if got := calls.Load(); got != 2 {
		t.Fatalf("expected 2 attempts, got %d", got)
	}
}

func TestDispatchDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "bad request", http.StatusBadRequest)
	}))
	defer server.Close()

	dispatcher := NewWebhookDispatcher(server.URL)
	dispatcher.sleep = instantSleep

	if _, err := dispatcher.Dispatch(context.Background(), testRequest()); err == nil {
		t.Fatal("expected dispatch to fail")
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("expected a single attempt for a 400, got %d", got)
	}
}

func TestDispatchAcceptsNonJSONSuccessBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	dispatcher := NewWebhookDispatcher(server.URL)
	result, err := dispatcher.Dispatch(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}
	if !result.Success {
		t.Fatalf("expected a plain-text 200 to count as success, got %+v", result)
	}
}
