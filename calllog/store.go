// Package calllog persists finished calls to Postgres. Logging is best
// effort: a failed insert is recorded and dropped, it never affects live
// sessions.
package calllog

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	dialogue "github.com/odiadev/ruthie-core/core"
)

const schema = `
CREATE TABLE IF NOT EXISTS call_logs (
	id          TEXT PRIMARY KEY,
	caller      TEXT NOT NULL,
	started_at  TIMESTAMPTZ NOT NULL,
	ended_at    TIMESTAMPTZ NOT NULL,
	end_reason  TEXT NOT NULL,
	transcript  JSONB NOT NULL
)`

const insertCall = `
INSERT INTO call_logs (id, caller, started_at, ended_at, end_reason, transcript)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (id) DO NOTHING`

// Store writes one row per finished call.
type Store struct {
	pool *pgxpool.Pool
}

// New connects to Postgres and ensures the call_logs table exists.
func New(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ensure call_logs table: %w", err)
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() { s.pool.Close() }

// Record persists one finished call. The caller identity is stored masked;
// full numbers live only in the dispatched actions, never in our logs.
func (s *Store) Record(ctx context.Context, summary dialogue.Summary) error {
	ctx, span := tracer.Start(ctx, "record call log")
	defer span.End()
	span.SetAttributes(attribute.String("call.id", summary.ID))

	transcript, err := transcriptJSON(summary.Turns)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	if _, err := s.pool.Exec(ctx, insertCall,
		summary.ID,
		dialogue.MaskPhone(summary.CallerID),
		summary.StartedAt,
		summary.EndedAt,
		summary.Reason,
		transcript,
	); err != nil {
		err = fmt.Errorf("failed to insert call log: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

// Hook adapts the store to the session manager's close hook. Failures are
// logged and swallowed.
func (s *Store) Hook(ctx context.Context, timeout time.Duration) func(dialogue.Summary) {
	return func(summary dialogue.Summary) {
		recordCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		if err := s.Record(recordCtx, summary); err != nil {
			logger.ErrorContext(recordCtx, "Failed to record call log",
				"call_id", summary.ID, "error", err)
		}
	}
}

type transcriptEntry struct {
	Role string    `json:"role"`
	Text string    `json:"text"`
	At   time.Time `json:"at"`
}

func transcriptJSON(turns []dialogue.Turn) ([]byte, error) {
	entries := make([]transcriptEntry, 0, len(turns))
	for _, turn := range turns {
		entries = append(entries, transcriptEntry{
			Role: string(turn.Role),
			Text: turn.Text,
			At:   turn.At,
		})
	}
	data, err := json.Marshal(entries)
	if err != nil {
		return nil, fmt.Errorf("failed to encode transcript: %w", err)
	}
	return data, nil
}
