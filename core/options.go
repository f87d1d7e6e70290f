package dialogue

import (
	"time"

	"github.com/odiadev/ruthie-core/core/dispatch"
	"github.com/odiadev/ruthie-core/core/events"
	"github.com/odiadev/ruthie-core/core/generate"
	"github.com/odiadev/ruthie-core/core/intent"
	"github.com/odiadev/ruthie-core/core/sanitize"
	"github.com/odiadev/ruthie-core/core/slots"
)

type SessionOption func(*Session)

// WithGenerator sets the reply generation backend. Without one the session
// answers informational turns with the unavailable phrase.
func WithGenerator(generator generate.Generator) SessionOption {
	return func(s *Session) { s.generator = generator }
}

// WithDispatcher sets the action execution backend.
func WithDispatcher(dispatcher dispatch.Dispatcher) SessionOption {
	return func(s *Session) { s.dispatcher = dispatcher }
}

// WithSanitizer replaces the default speech sanitizer.
func WithSanitizer(sanitizer *sanitize.Sanitizer) SessionOption {
	return func(s *Session) { s.sanitizer = sanitizer }
}

// WithGate replaces the default intent gate.
func WithGate(gate *intent.Gate) SessionOption {
	return func(s *Session) { s.gate = gate }
}

// WithSchemas replaces the default action slot schemas.
func WithSchemas(schemas map[string]slots.Schema) SessionOption {
	return func(s *Session) { s.schemas = schemas }
}

// WithPhrases replaces the canned session lines.
func WithPhrases(phrases Phrases) SessionOption {
	return func(s *Session) { s.phrases = phrases }
}

// WithSilenceThresholds sets the escalation tiers, ascending, measured from
// the last user-speech event.
func WithSilenceThresholds(thresholds []time.Duration) SessionOption {
	return func(s *Session) { s.silenceThresholds = thresholds }
}

// WithQueueCapacity bounds the inbound event queue.
func WithQueueCapacity(capacity int) SessionOption {
	return func(s *Session) { s.queueCapacity = capacity }
}

// WithMaxTurns bounds the recorded turn history.
func WithMaxTurns(maxTurns int) SessionOption {
	return func(s *Session) { s.maxTurns = maxTurns }
}

// WithObserver registers a callback that sees every event the session
// processes or emits, on the session's own loop. Keep it fast.
func WithObserver(observer func(events.Event)) SessionOption {
	return func(s *Session) { s.observer = observer }
}

// withCloseHook is set by the manager to collect the closing summary.
func withCloseHook(hook func(Summary)) SessionOption {
	return func(s *Session) { s.onClose = hook }
}
