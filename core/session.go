// Package dialogue turns a stream of recognized speech events into
// state-consistent conversation turns for one phone call. Each session owns
// its own event loop; sessions never share mutable state, so concurrent
// calls need no cross-session locking.
package dialogue

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/odiadev/ruthie-core/core/dispatch"
	"github.com/odiadev/ruthie-core/core/events"
	"github.com/odiadev/ruthie-core/core/generate"
	"github.com/odiadev/ruthie-core/core/intent"
	"github.com/odiadev/ruthie-core/core/sanitize"
	"github.com/odiadev/ruthie-core/core/slots"
)

// ErrSessionClosed is returned for operations on a session whose call has
// already ended.
var ErrSessionClosed = errors.New("session closed")

// Session is the per-call conversation controller. All mutation happens on
// the session's own event loop; Push is the only way in.
type Session struct {
	ID       string
	CallerID string

	mu        sync.Mutex
	state     State
	startedAt time.Time
	endedAt   time.Time
	endReason string

	voice      Voice
	gate       *intent.Gate
	generator  generate.Generator
	dispatcher dispatch.Dispatcher
	sanitizer  *sanitize.Sanitizer
	schemas    map[string]slots.Schema
	phrases    Phrases
	observer   func(events.Event)
	onClose    func(Summary)

	collector *slots.Collector
	history   *turnHistory
	queue     *eventQueue
	silence   *silenceMonitor

	// clarifyStreak counts consecutive turns the gate could not classify.
	// Only the event loop touches it.
	clarifyStreak int

	silenceThresholds []time.Duration
	queueCapacity     int
	maxTurns          int

	closeOnce sync.Once
	done      chan struct{}
}

// Summary is the session's closing record, handed to the close hook.
type Summary struct {
	ID        string
	CallerID  string
	StartedAt time.Time
	EndedAt   time.Time
	Reason    string
	Turns     []Turn
}

// NewSession creates a session for one call and starts its event loop. The
// loop stops when the session closes or ctx is cancelled.
func NewSession(ctx context.Context, callerID string, voice Voice, opts ...SessionOption) (*Session, error) {
	if voice == nil {
		return nil, errors.New("session requires a voice transport")
	}

	s := &Session{
		ID:        uuid.NewString(),
		CallerID:  callerID,
		state:     StateGreeting,
		startedAt: time.Now(),
		voice:     voice,
		gate:      intent.NewGate(),
		schemas:   slots.DefaultSchemas(),
		phrases:   DefaultPhrases(),
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.sanitizer == nil {
		sanitizer, err := sanitize.New(sanitize.Policy{})
		if err != nil {
			return nil, fmt.Errorf("failed to build default sanitizer: %w", err)
		}
		s.sanitizer = sanitizer
	}

	s.history = newTurnHistory(s.maxTurns)
	s.queue = newEventQueue(s.queueCapacity)
	s.silence = newSilenceMonitor(s.silenceThresholds, func(tier events.Tier) {
		s.queue.Push(events.NewSilenceTier(tier))
	})

	go s.run(ctx)
	return s, nil
}

// Push delivers one event into the session's queue. Safe to call from any
// goroutine; events on a closed session are discarded.
func (s *Session) Push(event events.Event) {
	s.queue.Push(event)
}

// Close ends the session from the application side.
func (s *Session) Close(reason string) {
	s.queue.Push(events.NewSessionEnded(reason))
}

// Done is closed once the event loop has fully stopped.
func (s *Session) Done() <-chan struct{} { return s.done }

// State returns the session's current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// History returns a copy of the recorded turns.
func (s *Session) History() []Turn { return s.history.Snapshot() }

func (s *Session) run(ctx context.Context) {
	defer close(s.done)
	defer s.shutdown(ctx, "loop stopped")

	for {
		event, ok := s.queue.Pop(ctx)
		if !ok {
			return
		}
		s.handle(ctx, event)
	}
}

func (s *Session) handle(ctx context.Context, event events.Event) {
	ctx, span := tracer.Start(ctx, "handle session event")
	defer span.End()
	span.SetAttributes(
		attribute.String("session.id", s.ID),
		attribute.String("event.kind", string(event.Kind())),
		attribute.String("session.state", s.State().String()),
	)
	s.emit(event)

	switch e := event.(type) {
	case events.SessionStarted:
		s.handleStart(ctx)
	case events.UserSpeechStarted:
		s.handleBargeIn(ctx)
	case events.TranscriptPartial:
		s.silence.Reset()
	case events.TranscriptFinal:
		s.handleFinal(ctx, e.Text)
	case events.SilenceTier:
		s.handleSilence(ctx, e.Tier)
	case events.SessionEnded:
		s.shutdown(ctx, e.Reason)
	default:
		logger.WarnContext(ctx, "Unhandled session event", "kind", event.Kind())
	}
}

func (s *Session) handleStart(ctx context.Context) {
	if s.State() != StateGreeting {
		return
	}
	logger.InfoContext(ctx, "Call started", "session_id", s.ID, "caller", MaskPhone(s.CallerID))
	s.speak(ctx, s.phrases.Greeting)
	s.setState(ctx, StateListening)
	s.silence.Reset()
}

func (s *Session) handleBargeIn(ctx context.Context) {
	s.silence.Reset()
	if err := s.voice.ClearSpeech(ctx); err != nil {
		s.recordError(ctx, fmt.Errorf("failed to clear speech on barge-in: %w", err))
	}
}

func (s *Session) handleFinal(ctx context.Context, text string) {
	state := s.State()
	if state.Terminal() {
		return
	}

	s.silence.Pause()
	defer func() {
		if !s.State().Terminal() {
			s.silence.Reset()
		}
	}()

	priorTurns := s.history.generatorTurns()
	s.history.Add(RoleCaller, text)

	// A transfer request wins even in the middle of a collection flow.
	classification := s.gate.Classify(text, intent.Context{Greeted: state != StateGreeting})
	if classification.Class == intent.ClassActionRequest && classification.Action == intent.ActionTransferToHuman {
		s.transfer(ctx)
		return
	}

	switch state {
	case StateConfirming:
		s.handleConfirmation(ctx, text)
	case StateCollecting:
		s.handleSlotInput(ctx, text)
	default:
		s.handleOpenTurn(ctx, text, priorTurns, classification)
	}
}

func (s *Session) handleOpenTurn(ctx context.Context, text string, priorTurns []generate.Turn, classification intent.Classification) {
	if s.State() == StateGreeting {
		// The caller spoke before the opening line; greet and carry on.
		s.speak(ctx, s.phrases.Greeting)
		s.setState(ctx, StateListening)
	}

	if classification.Class != intent.ClassAmbiguous {
		s.clarifyStreak = 0
	}

	switch classification.Class {
	case intent.ClassActionRequest:
		if classification.Action == intent.ActionEndCall {
			s.sayGoodbye(ctx)
			return
		}
		s.startFlow(ctx, classification.Action)

	case intent.ClassAmbiguous:
		// Unusable turns share the slot retry bound; past it the caller is
		// handed to a human instead of looping on the clarify phrase.
		s.clarifyStreak++
		if s.clarifyStreak >= slots.DefaultMaxRetries {
			logger.WarnContext(ctx, "Repeated unusable input, escalating",
				"session_id", s.ID, "streak", s.clarifyStreak)
			s.transfer(ctx)
			return
		}
		s.setState(ctx, StateResponding)
		s.speak(ctx, s.phrases.Clarify)
		s.setState(ctx, StateListening)

	default:
		// Greetings and informational turns both get a generated reply.
		s.respond(ctx, text, priorTurns)
	}
}

func (s *Session) respond(ctx context.Context, text string, priorTurns []generate.Turn) {
	s.setState(ctx, StateResponding)
	defer s.setState(ctx, StateListening)

	if s.generator == nil {
		s.speak(ctx, s.phrases.Unavailable)
		return
	}

	reply, err := s.generator.Generate(ctx, priorTurns, text)
	if err != nil {
		s.recordError(ctx, fmt.Errorf("failed to generate reply: %w", err))
		s.speak(ctx, s.phrases.Unavailable)
		return
	}
	if reply.Suggestion != nil {
		// Advisory only. Flows start from the intent gate, never from here.
		logger.DebugContext(ctx, "Generator suggested an action",
			"session_id", s.ID, "action", reply.Suggestion.Action)
	}
	s.speak(ctx, reply.Text)
}

func (s *Session) startFlow(ctx context.Context, action string) {
	if s.collector != nil {
		s.recordError(ctx, fmt.Errorf("cannot start %s: %w", action, slots.ErrFlowAlreadyActive))
		s.speak(ctx, "Let us finish what we started first.")
		return
	}

	schema, ok := s.schemas[action]
	if !ok {
		logger.WarnContext(ctx, "No schema for requested action", "session_id", s.ID, "action", action)
		s.setState(ctx, StateResponding)
		s.speak(ctx, s.phrases.Clarify)
		s.setState(ctx, StateListening)
		return
	}

	collector, err := slots.NewCollector(schema)
	if err != nil {
		s.recordError(ctx, fmt.Errorf("failed to start %s flow: %w", action, err))
		s.speak(ctx, s.phrases.Unavailable)
		return
	}

	s.collector = collector
	s.setState(ctx, StateCollecting)
	logger.InfoContext(ctx, "Collection flow started", "session_id", s.ID, "action", action)

	prompt, _ := collector.NextPrompt()
	s.speak(ctx, prompt)
}

func (s *Session) handleSlotInput(ctx context.Context, text string) {
	result, err := s.collector.Submit(text)
	if err != nil {
		s.recordError(ctx, fmt.Errorf("failed to submit slot value: %w", err))
		s.speak(ctx, s.phrases.Unavailable)
		return
	}

	switch result.Status {
	case slots.StatusAccepted, slots.StatusRejected:
		s.speak(ctx, result.Prompt)

	case slots.StatusRetryExhausted:
		logger.WarnContext(ctx, "Slot retries exhausted, escalating",
			"session_id", s.ID, "action", s.collector.Action())
		s.transfer(ctx)

	case slots.StatusReadyToConfirm:
		s.setState(ctx, StateConfirming)
		s.speak(ctx, s.collector.Readback(s.sanitizer))
	}
}

func (s *Session) handleConfirmation(ctx context.Context, text string) {
	outcome, pending, err := s.collector.Confirm(text)
	if err != nil {
		s.recordError(ctx, fmt.Errorf("failed to interpret confirmation: %w", err))
		s.speak(ctx, s.phrases.ConfirmRetry)
		return
	}

	switch outcome {
	case slots.ConfirmedNo:
		s.setState(ctx, StateCollecting)
		prompt, _ := s.collector.NextPrompt()
		s.speak(ctx, strings.TrimSpace(s.phrases.FlowAbandoned+" "+prompt))

	case slots.ConfirmUnclear:
		s.speak(ctx, s.phrases.ConfirmRetry)

	case slots.ConfirmedYes:
		s.execute(ctx, *pending)
	}
}

func (s *Session) execute(ctx context.Context, pending slots.PendingAction) {
	s.setState(ctx, StateExecuting)
	s.collector = nil
	defer s.setState(ctx, StateListening)

	if s.dispatcher == nil {
		s.emit(events.NewDispatchResult(pending.Action, false, ""))
		s.speak(ctx, s.phrases.ActionFailed)
		return
	}

	result, err := s.dispatcher.Dispatch(ctx, dispatch.Request{
		Action:    pending.Action,
		SessionID: s.ID,
		Slots:     pending.Values,
		Timestamp: pending.ConfirmedAt,
	})
	if err != nil || !result.Success {
		if err != nil {
			s.recordError(ctx, fmt.Errorf("failed to dispatch %s: %w", pending.Action, err))
		}
		s.emit(events.NewDispatchResult(pending.Action, false, ""))
		s.speak(ctx, s.phrases.ActionFailed)
		return
	}

	s.emit(events.NewDispatchResult(pending.Action, true, result.Summary))
	logger.InfoContext(ctx, "Action dispatched", "session_id", s.ID, "action", pending.Action)
	if result.Summary != "" {
		s.speak(ctx, result.Summary)
	} else {
		s.speak(ctx, s.phrases.ActionDone)
	}
}

func (s *Session) handleSilence(ctx context.Context, tier events.Tier) {
	if s.State().Terminal() {
		return
	}
	logger.InfoContext(ctx, "Silence tier reached", "session_id", s.ID, "tier", tier.String())

	switch tier {
	case events.TierCheckIn:
		s.speak(ctx, s.phrases.CheckIn)
	case events.TierReassure:
		s.speak(ctx, s.phrases.Reassure)
	case events.TierTransfer:
		s.transfer(ctx)
	}
}

func (s *Session) transfer(ctx context.Context) {
	s.setState(ctx, StateTransferring)
	s.silence.Pause()
	s.speak(ctx, s.phrases.TransferNotice)
	if err := s.voice.Transfer(ctx); err != nil {
		s.recordError(ctx, fmt.Errorf("failed to transfer call: %w", err))
	}
}

func (s *Session) sayGoodbye(ctx context.Context) {
	s.speak(ctx, s.phrases.Goodbye)
	if err := s.voice.End(ctx); err != nil {
		s.recordError(ctx, fmt.Errorf("failed to end call: %w", err))
	}
	s.shutdown(ctx, "caller goodbye")
}

// speak sanitizes and synthesizes one line, recording it as an agent turn.
// Nothing reaches the transport without passing through here.
func (s *Session) speak(ctx context.Context, text string) {
	clean := s.sanitizer.Sanitize(text)
	if clean == "" {
		clean = s.sanitizer.Fallback()
	}
	if err := s.voice.Speak(ctx, clean); err != nil {
		s.recordError(ctx, fmt.Errorf("failed to speak: %w", err))
	}
	s.history.Add(RoleAgent, clean)
}

func (s *Session) setState(ctx context.Context, to State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == to {
		return
	}
	if !canTransition(s.state, to) {
		logger.ErrorContext(ctx, "Refused illegal state transition",
			"session_id", s.ID, "from", s.state.String(), "to", to.String())
		return
	}
	s.state = to
}

func (s *Session) emit(event events.Event) {
	if s.observer != nil {
		s.observer(event)
	}
}

func (s *Session) recordError(ctx context.Context, err error) {
	span := trace.SpanFromContext(ctx)
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	logger.ErrorContext(ctx, "Session error", "session_id", s.ID, "error", err)
}

func (s *Session) shutdown(ctx context.Context, reason string) {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.state = StateClosed
		s.endedAt = time.Now()
		s.endReason = reason
		s.mu.Unlock()

		s.silence.Close()
		s.queue.Close()
		s.collector = nil
		logger.InfoContext(ctx, "Call ended",
			"session_id", s.ID, "caller", MaskPhone(s.CallerID), "reason", reason)

		if s.onClose != nil {
			s.onClose(Summary{
				ID:        s.ID,
				CallerID:  s.CallerID,
				StartedAt: s.startedAt,
				EndedAt:   s.endedAt,
				Reason:    reason,
				Turns:     s.history.Snapshot(),
			})
		}
	})
}

// MaskPhone hides all but the last four digits of a phone number so caller
// identities never land in logs in full.
func MaskPhone(phone string) string {
	trimmed := strings.TrimSpace(phone)
	if len(trimmed) <= 4 {
		return "***"
	}
	return strings.Repeat("*", len(trimmed)-4) + trimmed[len(trimmed)-4:]
}
