package slots

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jinzhu/copier"
	"github.com/odiadev/ruthie-core/core/sanitize"
)

var (
	// ErrFlowAlreadyActive is returned when a second flow is started while
	// one is in progress. Flows are never silently replaced.
	ErrFlowAlreadyActive = errors.New("collection flow already active")
	// ErrEmptySchema is returned for schemas with no fields.
	ErrEmptySchema = errors.New("slot schema has no fields")
	// ErrNotCollecting is returned when input is submitted outside collection.
	ErrNotCollecting = errors.New("no slot awaiting input")
	// ErrAwaitingConfirmation is returned when slot input arrives while the
	// collector expects a yes/no answer to the read-back.
	ErrAwaitingConfirmation = errors.New("collector is awaiting confirmation")
	// ErrNotConfirming is returned when a confirmation answer arrives before
	// all required slots are collected.
	ErrNotConfirming = errors.New("collector is not awaiting confirmation")
)

// SubmitStatus classifies the outcome of submitting raw input for a slot.
type SubmitStatus int

const (
	// StatusAccepted means the value validated; Prompt asks the next slot.
	StatusAccepted SubmitStatus = iota + 1
	// StatusReadyToConfirm means the value validated and every slot is
	// collected; the caller should read back and ask for confirmation.
	StatusReadyToConfirm
	// StatusRejected means validation failed; Prompt re-asks the same slot.
	StatusRejected
	// StatusRetryExhausted means the slot's retry budget is consumed. The
	// caller must escalate to a human; the slot is never silently skipped.
	StatusRetryExhausted
)

type SubmitResult struct {
	Status SubmitStatus
	// Prompt is the next thing to say: the next ask, or the re-ask.
	Prompt string
	// Reason is the natural-language rejection reason, if any.
	Reason string
}

// ConfirmOutcome classifies the caller's answer to the read-back.
type ConfirmOutcome int

const (
	// ConfirmedYes produces the pending action.
	ConfirmedYes ConfirmOutcome = iota + 1
	// ConfirmedNo restarts the flow at the first slot.
	ConfirmedNo
	// ConfirmUnclear means the answer was neither; ask again.
	ConfirmUnclear
)

// Collector walks one schema's slots in declared order, validating each
// value and tracking per-slot retries. One collector instance is one flow.
type Collector struct {
	schema     Schema
	values     map[string]string
	index      int
	retries    map[string]int
	confirming bool
}

func NewCollector(schema Schema) (*Collector, error) {
	if len(schema.Fields) == 0 {
		return nil, ErrEmptySchema
	}

	// Schemas are shared static policy; the collector works on its own copy.
	var owned Schema
	if err := copier.CopyWithOption(&owned, &schema, copier.Option{DeepCopy: true}); err != nil {
		return nil, fmt.Errorf("failed to copy slot schema: %w", err)
	}

	return &Collector{
		schema:  owned,
		values:  map[string]string{},
		retries: map[string]int{},
	}, nil
}

func (c *Collector) Action() string { return c.schema.Action }

// Collecting reports whether a slot is still awaiting input.
func (c *Collector) Collecting() bool { return !c.confirming && c.index < len(c.schema.Fields) }

// Confirming reports whether the collector awaits a yes/no answer.
func (c *Collector) Confirming() bool { return c.confirming }

// NextPrompt returns what to ask next. ready is true once every slot is
// collected and the read-back confirmation should be spoken instead.
func (c *Collector) NextPrompt() (prompt string, ready bool) {
	if c.index >= len(c.schema.Fields) {
		return "", true
	}
	return c.schema.Fields[c.index].Prompt, false
}

// Submit validates raw input for the current slot. On success the collector
// advances and the slot's retry counter is cleared; on failure the counter
// grows until the schema's bound, which surfaces as StatusRetryExhausted.
func (c *Collector) Submit(raw string) (SubmitResult, error) {
	if c.confirming {
		return SubmitResult{}, ErrAwaitingConfirmation
	}
	if c.index >= len(c.schema.Fields) {
		return SubmitResult{}, ErrNotCollecting
	}

	field := c.schema.Fields[c.index]

	if !field.Required && isSkip(raw) {
		return c.accept(field, ""), nil
	}

	value, reason, ok := validateField(field, raw)
	if !ok {
		c.retries[field.Name]++
		if c.retries[field.Name] >= field.maxRetries() {
			logger.Warn("slot retry budget exhausted", "slot", field.Name, "action", c.schema.Action)
			return SubmitResult{Status: StatusRetryExhausted, Reason: reason}, nil
		}
		return SubmitResult{
			Status: StatusRejected,
			Prompt: retryPrompt(field, reason),
			Reason: reason,
		}, nil
	}

	return c.accept(field, value), nil
}

func (c *Collector) accept(field Field, value string) SubmitResult {
	c.values[field.Name] = value
	delete(c.retries, field.Name)
	c.index++

	if prompt, ready := c.NextPrompt(); !ready {
		return SubmitResult{Status: StatusAccepted, Prompt: prompt}
	}

	c.confirming = true
	return SubmitResult{Status: StatusReadyToConfirm}
}

// Readback renders the confirmation read-back with each value in spoken
// form. Phone and email values are expanded per the sanitizer's rules.
func (c *Collector) Readback(sanitizer *sanitize.Sanitizer) string {
	vars := make(map[string]string, len(c.values))
	for _, field := range c.schema.Fields {
		value, ok := c.values[field.Name]
		if !ok {
			continue
		}
		vars[field.Name] = spokenValue(field.Kind, value)
	}

	if c.schema.ConfirmTemplate != "" {
		return sanitizer.Render(c.schema.ConfirmTemplate, vars)
	}

	parts := make([]string, 0, len(c.schema.Fields))
	for _, field := range c.schema.Fields {
		if spoken, ok := vars[field.Name]; ok && spoken != "" {
			parts = append(parts, fmt.Sprintf("%s: %s", strings.ReplaceAll(field.Name, "_", " "), spoken))
		}
	}
	return sanitizer.Sanitize("Let me read that back. " + strings.Join(parts, ". ") + ". Is that correct?")
}

// Confirm interprets the caller's answer to the read-back. Yes assembles the
// pending action; no restarts the flow at the first slot.
func (c *Collector) Confirm(utterance string) (ConfirmOutcome, *PendingAction, error) {
	if !c.confirming {
		return 0, nil, ErrNotConfirming
	}

	switch {
	case isNegative(utterance):
		c.restart()
		return ConfirmedNo, nil, nil
	case isHedged(utterance):
		return ConfirmUnclear, nil, nil
	case isAffirmative(utterance):
		values := make(map[string]string, len(c.values))
		for name, value := range c.values {
			values[name] = value
		}
		return ConfirmedYes, &PendingAction{
			Action:      c.schema.Action,
			Values:      values,
			ConfirmedAt: time.Now(),
		}, nil
	default:
		return ConfirmUnclear, nil, nil
	}
}

func (c *Collector) restart() {
	c.values = map[string]string{}
	c.retries = map[string]int{}
	c.index = 0
	c.confirming = false
}

var affirmatives = []string{"yes", "yeah", "yep", "correct", "that's right", "that is right", "looks good", "sounds good", "confirm", "sure", "go ahead"}

var negatives = []string{"no", "nope", "wrong", "incorrect", "not right", "start over", "change it"}

// Hedges make an otherwise affirmative answer unreliable ("not sure",
// "I don't think so"); the read-back is asked again.
var hedges = []string{"not", "don't", "do not", "can't", "cannot", "maybe"}

func isAffirmative(utterance string) bool { return matchesAny(utterance, affirmatives) }
func isNegative(utterance string) bool    { return matchesAny(utterance, negatives) }
func isHedged(utterance string) bool      { return matchesAny(utterance, hedges) }

func isSkip(raw string) bool {
	return matchesAny(raw, []string{"skip", "no thanks", "nothing", "rather not"})
}

// matchesAny reports whether any phrase occurs in the utterance. Single
// words match on word boundaries so "no" does not match inside "noon".
func matchesAny(utterance string, phrases []string) bool {
	lowered := strings.ToLower(strings.TrimSpace(utterance))
	tokens := strings.FieldsFunc(lowered, func(r rune) bool {
		return !(r >= 'a' && r <= 'z') && !(r >= '0' && r <= '9') && r != '\''
	})

	for _, phrase := range phrases {
		if strings.Contains(phrase, " ") || strings.Contains(phrase, "'") {
			if strings.Contains(lowered, phrase) {
				return true
			}
			continue
		}
		for _, token := range tokens {
			if token == phrase {
				return true
			}
		}
	}
	return false
}
