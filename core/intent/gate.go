// Package intent decides whether an utterance authorizes a side-effecting
// action. The gate is deliberately deterministic: only an explicit action
// request can start a collection flow, so no generation backend and no
// ambiguous phrasing can ever trigger a dispatch by itself.
package intent

import (
	"strings"
)

// Class partitions utterances by what they authorize.
type Class int

const (
	// ClassGreeting is small talk and salutations. Never side-effecting.
	ClassGreeting Class = iota + 1
	// ClassInformational is a question or statement answered with plain
	// speech. Never side-effecting.
	ClassInformational
	// ClassActionRequest explicitly asks for an action; only this class may
	// start a collection flow or reach the dispatcher.
	ClassActionRequest
	// ClassAmbiguous gets a clarifying question and nothing else.
	ClassAmbiguous
)

func (c Class) String() string {
	switch c {
	case ClassGreeting:
		return "greeting"
	case ClassInformational:
		return "informational"
	case ClassActionRequest:
		return "action_request"
	case ClassAmbiguous:
		return "ambiguous"
	}
	return "unknown"
}

// Session-control actions recognized by the gate. They are routed by the
// session itself, not through a collection flow or the dispatcher.
const (
	ActionTransferToHuman = "transfer_to_human"
	ActionEndCall         = "end_call"
)

// Classification is the gate's verdict for one utterance.
type Classification struct {
	Class Class
	// Action is the requested action type, set only for ClassActionRequest.
	Action string
}

// Context is the session state the gate may consult. The gate never mutates it.
type Context struct {
	// Greeted reports whether the opening greeting was already spoken.
	Greeted bool
}

// Rule maps trigger phrases to an action type. Single-word phrases match on
// word boundaries; multi-word phrases match as substrings.
type Rule struct {
	Action  string
	Phrases []string
}

type Gate struct {
	rules []Rule
}

type Option func(*Gate)

// WithRules replaces the built-in action trigger rules. Earlier rules win.
func WithRules(rules []Rule) Option {
	return func(g *Gate) { g.rules = rules }
}

func NewGate(opts ...Option) *Gate {
	gate := &Gate{rules: defaultRules()}
	for _, opt := range opts {
		opt(gate)
	}
	return gate
}

// Classify assigns one utterance to a class. Rules are checked most-specific
// first so "reschedule my appointment" never reads as a new booking.
func (g *Gate) Classify(utterance string, _ Context) Classification {
	lowered := strings.ToLower(strings.TrimSpace(utterance))
	tokens := tokenize(lowered)
	if len(tokens) == 0 {
		return Classification{Class: ClassAmbiguous}
	}

	// A question about an action is not a request for it: "what do I need
	// to book?" stays informational. The caller can always restate intent.
	if !isQuestionShape(tokens) {
		for _, rule := range g.rules {
			if matchesPhrases(lowered, tokens, rule.Phrases) {
				return Classification{Class: ClassActionRequest, Action: rule.Action}
			}
		}
	}

	if isGreeting(lowered, tokens) {
		return Classification{Class: ClassGreeting}
	}

	if isActionNounOnly(tokens) {
		// "appointment", "my booking" and similar name an action domain
		// without asking for anything; a clarifying question follows.
		return Classification{Class: ClassAmbiguous}
	}

	return Classification{Class: ClassInformational}
}

func defaultRules() []Rule {
	return []Rule{
		{Action: ActionTransferToHuman, Phrases: []string{
			"speak to a human", "talk to a human", "speak to a person", "talk to a person",
			"speak to someone", "talk to someone", "real person", "human agent", "connect me",
		}},
		{Action: ActionEndCall, Phrases: []string{
			"goodbye", "bye", "hang up", "end the call", "that's all", "that is all", "we're done",
		}},
		{Action: "reschedule_appointment", Phrases: []string{
			"reschedule", "move my appointment", "move my booking", "change my appointment",
			"change my booking", "push back my appointment",
		}},
		{Action: "cancel_appointment", Phrases: []string{
			"cancel",
		}},
		{Action: "book_appointment", Phrases: []string{
			"book", "schedule an appointment", "schedule a call", "schedule a meeting",
			"make an appointment", "set up an appointment", "set up a meeting", "set up a call",
		}},
		{Action: "send_whatsapp", Phrases: []string{
			"whatsapp",
		}},
		{Action: "send_sms", Phrases: []string{
			"sms", "text me", "send a text", "send me a text",
		}},
		{Action: "send_email", Phrases: []string{
			"send an email", "send me an email", "email me", "send email",
		}},
	}
}

var greetingTokens = map[string]bool{
	"hi": true, "hello": true, "hey": true, "greetings": true,
	"morning": true, "afternoon": true, "evening": true, "thanks": true, "thank": true,
}

func isGreeting(lowered string, tokens []string) bool {
	if len(tokens) > 5 {
		return false
	}
	for _, token := range tokens {
		if greetingTokens[token] {
			return true
		}
	}
	return strings.HasPrefix(lowered, "good morning") ||
		strings.HasPrefix(lowered, "good afternoon") ||
		strings.HasPrefix(lowered, "good evening")
}

var actionNouns = map[string]bool{
	"appointment": true, "booking": true, "meeting": true, "email": true, "text": true, "message": true,
}

func isActionNounOnly(tokens []string) bool {
	sawNoun := false
	for _, token := range tokens {
		switch {
		case actionNouns[token]:
			sawNoun = true
		case questionTokens[token]:
			return false
		}
	}
	return sawNoun && len(tokens) <= 4
}

var questionTokens = map[string]bool{
	"what": true, "when": true, "where": true, "who": true, "why": true, "how": true,
	"do": true, "does": true, "can": true, "could": true, "is": true, "are": true,
}

// Question openers that read as inquiry rather than polite request. "Can
// you book me in" is a request; "what do I need to book" is not.
var inquiryOpeners = map[string]bool{
	"what": true, "when": true, "where": true, "who": true, "why": true, "how": true,
	"do": true, "does": true, "is": true, "are": true,
}

func isQuestionShape(tokens []string) bool {
	return len(tokens) > 0 && inquiryOpeners[tokens[0]]
}

func tokenize(lowered string) []string {
	return strings.FieldsFunc(lowered, func(r rune) bool {
		return !(r >= 'a' && r <= 'z') && !(r >= '0' && r <= '9') && r != '\''
	})
}

func matchesPhrases(lowered string, tokens []string, phrases []string) bool {
	for _, phrase := range phrases {
		if strings.Contains(phrase, " ") {
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
