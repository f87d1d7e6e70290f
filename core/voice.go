package dialogue

import "context"

// Voice is the outbound side of the transport: everything the session can
// do to the call. Speak receives sanitized text only; the session never
// hands raw generator or template output to the transport.
type Voice interface {
	// Speak synthesizes text to the caller.
	Speak(ctx context.Context, text string) error
	// ClearSpeech interrupts in-flight synthesis when the caller barges in.
	ClearSpeech(ctx context.Context) error
	// Transfer hands the call to a human.
	Transfer(ctx context.Context) error
	// End hangs up the call.
	End(ctx context.Context) error
}

// Phrases are the canned lines the session speaks on its own authority.
// They pass through the sanitizer like everything else.
type Phrases struct {
	Greeting       string
	CheckIn        string
	Reassure       string
	TransferNotice string
	Clarify        string
	Unavailable    string
	Goodbye        string
	ActionDone     string
	ActionFailed   string
	FlowAbandoned  string
	ConfirmRetry   string
}

// DefaultPhrases returns the built-in canned lines.
func DefaultPhrases() Phrases {
	return Phrases{
		Greeting:       "Hello, this is Ruthie. How can I help you today?",
		CheckIn:        "Are you still there?",
		Reassure:       "Take your time. I am still here whenever you are ready.",
		TransferNotice: "Let me connect you to one of our team members. Please hold.",
		Clarify:        "Could you tell me a bit more about what you would like to do?",
		Unavailable:    "I am sorry, I did not catch that. Could you say it again?",
		Goodbye:        "Thank you for calling. Goodbye.",
		ActionDone:     "All done. Is there anything else I can help you with?",
		ActionFailed:   "I was not able to complete that request right now. Is there anything else I can help you with?",
		FlowAbandoned:  "Alright, we can start over. What would you like to change?",
		ConfirmRetry:   "Sorry, I need a clear yes or no.",
	}
}
