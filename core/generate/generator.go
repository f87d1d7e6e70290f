// Package generate defines the reply-generation boundary. The orchestration
// core calls a Generator at most once per turn and treats its output as
// untrusted text: everything it returns passes through the sanitizer before
// it can be spoken, and an action suggestion alone never starts a flow.
package generate

import "context"

// Role identifies the speaker of a history turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one utterance of conversation history handed to the generator.
type Turn struct {
	Role Role
	Text string
}

// ActionSuggestion is the generator's advisory hint that the caller seems to
// be asking for an action. The intent gate remains the only authority that
// can start a flow.
type ActionSuggestion struct {
	Action string
}

// Reply is the generator's output for one turn.
type Reply struct {
	Text       string
	Suggestion *ActionSuggestion
}

// Generator produces a conversational reply from history plus the latest
// utterance. Implementations must respect ctx cancellation and return
// bounded-time errors rather than hang.
type Generator interface {
	Generate(ctx context.Context, history []Turn, utterance string) (*Reply, error)
}

// GeneratorFunc adapts a function to the Generator interface.
type GeneratorFunc func(ctx context.Context, history []Turn, utterance string) (*Reply, error)

func (f GeneratorFunc) Generate(ctx context.Context, history []Turn, utterance string) (*Reply, error) {
	return f(ctx, history, utterance)
}
