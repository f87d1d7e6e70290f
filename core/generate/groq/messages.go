package groq

import (
	"github.com/odiadev/ruthie-core/core/generate"
)

type message struct {
	Role    messageRole `json:"role"`
	Content string      `json:"content"`
}

type messageRole string

const (
	messageRoleSystem    messageRole = "system"
	messageRoleUser      messageRole = "user"
	messageRoleAssistant messageRole = "assistant"
)

func toMessages(instructions string, history []generate.Turn, utterance string) []message {
	messages := []message{}
	if instructions != "" {
		messages = append(messages, message{
			Role:    messageRoleSystem,
			Content: instructions,
		})
	}
	for _, turn := range history {
		if turn.Text == "" {
			continue
		}

		role := messageRoleUser
		if turn.Role == generate.RoleAssistant {
			role = messageRoleAssistant
		}
		messages = append(messages, message{Role: role, Content: turn.Text})
	}
	if utterance != "" {
		messages = append(messages, message{Role: messageRoleUser, Content: utterance})
	}
	return messages
}
