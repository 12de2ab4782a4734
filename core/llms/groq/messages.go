package groq

import (
	"github.com/koscakluka/duolog-core/core/llms"
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

func toMessages(instructions string, turns []llms.Turn) []message {
	messages := []message{}
	if instructions != "" {
		messages = append(messages, message{
			Role:    messageRoleSystem,
			Content: instructions,
		})
	}
	for _, turn := range turns {
		switch turn.Role {
		case llms.TurnRoleUser:
			messages = append(messages, message{
				Role:    messageRoleUser,
				Content: turn.Content,
			})
		case llms.TurnRoleAssistant:
			if turn.Content == "" {
				continue
			}
			messages = append(messages, message{
				Role:    messageRoleAssistant,
				Content: turn.Content,
			})
		}
	}
	return messages
}
