package openai

import "github.com/koscakluka/duolog-core/core/llms"

type openAIMessage struct {
	Type messageType `json:"type"`

	Role    messageRole `json:"role,omitempty"`
	Content string      `json:"content,omitempty"`
}

type messageRole string

const (
	messageRoleSystem    messageRole = "system"
	messageRoleDeveloper messageRole = "developer"
	messageRoleUser      messageRole = "user"
	messageRoleAssistant messageRole = "assistant"
)

type messageType string

const (
	messageTypeMessage messageType = "message"
)

func toOpenAIMessages(instructions string, turns []llms.Turn) []openAIMessage {
	messages := []openAIMessage{}
	if instructions != "" {
		messages = append(messages, openAIMessage{
			Role:    messageRoleDeveloper,
			Type:    messageTypeMessage,
			Content: instructions,
		})
	}

	for _, turn := range turns {
		switch turn.Role {
		case llms.TurnRoleUser:
			messages = append(messages, openAIMessage{
				Type:    messageTypeMessage,
				Role:    messageRoleUser,
				Content: turn.Content,
			})
		case llms.TurnRoleAssistant:
			if turn.Content == "" {
				continue
			}
			messages = append(messages, openAIMessage{
				Type:    messageTypeMessage,
				Role:    messageRoleAssistant,
				Content: turn.Content,
			})
		}
	}
	return messages
}
