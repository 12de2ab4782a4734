package llms

// PromptOptions carry the context for a prompt beyond the prompt itself.
type PromptOptions struct {
	Instructions string
	Turns        []Turn
}

// PromptOption is a function that can be used to modify the prompt options.
type PromptOption func(*PromptOptions)

// WithSystemPrompt is a PromptOption that sets the system prompt for the
// prompt.
// Repeating this option will overwrite the previous system prompt.
func WithSystemPrompt(prompt string) PromptOption {
	return func(opts *PromptOptions) {
		opts.Instructions = prompt
	}
}

// WithTurns is a PromptOption that adds turns information to the prompt.
// Repeating this option will sequentially add more turns.
func WithTurns(turns ...Turn) PromptOption {
	return func(opts *PromptOptions) {
		opts.Turns = append(opts.Turns, turns...)
	}
}

// ToMessages flattens the instructions and history into a message list in the
// order the completion APIs expect.
func ToMessages(instructions string, turns []Turn) []Message {
	var messages []Message
	if instructions != "" {
		messages = append(messages, Message{
			Role:    MessageRoleSystem,
			Content: instructions,
		})
	}
	for _, turn := range turns {
		switch turn.Role {
		case TurnRoleUser:
			messages = append(messages, Message{
				Role:    MessageRoleUser,
				Content: turn.Content,
			})
		case TurnRoleAssistant:
			if turn.Content == "" {
				continue
			}
			messages = append(messages, Message{
				Role:    MessageRoleAssistant,
				Content: turn.Content,
			})
		}
	}
	return messages
}
