package llms

// Message is a single response from an LLM.
type Message struct {
	Role    MessageRole
	Content string
}

type MessageRole string

const (
	MessageRoleSystem    MessageRole = "system"
	MessageRoleUser      MessageRole = "user"
	MessageRoleAssistant MessageRole = "assistant"
)

// Turn is a single turn taken in the conversation. In the user's turn the
// content is the prompt, in the assistant's turn it is the reply.
type Turn struct {
	Role    TurnRole
	Content string
}

type TurnRole string

const (
	TurnRoleUser      TurnRole = "user"
	TurnRoleAssistant TurnRole = "assistant"
)
