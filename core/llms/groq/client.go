package groq

import (
	"context"
	"os"

	"github.com/koscakluka/duolog-core/core/llms"
)

const defaultModel = "llama-3.3-70b-versatile"

// Client is a reusable handle over the package-level prompting functions, for
// callers that hold one model and key for the lifetime of a conversation.
type Client struct {
	apiKey string
	model  string
}

type ClientOption func(*Client)

// WithAPIKey overrides the key taken from the GROQ_API_KEY environment
// variable.
func WithAPIKey(apiKey string) ClientOption {
	return func(c *Client) {
		c.apiKey = apiKey
	}
}

// WithModel overrides the default chat model.
func WithModel(model string) ClientOption {
	return func(c *Client) {
		c.model = model
	}
}

func NewClient(opts ...ClientOption) *Client {
	client := Client{
		apiKey: os.Getenv("GROQ_API_KEY"),
		model:  defaultModel,
	}
	for _, opt := range opts {
		opt(&client)
	}
	return &client
}

func (c *Client) Prompt(ctx context.Context, prompt string, opts ...llms.PromptOption) (*llms.Message, error) {
	return Prompt(ctx, c.apiKey, c.model, prompt, "", opts...)
}

func (c *Client) PromptWithStream(ctx context.Context, prompt *string, opts ...llms.PromptOption) llms.Stream {
	return PromptWithStream(ctx, c.apiKey, c.model, prompt, "", opts...)
}
