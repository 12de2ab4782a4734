package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/koscakluka/duolog-core/core/llms"
)

func Prompt(
	_ context.Context,
	apiKey string,
	model string,
	prompt string,
	systemPrompt string,
	opts ...llms.PromptOption,
) (*llms.Message, error) {
	options := llms.PromptOptions{Instructions: systemPrompt}
	for _, opt := range opts {
		opt(&options)
	}

	messages := toOpenAIMessages(options.Instructions, options.Turns)
	messages = append(messages, openAIMessage{
		Type:    messageTypeMessage,
		Role:    messageRoleUser,
		Content: prompt,
	})

	reqBody := requestBody{
		Model:  model,
		Input:  messages,
		Stream: false,
	}

	requestBodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("error marshalling JSON: %w", err)
	}

	req, err := http.NewRequest("POST", url, bytes.NewBuffer(requestBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("error creating HTTP request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)
	// TODO: Add org and project headers

	client := &http.Client{}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error sending request: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		// TODO: Retry depending on status, send back a message to the user
		// to indicate that something is going on
		return nil, fmt.Errorf("non-OK HTTP status: %s", resp.Status)
		// TODO: OpenAI provides a body with the error message
	}

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading response body: %w", err)
	}
	defer resp.Body.Close()

	var responseBody generalResponseBody
	if err := json.Unmarshal(bodyBytes, &responseBody); err != nil {
		return nil, fmt.Errorf("error unmarshalling response body: %w", err)
	}

	response := llms.Message{}

	for _, output := range responseBody.Output {
		var outputType generalResponseBodyOutputType
		if err := json.Unmarshal(output, &outputType); err != nil {
			return nil, fmt.Errorf("error unmarshalling output type: %w", err)
		}

		switch outputType.Type {
		case generalResponseBodyOutputTypeMessage:
			var outputMessage generalResponseBodyOutputMessage
			if err := json.Unmarshal(output, &outputMessage); err != nil {
				return nil, fmt.Errorf("error unmarshalling output message: %w", err)
			}
			response.Role = llms.MessageRoleAssistant
			for _, content := range outputMessage.Content {
				var contentType generalResponseBodyOutputMessageType
				if err := json.Unmarshal(content, &contentType); err != nil {
					return nil, fmt.Errorf("error unmarshalling output message content: %w", err)
				}
				switch contentType.Type {
				case "output_text":
					var outputText generalResponseBodyOutputMessageContentOutputText
					if err := json.Unmarshal(content, &outputText); err != nil {
						return nil, fmt.Errorf("error unmarshalling output message content output text: %w", err)
					}
					response.Content = outputText.Text
				case "refusal":
					var outputRefusal generalResponseBodyOutputMessageContentRefusal
					if err := json.Unmarshal(content, &outputRefusal); err != nil {
						return nil, fmt.Errorf("error unmarshalling output message content refusal: %w", err)
					}
					response.Content = outputRefusal.Refusal
				}
			}

		case generalResponseBodyOutputTypeReasoning:
			// TODO: Handle reasoning
		}
	}

	return &response, nil
}

type requestBody struct {
	Model     string                `json:"model"`
	Input     []openAIMessage       `json:"input"`
	Stream    bool                  `json:"stream"`
	Reasoning *requestBodyReasoning `json:"reasoning,omitempty"`
}

type requestBodyReasoning struct {
	Effort  *string `json:"effort,omitempty"`
	Summary *string `json:"summary,omitempty"`
}

type generalResponseBody struct {
	Output []json.RawMessage `json:"output"`
	// TODO: Find a way to pass usage in the response
	// Usage  responseBodyUsage `json:"usage"`
}

type generalResponseBodyOutputType struct {
	// Type is the type of the output item.
	Type generalResponseBodyOutputTypeType `json:"type"`
}

type generalResponseBodyOutputBase struct {
	// ID is the unique ID of the output item.
	ID string `json:"id"`
}

type generalResponseBodyOutputMessage struct {
	generalResponseBodyOutputBase
	// Content is the content of the output message.
	Content []json.RawMessage `json:"content,omitempty"`
}

type generalResponseBodyOutputMessageType struct {
	// Type is the type of the output message. 'output_text' or 'refusal'.
	Type string `json:"type"`
}

// generalResponseBodyOutputMessageContentOutputText is text output from the
// model.
type generalResponseBodyOutputMessageContentOutputText struct {
	// Text is the text output from the model.
	Text string `json:"text"`
}

// generalResponseBodyOutputMessageContentRefusal is a refusal from the model.
type generalResponseBodyOutputMessageContentRefusal struct {
	// Refusal is the refusal explanation from the model.
	Refusal string `json:"refusal"`
}

type generalResponseBodyOutputTypeType string

const (
	generalResponseBodyOutputTypeMessage   generalResponseBodyOutputTypeType = "message"
	generalResponseBodyOutputTypeReasoning generalResponseBodyOutputTypeType = "reasoning"
)

// responseBodyUsage represents token usage details including input tokens,
// output tokens, a breakdown of output tokens, and the total tokens used.
type responseBodyUsage struct {
	// InputTokens represents the number of input tokens.
	InputTokens int `json:"input_tokens"`
	// InputTokensDetails represents a detailed breakdown of the input tokens.
	InputTokensDetails *struct {
		// CachedTokens represents the number of tokens that were retrieved from the
		// cache. [More on prompt caching](https://platform.openai.com/docs/guides/prompt-caching)
		CachedTokens int `json:"cached_tokens"`
	} `json:"input_tokens_details"`
	// OutputTokens represents the number of output tokens.
	OutputTokens int `json:"output_tokens"`
	// OutputTokensDetails represents a detailed breakdown of the output tokens.
	OutputTokensDetails *struct {
		// ReasoningTokens represents the number of reasoning tokens.
		ReasoningTokens int `json:"reasoning_tokens"`
	} `json:"output_tokens_details"`
	// TotalTokens represents the total number of tokens used.
	TotalTokens int `json:"total_tokens"`
}
