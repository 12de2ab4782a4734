package openai

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/koscakluka/duolog-core/core/llms"
)

const (
	url = "https://api.openai.com/v1/responses"

	eventPrefix = "event:"
	chunkPrefix = "data:"
)

func PromptWithStream(
	_ context.Context,
	apiKey string,
	model string,
	prompt *string,
	systemPrompt string,
	opts ...llms.PromptOption,
) *Stream {
	options := llms.PromptOptions{Instructions: systemPrompt}
	for _, opt := range opts {
		opt(&options)
	}

	messages := toOpenAIMessages(options.Instructions, options.Turns)
	if prompt != nil {
		messages = append(messages, openAIMessage{
			Type:    messageTypeMessage,
			Role:    messageRoleUser,
			Content: *prompt,
		})
	}

	return &Stream{
		apiKey:   apiKey,
		model:    model,
		messages: messages,
	}
}

type Stream struct {
	apiKey string

	model    string
	messages []openAIMessage
}

func (s *Stream) Chunks(ctx context.Context) func(func(llms.StreamChunk, error) bool) {
	return func(yield func(llms.StreamChunk, error) bool) {
		reqBody := requestBody{
			Model:  s.model,
			Input:  s.messages,
			Stream: true,
			// TODO: Make sure reasoning can be tweaked and activated
			// OpenAI requires the organisation to be approved before this can be
			// used. Probably some way of caching the result of the response would
			// be useful and skiping reasoning in those cases instead of failing.
			// Reasoning: &requestBodyReasoning{
			// 	Effort:  utils.Ptr("low"),
			// 	Summary: utils.Ptr("auto"),
			// },
		}

		requestBodyBytes, err := json.Marshal(reqBody)
		if err != nil {
			yield(nil, fmt.Errorf("error marshalling JSON: %w", err))
			return
		}

		req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(requestBodyBytes))
		if err != nil {
			yield(nil, fmt.Errorf("error creating HTTP request: %w", err))
			return
		}

		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
		// TODO: Add org and project headers

		client := &http.Client{}
		resp, err := client.Do(req)
		if err != nil {
			yield(nil, fmt.Errorf("error sending request: %w", err))
			return
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			// TODO: Retry depending on status, send back a message to the user
			// to indicate that something is going on
			yield(nil, fmt.Errorf("non-OK HTTP status: %s", resp.Status))
			return
		}

		usage := llms.Usage{}
		lapTime := time.Now()

		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			chunk := strings.TrimSpace(strings.TrimPrefix(scanner.Text(), chunkPrefix))

			if len(chunk) == 0 {
				continue
			}

			if !strings.HasPrefix(chunk, "event:") {
				// HACK: We probably shouldn't, but let's see if this breaks
				// anything
				continue
			}

			event := strings.TrimSpace(strings.TrimPrefix(chunk, eventPrefix))

			scanner.Scan()
			chunk = strings.TrimSpace(strings.TrimPrefix(scanner.Text(), chunkPrefix))

			switch streamingEventType(event) {
			case streamingEventResponseCreated:
				lapTime = time.Now()

			case streamingEventResponseQueued:
				lapTime = time.Now()

			case streamingEventResponseInProgress:
				usage.QueueTime = time.Since(lapTime).Seconds()
				lapTime = time.Now()

			case streamingEventResponseOutputItemAdded:
				usage.InputProcessingTime = time.Since(lapTime).Seconds()
				lapTime = time.Now()

			case streamingEventResponseOutputTextDelta:
				var responseBody streamingBodyResponseTextDelta
				if err := json.Unmarshal([]byte(chunk), &responseBody); err != nil {
					if !yield(nil, fmt.Errorf("error unmarshalling JSON: %w", err)) {
						return
					}
					continue
				}
				if !yield(StreamContentChunk{finishReason: nil, content: responseBody.Delta}, nil) {
					return
				}

			case streamingEventResponseCompleted:
				usage.OutputProcessingTime = time.Since(lapTime).Seconds()
				usage.TotalTime = usage.InputProcessingTime + usage.OutputProcessingTime

				var responseBody streamingBodyResponseCompleted
				if err := json.Unmarshal([]byte(chunk), &responseBody); err != nil {
					if !yield(StreamUsageChunk{usage: usage}, nil) {
						return
					}
					if !yield(nil, fmt.Errorf("error unmarshalling JSON: %w", err)) {
						return
					}
					continue
				}

				if responseBody.Response.Usage != nil {
					usage.InputTokens = responseBody.Response.Usage.InputTokens
					usage.OutputTokens = responseBody.Response.Usage.OutputTokens
					usage.TotalTokens = responseBody.Response.Usage.TotalTokens

					if responseBody.Response.Usage.InputTokensDetails != nil {
						usage.InputTokensDetails = &llms.InputTokensDetails{
							CachedTokens: responseBody.Response.Usage.InputTokensDetails.CachedTokens,
						}
					}
					if responseBody.Response.Usage.OutputTokensDetails != nil {
						usage.OutputTokensDetails = &llms.OutputTokensDetails{
							ReasoningTokens: responseBody.Response.Usage.OutputTokensDetails.ReasoningTokens,
						}
					}
				}

				if !yield(StreamUsageChunk{usage: usage}, nil) {
					return
				}
			}
		}

		if err := scanner.Err(); err != nil {
			yield(nil, fmt.Errorf("error reading streamed response: %w", err))
			return
		}
	}
}

type streamingEventType string

const (
	streamingEventResponseOutputTextDelta streamingEventType = "response.output_text.delta"
	streamingEventResponseOutputItemAdded streamingEventType = "response.output_item.added"
	streamingEventResponseOutputItemDone  streamingEventType = "response.output_item.done"
	streamingEventResponseCreated         streamingEventType = "response.created"
	streamingEventResponseQueued          streamingEventType = "response.queued"
	streamingEventResponseInProgress      streamingEventType = "response.in_progress"
	streamingEventResponseCompleted       streamingEventType = "response.completed"
)

type streamingBodyResponseTextDelta struct {
	Delta string `json:"delta"`
}

// streamingBodyResponseCompleted is emitted when the model response is complete
type streamingBodyResponseCompleted struct {
	Response struct {
		// Usage represents token usage details including input tokens, output
		// tokens, a breakdown of output tokens, and the total tokens used.
		Usage *responseBodyUsage `json:"usage"`
	} `json:"response"`
}

type StreamRoleChunk struct {
	finishReason *string
	role         string
}

func (s StreamRoleChunk) FinishReason() *string {
	return s.finishReason
}

func (s StreamRoleChunk) Role() string {
	return s.role
}

type StreamContentChunk struct {
	finishReason *string
	content      string
}

func (s StreamContentChunk) FinishReason() *string {
	return s.finishReason
}

func (s StreamContentChunk) Content() string {
	return s.content
}

type StreamUsageChunk struct {
	finishReason *string
	usage        llms.Usage
}

func (s StreamUsageChunk) FinishReason() *string {
	return s.finishReason
}

func (s StreamUsageChunk) Usage() llms.Usage {
	return s.usage
}
