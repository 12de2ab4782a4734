package orchestration

import (
	"context"
	"fmt"
	"strings"

	"github.com/koscakluka/duolog-core/core/llms"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// replyGenerator wraps the configured reply-generation client. Streaming
// clients are preferred; prompt-based clients degrade to a single segment
// delivered when the full reply is available.
type replyGenerator struct {
	// client is the configured LLM implementation (streaming or prompt-based).
	client LLM
	// instructions is the system prompt sent with every generation request.
	instructions string
}

var errReplyGeneratorNotConfigured = fmt.Errorf("no reply generation client configured")

func newReplyGenerator() replyGenerator {
	return replyGenerator{}
}

func (g *replyGenerator) set(client LLM) {
	if g == nil {
		return
	}

	if isNilClient(client) {
		g.client = nil
		return
	}
	g.client = client
}

func (g *replyGenerator) setInstructions(instructions string) {
	if g != nil {
		g.instructions = instructions
	}
}

func (g *replyGenerator) isConfigured() bool {
	return g != nil && g.client != nil
}

func (g *replyGenerator) snapshot() replyGenerator {
	if g == nil {
		return replyGenerator{}
	}

	return replyGenerator{client: g.client, instructions: g.instructions}
}

// generate produces a reply to prompt given the conversation so far. Each
// streamed segment flows to onSegment as it arrives; the full reply is
// returned once generation settles.
func (g *replyGenerator) generate(
	ctx context.Context,
	prompt string,
	history []llms.Turn,
	onSegment func(segment string),
) (string, error) {
	if !g.isConfigured() {
		return "", errReplyGeneratorNotConfigured
	}

	switch client := g.client.(type) {
	case LLMWithStream:
		return g.processStreaming(ctx, client, prompt, history, onSegment)

	case LLMWithPrompt:
		return g.processPrompt(ctx, client, prompt, history, onSegment)

	default:
		return "", fmt.Errorf("unknown LLM type")
	}
}

func (g *replyGenerator) processPrompt(
	ctx context.Context,
	client LLMWithPrompt,
	prompt string,
	history []llms.Turn,
	onSegment func(segment string),
) (string, error) {
	response, err := client.Prompt(ctx, prompt,
		llms.WithSystemPrompt(g.instructions),
		llms.WithTurns(history...),
	)
	if err != nil {
		return "", fmt.Errorf("failed to prompt llm: %w", err)
	}
	if response == nil {
		return "", nil
	}

	if onSegment != nil && response.Content != "" {
		onSegment(response.Content)
	}
	return response.Content, nil
}

func (g *replyGenerator) processStreaming(
	ctx context.Context,
	client LLMWithStream,
	prompt string,
	history []llms.Turn,
	onSegment func(segment string),
) (string, error) {
	span := trace.SpanFromContext(ctx)

	stream := client.PromptWithStream(ctx, &prompt,
		llms.WithSystemPrompt(g.instructions),
		llms.WithTurns(history...),
	)

	var message strings.Builder
	for chunk, err := range stream.Chunks(ctx) {
		if err != nil {
			err = fmt.Errorf("failed to stream llm response: %w", err)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return message.String(), err
		}

		if ctx.Err() != nil {
			return message.String(), ctx.Err()
		}

		if chunk, ok := chunk.(llms.StreamContentChunk); ok {
			message.WriteString(chunk.Content())
			if onSegment != nil {
				onSegment(chunk.Content())
			}
		}
	}

	return message.String(), nil
}
