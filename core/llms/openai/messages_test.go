package openai

import (
	"testing"

	"github.com/koscakluka/duolog-core/core/llms"
)

func TestToOpenAIMessages_KeepsFullHistoryInOrder(t *testing.T) {
	turns := []llms.Turn{
		{Role: llms.TurnRoleUser, Content: "first prompt"},
		{Role: llms.TurnRoleAssistant, Content: "first reply"},
		{Role: llms.TurnRoleUser, Content: "second prompt"},
		{Role: llms.TurnRoleAssistant, Content: "second reply"},
	}

	messages := toOpenAIMessages("stay on topic", turns)

	if len(messages) != 5 {
		t.Fatalf("expected 5 messages, got %d", len(messages))
	}

	if messages[0].Type != messageTypeMessage || messages[0].Role != messageRoleDeveloper || messages[0].Content != "stay on topic" {
		t.Fatalf("unexpected instructions message: %+v", messages[0])
	}

	if messages[1].Role != messageRoleUser || messages[1].Content != "first prompt" {
		t.Fatalf("unexpected first user message: %+v", messages[1])
	}

	if messages[2].Role != messageRoleAssistant || messages[2].Content != "first reply" {
		t.Fatalf("unexpected first assistant message: %+v", messages[2])
	}

	if messages[3].Role != messageRoleUser || messages[3].Content != "second prompt" {
		t.Fatalf("history truncated before second turn: %+v", messages[3])
	}

	if messages[4].Role != messageRoleAssistant || messages[4].Content != "second reply" {
		t.Fatalf("unexpected final assistant message: %+v", messages[4])
	}
}

func TestToOpenAIMessages_SkipsUnansweredAssistantTurns(t *testing.T) {
	turns := []llms.Turn{
		{Role: llms.TurnRoleUser, Content: "prompt"},
		{Role: llms.TurnRoleAssistant, Content: ""},
	}

	messages := toOpenAIMessages("", turns)

	if len(messages) != 1 {
		t.Fatalf("expected 1 message, got %d", len(messages))
	}
	if messages[0].Role != messageRoleUser || messages[0].Content != "prompt" {
		t.Fatalf("unexpected message: %+v", messages[0])
	}
}
