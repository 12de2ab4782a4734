package orchestration

import (
	"context"
	"fmt"

	"github.com/koscakluka/duolog-core/core/audio"
	events "github.com/koscakluka/duolog-core/core/events"
	"github.com/koscakluka/duolog-core/core/speechtotext"
)

// speechToText wraps a role's optional transcription client. An unconfigured
// facade silently ignores capture requests so roles without a microphone need
// no special-casing.
type speechToText struct {
	// client stores the configured speech-to-text implementation.
	client SpeechToText

	emitEvent eventEmitter
	role      string
}

func newSpeechToText(client SpeechToText, role string) *speechToText {
	return &speechToText{
		client:    client,
		emitEvent: noopEventEmitter,
		role:      role,
	}
}

func (s *speechToText) set(client SpeechToText) {
	if s != nil {
		s.client = client
	}
}

func (s *speechToText) SetEventEmitter(emitEvent eventEmitter) {
	if s != nil {
		if emitEvent != nil {
			s.emitEvent = emitEvent
		} else {
			s.emitEvent = noopEventEmitter
		}
	}
}

func (s *speechToText) isConfigured() bool {
	return s != nil && !isNilClient(s.client)
}

// Start opens the live transcription stream. Final transcripts flow to
// onFinalTranscript; failures (including denied capture permissions) flow to
// onError exactly once per occurrence.
func (s *speechToText) Start(
	ctx context.Context,
	language Language,
	encodingInfo audio.EncodingInfo,
	onFinalTranscript func(transcript string),
	onError func(err error),
) error {
	if !s.isConfigured() {
		return nil
	}

	sttOptions := []speechtotext.TranscriptionOption{
		speechtotext.WithInterimTranscriptionCallback(s.invokeInterimTranscription),
		speechtotext.WithTranscriptionCallback(func(transcript string) {
			s.invokeTranscription(transcript)
			if onFinalTranscript != nil {
				onFinalTranscript(transcript)
			}
		}),
		speechtotext.WithErrorCallback(func(err error) {
			s.emitEvent(events.NewListeningFailed(s.role, err))
			if onError != nil {
				onError(err)
			}
		}),
		speechtotext.WithEncodingInfo(encodingInfo),
	}
	if !language.IsZero() {
		sttOptions = append(sttOptions, speechtotext.WithLanguage(language.String()))
	}

	if err := s.client.Transcribe(ctx, sttOptions...); err != nil {
		return fmt.Errorf("failed to start transcribing: %w", err)
	}

	s.emitEvent(events.NewListeningStarted(s.role))
	return nil
}

func (s *speechToText) SendAudio(audio []byte) error {
	if !s.isConfigured() {
		return nil
	}

	return s.client.SendAudio(audio)
}

func (s *speechToText) Close(ctx context.Context) error {
	if !s.isConfigured() {
		return nil
	}

	defer s.emitEvent(events.NewListeningStopped(s.role))

	switch c := s.client.(type) {
	case interface{ Close(context.Context) error }:
		if err := c.Close(ctx); err != nil {
			return fmt.Errorf("failed to close speech-to-text client: %w", err)
		}
	case interface{ Close(context.Context) }:
		c.Close(ctx)
	case interface{ Close() error }:
		if err := c.Close(); err != nil {
			return fmt.Errorf("failed to close speech-to-text client: %w", err)
		}
	case interface{ Close() }:
		c.Close()
	}

	return nil
}

func (s *speechToText) invokeInterimTranscription(transcript string) {
	s.emitEvent(events.NewListeningTranscriptInterim(s.role, transcript))
}

func (s *speechToText) invokeTranscription(transcript string) {
	s.emitEvent(events.NewListeningTranscriptInterim(s.role, ""))
	s.emitEvent(events.NewListeningTranscriptFinal(s.role, transcript))
}
