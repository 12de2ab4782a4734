package orchestration

import (
	"context"
	"fmt"
	"reflect"

	"github.com/koscakluka/duolog-core/core/texttospeech"
)

// synthesizer wraps the configured text-to-speech client so callers never
// have to care whether one was configured at all. A nil or typed-nil client
// makes every synthesis request fail with errSynthesizerNotConfigured, which
// the sequencer treats like any other per-item provider failure.
type synthesizer struct {
	base Synthesizer

	// defaultVoice, when set, rides along on every request that does not
	// carry its own voice.
	defaultVoice string
}

var errSynthesizerNotConfigured = fmt.Errorf("no text-to-speech client configured")

func newSynthesizer(client Synthesizer) *synthesizer {
	s := synthesizer{}
	s.set(client)
	return &s
}

func (s *synthesizer) set(client Synthesizer) {
	if s == nil {
		return
	}

	if isNilClient(client) {
		s.base = nil
		return
	}
	s.base = client
}

func (s *synthesizer) setDefaultVoice(voice string) {
	if s == nil {
		return
	}

	s.defaultVoice = voice
}

func (s *synthesizer) isConfigured() bool {
	return s != nil && s.base != nil
}

// Snapshot returns a per-run copy so later reconfiguration does not change
// behavior mid-sequence.
func (s *synthesizer) Snapshot() *synthesizer {
	if s == nil {
		return s
	}

	snapshot := newSynthesizer(s.base)
	snapshot.defaultVoice = s.defaultVoice
	return snapshot
}

func (s *synthesizer) Synthesize(ctx context.Context, text string, opts ...texttospeech.SynthesisOption) ([]byte, error) {
	if !s.isConfigured() {
		return nil, errSynthesizerNotConfigured
	}

	if s.defaultVoice != "" {
		opts = append([]texttospeech.SynthesisOption{texttospeech.WithVoice(s.defaultVoice)}, opts...)
	}

	clip, err := s.base.Synthesize(ctx, text, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to synthesize speech: %w", err)
	}

	return clip, nil
}

// isNilClient detects nil and typed-nil interface values so set can avoid
// storing unusable interface wrappers as configured clients.
func isNilClient(client any) bool {
	if client == nil {
		return true
	}

	v := reflect.ValueOf(client)
	switch v.Kind() {
	case reflect.Chan, reflect.Func, reflect.Interface, reflect.Map, reflect.Pointer, reflect.Slice:
		return v.IsNil()
	default:
		return false
	}
}
