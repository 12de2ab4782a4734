package texttospeech

import "github.com/koscakluka/duolog-core/core/audio"

type SynthesisOptions struct {
	// Language is the BCP 47 code of the text to synthesize. Clients pick a
	// matching voice when Voice is not set explicitly.
	Language string
	// Voice overrides the client's own voice selection.
	Voice string

	EncodingInfo audio.EncodingInfo
}

type SynthesisOption func(*SynthesisOptions)

func WithLanguage(language string) SynthesisOption {
	return func(o *SynthesisOptions) { o.Language = language }
}

func WithVoice(voice string) SynthesisOption {
	return func(o *SynthesisOptions) { o.Voice = voice }
}

func WithEncodingInfo(encodingInfo audio.EncodingInfo) SynthesisOption {
	return func(o *SynthesisOptions) {
		if encodingInfo.IsZero() {
			// TODO: Issue warning
			return
		}

		o.EncodingInfo = encodingInfo
	}
}
