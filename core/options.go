package orchestration

import (
	"context"

	"github.com/koscakluka/duolog-core/core/audio"
	"github.com/koscakluka/duolog-core/core/llms"
	"github.com/koscakluka/duolog-core/core/prediction"
	"github.com/koscakluka/duolog-core/core/speechtotext"
	"github.com/koscakluka/duolog-core/core/texttospeech"
	"github.com/koscakluka/duolog-core/core/translation"
)

type ConversationOption func(*Conversation)

type LLMWithStream interface {
	LLM
	PromptWithStream(ctx context.Context, prompt *string, opts ...llms.PromptOption) llms.Stream
}

type LLMWithPrompt interface {
	LLM
	Prompt(ctx context.Context, prompt string, opts ...llms.PromptOption) (*llms.Message, error)
}

func WithStreamingLLM(client LLMWithStream) ConversationOption {
	return func(c *Conversation) {
		c.replies.set(client)
	}
}

func WithPromptLLM(client LLMWithPrompt) ConversationOption {
	return func(c *Conversation) {
		c.replies.set(client)
	}
}

// WithInstructions sets the system prompt handed to the reply generator on
// every exchange.
func WithInstructions(instructions string) ConversationOption {
	return func(c *Conversation) {
		c.replies.setInstructions(instructions)
	}
}

// WithFallbackReply overrides the line recorded as the assistant's reply when
// generation fails.
func WithFallbackReply(reply string) ConversationOption {
	return func(c *Conversation) {
		if reply != "" {
			c.fallbackReply = reply
		}
	}
}

type SpeechToText interface {
	Transcribe(ctx context.Context, opts ...speechtotext.TranscriptionOption) error
	SendAudio(audio []byte) error
}

func WithSpeechToTextClient(client SpeechToText) ConversationOption {
	return func(c *Conversation) {
		c.user.speechToText.set(client)
	}
}

// Synthesizer converts a piece of text into a complete encoded audio clip.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string, opts ...texttospeech.SynthesisOption) ([]byte, error)
}

func WithSynthesizer(client Synthesizer) ConversationOption {
	return func(c *Conversation) {
		c.synthesizer.set(client)
	}
}

// WithDefaultVoice pins the synthesis voice instead of letting the client
// pick one per language.
func WithDefaultVoice(voice string) ConversationOption {
	return func(c *Conversation) {
		c.synthesizer.setDefaultVoice(voice)
	}
}

func WithTranslator(client translation.Translator) ConversationOption {
	return func(c *Conversation) {
		c.translator.set(client)
	}
}

func WithPhrasePredictor(client prediction.PhrasePredictor) ConversationOption {
	return func(c *Conversation) {
		c.predictor.set(client)
	}
}

// WithPredictionCount overrides how many phrase predictions are requested
// for a draft.
func WithPredictionCount(count int) ConversationOption {
	return func(c *Conversation) {
		c.predictor.setCount(count)
	}
}

type AudioInput interface {
	audioInputBase
}

type AudioInputFine interface {
	StartCapture(ctx context.Context, onAudio func(audio []byte)) error
	StopCapture() error
}

func WithAudioInput(client AudioInput) ConversationOption {
	return func(c *Conversation) { c.audioInput.Set(client) }
}

type AudioOutputV0 interface {
	audioOutputBase
	AwaitMark() error
}

func WithAudioOutputV0(client AudioOutputV0) ConversationOption {
	return func(c *Conversation) { c.audioOutput.Set(client) }
}

type AudioOutputV1 interface {
	audioOutputBase
	Mark(string, func(string)) error
}

func WithAudioOutputV1(client AudioOutputV1) ConversationOption {
	return func(c *Conversation) { c.audioOutput.Set(client) }
}

// WithUserRole applies options to the conversation's user role.
func WithUserRole(opts ...RoleOption) ConversationOption {
	return func(c *Conversation) {
		for _, opt := range opts {
			opt(c.user)
		}
	}
}

// WithAssistantRole applies options to the conversation's assistant role.
func WithAssistantRole(opts ...RoleOption) ConversationOption {
	return func(c *Conversation) {
		for _, opt := range opts {
			opt(c.assistant)
		}
	}
}

type RoleOption func(*Role)

// WithPrimaryLanguage sets the language the role composes in. Submitted text
// is performed in this language first whenever its audio toggle is on.
func WithPrimaryLanguage(language Language) RoleOption {
	return func(r *Role) {
		if !language.IsZero() {
			r.primaryLanguage = language
		}
	}
}

// WithTargetLanguages sets the languages submissions are translated into.
// Queue order follows the order given here.
func WithTargetLanguages(languages ...Language) RoleOption {
	return func(r *Role) {
		for _, language := range languages {
			r.addTargetLanguage(language)
		}
	}
}

// WithAudioEnabled turns the per-language audio toggle on for the given
// languages. Languages without the toggle are skipped when a queue is built.
func WithAudioEnabled(languages ...Language) RoleOption {
	return func(r *Role) {
		for _, language := range languages {
			r.setAudioEnabled(language, true)
		}
	}
}

func WithPlaybackMode(mode PlaybackMode) RoleOption {
	return func(r *Role) {
		if mode.IsValid() {
			r.mode = mode
		}
	}
}

// WithWordsPerMinute sets the highlight simulation pace for the role. Values
// are clamped to the supported range.
func WithWordsPerMinute(wordsPerMinute int) RoleOption {
	return func(r *Role) {
		r.wordsPerMinute = wordsPerMinute
	}
}

// WithPlaybackPreemption makes a new submission cut off the role's active
// performance instead of queueing behind it.
func WithPlaybackPreemption(preempt bool) RoleOption {
	return func(r *Role) {
		r.preemptPlayback = preempt
	}
}

// WithAutoSubmit enables submission after a pause in typing, instead of
// requiring an explicit submit.
func WithAutoSubmit(enabled bool) RoleOption {
	return func(r *Role) {
		r.autoSubmit = enabled
	}
}

// WithPausePlaybackWhileListening stops the role's active performance when
// microphone capture starts.
func WithPausePlaybackWhileListening(pause bool) RoleOption {
	return func(r *Role) {
		r.pausePlaybackOnListen = pause
	}
}

type ConverseOptions struct {
	onPlayingKeyChange     func(key string)
	onWordHighlighted      func(key string, wordIndex int)
	onItemStarted          func(key string, language string)
	onItemEnded            func(key string)
	onQueueFinished        func(cancelled bool)
	onCompositionText      func(role string, text string)
	onPredictionsUpdated   func(role string, predictions []prediction.Prediction)
	onTranslationsUpdated  func(role string, translations map[string]string)
	onSubmission           func(role string, submissionID string, text string)
	onReplySegment         func(segment string)
	onReplyEnd             func(reply string)
	onExchangeFailed       func(err error)
	onTranscription        func(role string, transcript string)
	onInterimTranscription func(role string, transcript string)
	onListeningFailed      func(role string, err error)
	onListeningStarted     func(role string)
	onListeningStopped     func(role string)
}

type ConverseOption func(*ConverseOptions)

// WithPlayingKeyChangeCallback registers a callback for changes of the active
// performance key. An empty key means nothing is being performed.
func WithPlayingKeyChangeCallback(callback func(key string)) ConverseOption {
	return func(o *ConverseOptions) {
		o.onPlayingKeyChange = callback
	}
}

// WithWordHighlightedCallback registers a callback for highlight word-index
// advances on the active key.
func WithWordHighlightedCallback(callback func(key string, wordIndex int)) ConverseOption {
	return func(o *ConverseOptions) {
		o.onWordHighlighted = callback
	}
}

// WithItemStartedCallback registers a callback for each queue item as it
// begins performing, carrying its playback key and language code.
func WithItemStartedCallback(callback func(key string, language string)) ConverseOption {
	return func(o *ConverseOptions) {
		o.onItemStarted = callback
	}
}

// WithItemEndedCallback registers a callback for each queue item once it
// finishes, is skipped, or fails. Every started item ends exactly once.
func WithItemEndedCallback(callback func(key string)) ConverseOption {
	return func(o *ConverseOptions) {
		o.onItemEnded = callback
	}
}

func WithQueueFinishedCallback(callback func(cancelled bool)) ConverseOption {
	return func(o *ConverseOptions) {
		o.onQueueFinished = callback
	}
}

func WithCompositionTextCallback(callback func(role string, text string)) ConverseOption {
	return func(o *ConverseOptions) {
		o.onCompositionText = callback
	}
}

// WithPredictionsUpdatedCallback registers a callback for replaced phrase
// prediction sets. The slice always replaces the previous set wholesale.
func WithPredictionsUpdatedCallback(callback func(role string, predictions []prediction.Prediction)) ConverseOption {
	return func(o *ConverseOptions) {
		o.onPredictionsUpdated = callback
	}
}

// WithTranslationsUpdatedCallback registers a callback for replaced draft
// translation sets, keyed by language code.
func WithTranslationsUpdatedCallback(callback func(role string, translations map[string]string)) ConverseOption {
	return func(o *ConverseOptions) {
		o.onTranslationsUpdated = callback
	}
}

func WithSubmissionCallback(callback func(role string, submissionID string, text string)) ConverseOption {
	return func(o *ConverseOptions) {
		o.onSubmission = callback
	}
}

// WithReplySegmentCallback registers a callback for streamed reply segments.
// Segments arrive in generation order and concatenate into the full reply.
func WithReplySegmentCallback(callback func(segment string)) ConverseOption {
	return func(o *ConverseOptions) {
		o.onReplySegment = callback
	}
}

func WithReplyEndCallback(callback func(reply string)) ConverseOption {
	return func(o *ConverseOptions) {
		o.onReplyEnd = callback
	}
}

func WithExchangeFailedCallback(callback func(err error)) ConverseOption {
	return func(o *ConverseOptions) {
		o.onExchangeFailed = callback
	}
}

// WithTranscriptionCallback registers a callback for final transcriptions
// produced by the configured speech-to-text client.
func WithTranscriptionCallback(callback func(role string, transcript string)) ConverseOption {
	return func(o *ConverseOptions) {
		o.onTranscription = callback
	}
}

// WithInterimTranscriptionCallback registers a callback for interim
// transcriptions produced by the configured speech-to-text client.
func WithInterimTranscriptionCallback(callback func(role string, transcript string)) ConverseOption {
	return func(o *ConverseOptions) {
		o.onInterimTranscription = callback
	}
}

func WithListeningFailedCallback(callback func(role string, err error)) ConverseOption {
	return func(o *ConverseOptions) {
		o.onListeningFailed = callback
	}
}

func WithListeningStartedCallback(callback func(role string)) ConverseOption {
	return func(o *ConverseOptions) {
		o.onListeningStarted = callback
	}
}

func WithListeningStoppedCallback(callback func(role string)) ConverseOption {
	return func(o *ConverseOptions) {
		o.onListeningStopped = callback
	}
}

type LLM any

type audioOutputBase interface {
	EncodingInfo() audio.EncodingInfo
	SendAudio(audio []byte) error
	ClearBuffer()
}

type audioInputBase interface {
	EncodingInfo() audio.EncodingInfo
	Stream(ctx context.Context, onAudio func(audio []byte)) error
	Close()
}
