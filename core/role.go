package orchestration

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/koscakluka/duolog-core/core/events"
)

// Submission is the immutable artifact of submitting a compose buffer. The
// text, its translations, and its identity are frozen at submit time; later
// draft edits never touch a past submission.
type Submission struct {
	ID           string
	Role         string
	Text         string
	Language     Language
	Translations map[Language]string
	SubmittedAt  time.Time
}

// Role is one party of a conversation: a compose buffer with its enrichment
// pipeline, per-language audio toggles, and a playback controller that
// performs whatever the role submits.
//
// The two roles differ only in configuration: their keys, their preemption
// policy, and which collaborators are wired in.
type Role struct {
	name string

	// submitKey and translationKeyFor determine the playback keys this
	// role's queue items carry.
	submitKey         string
	translationKeyFor func(language Language) string

	composer     *composer
	controller   *playbackController
	sequencer    *sequencer
	audioInput   *audioInput
	translator   *translator
	speechToText *speechToText

	emitEvent eventEmitter

	// onSubmitted, when set, receives every settled submission. The
	// conversation uses it to bridge user submissions into reply generation.
	onSubmitted func(ctx context.Context, submission *Submission)

	mu                    sync.Mutex
	ctx                   context.Context
	primaryLanguage       Language
	targetLanguages       []Language
	audioEnabled          map[Language]bool
	mode                  PlaybackMode
	wordsPerMinute        int
	preemptPlayback       bool
	autoSubmit            bool
	pausePlaybackOnListen bool
	listening             bool
	lastSubmission        *Submission

	// playbackGen distinguishes queues that played out from queues that were
	// stopped, for the queue-finished notification.
	playbackGen atomic.Uint64
}

func newRole(
	name string,
	submitKey string,
	translationKeyFor func(language Language) string,
	sequencer *sequencer,
	audioInput *audioInput,
	translator *translator,
	predictor *predictor,
	preemptPlayback bool,
) *Role {
	role := &Role{
		name:              name,
		submitKey:         submitKey,
		translationKeyFor: translationKeyFor,

		sequencer:    sequencer,
		audioInput:   audioInput,
		translator:   translator,
		speechToText: newSpeechToText(nil, name),

		emitEvent:   noopEventEmitter,
		onSubmitted: func(context.Context, *Submission) {},

		ctx:             context.Background(),
		audioEnabled:    map[Language]bool{},
		mode:            PlaybackModeAudio,
		wordsPerMinute:  defaultWordsPerMinute,
		preemptPlayback: preemptPlayback,
	}
	role.composer = newComposer(name, predictor, translator)
	role.composer.sourceLanguage = role.PrimaryLanguage
	role.composer.targetLanguages = role.TargetLanguages
	role.composer.autoSubmitReady = role.autoSubmitEnabled
	role.composer.onAutoSubmit = role.submitDraft
	return role
}

// start freezes the role's engine configuration and binds the event emitter.
// Called once per Converse.
func (r *Role) start(ctx context.Context, emitEvent eventEmitter) {
	r.mu.Lock()
	if ctx != nil {
		r.ctx = ctx
	}
	r.emitEvent = emitEvent
	preempt := r.preemptPlayback
	wordsPerMinute := r.wordsPerMinute
	r.mu.Unlock()

	r.composer.emitEvent = emitEvent
	r.composer.start(ctx)
	r.speechToText.SetEventEmitter(emitEvent)

	r.controller = newPlaybackController(r.sequencer, r.name, preempt, playbackCallbacks{
		onPlayingKeyChange: func(key string) {
			r.emitEvent(events.NewPlaybackKeyChanged(key))
		},
		onHighlightIndexChange: func(key string, index int) {
			r.emitEvent(events.NewPlaybackWordHighlighted(key, index))
		},
		onItemStarted: func(item PlaybackItem) {
			r.emitEvent(events.NewPlaybackItemStarted(item.Key, item.Language.String()))
		},
		onItemEnded: func(item PlaybackItem) {
			r.emitEvent(events.NewPlaybackItemEnded(item.Key))
		},
	}, wordsPerMinute)
}

func (r *Role) Name() string { return r.name }

func (r *Role) PrimaryLanguage() Language {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.primaryLanguage
}

// TargetLanguages returns the configured translation targets in the order
// they were added, which is also their queue order.
func (r *Role) TargetLanguages() []Language {
	r.mu.Lock()
	defer r.mu.Unlock()

	languages := make([]Language, len(r.targetLanguages))
	copy(languages, r.targetLanguages)
	return languages
}

func (r *Role) Mode() PlaybackMode {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.mode
}

func (r *Role) SetMode(mode PlaybackMode) {
	if !mode.IsValid() {
		return
	}

	r.mu.Lock()
	r.mode = mode
	r.mu.Unlock()
}

func (r *Role) addTargetLanguage(language Language) {
	if language.IsZero() {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.targetLanguages {
		if existing == language {
			return
		}
	}
	r.targetLanguages = append(r.targetLanguages, language)
}

// AddTargetLanguage appends a translation target. Adding an already present
// language keeps its original position.
func (r *Role) AddTargetLanguage(language Language) { r.addTargetLanguage(language) }

func (r *Role) setAudioEnabled(language Language, enabled bool) {
	if language.IsZero() {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.audioEnabled[language] = enabled
}

// EnableAudio turns the per-language audio toggle on. Only languages with the
// toggle on participate when a submission queue is built.
func (r *Role) EnableAudio(language Language)  { r.setAudioEnabled(language, true) }
func (r *Role) DisableAudio(language Language) { r.setAudioEnabled(language, false) }

func (r *Role) AudioEnabled(language Language) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.audioEnabled[language]
}

func (r *Role) SetAutoSubmit(enabled bool) {
	r.mu.Lock()
	r.autoSubmit = enabled
	r.mu.Unlock()
}

func (r *Role) autoSubmitEnabled() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.autoSubmit
}

func (r *Role) Text() string           { return r.composer.Text() }
func (r *Role) SetText(text string)    { r.composer.SetText(text) }
func (r *Role) AppendText(text string) { r.composer.AppendText(text) }

func (r *Role) SetPredictionsOpen(open bool)  { r.composer.SetPredictionsOpen(open) }
func (r *Role) SetTranslationsOpen(open bool) { r.composer.SetTranslationsOpen(open) }

// LastSubmission returns the most recent submission, or nil before the first
// one.
func (r *Role) LastSubmission() *Submission {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.lastSubmission
}

// Submit freezes the compose buffer into a submission, translates it, clears
// the buffer, and performs the resulting queue under the role's mode. An
// empty buffer is a no-op.
func (r *Role) Submit(ctx context.Context) (*Submission, *Playback) {
	return r.submit(ctx, r.composer.Text())
}

func (r *Role) submitDraft(text string) {
	r.mu.Lock()
	ctx := r.ctx
	r.mu.Unlock()

	r.submit(ctx, text)
}

func (r *Role) submit(ctx context.Context, text string) (*Submission, *Playback) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, resolvedPlayback()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	r.composer.Clear()

	r.mu.Lock()
	primary := r.primaryLanguage
	targets := make([]Language, len(r.targetLanguages))
	copy(targets, r.targetLanguages)
	mode := r.mode
	r.mu.Unlock()

	submission := &Submission{
		ID:           uuid.NewString(),
		Role:         r.name,
		Text:         text,
		Language:     primary,
		Translations: r.translator.Translate(ctx, text, primary, targets),
		SubmittedAt:  time.Now(),
	}

	r.mu.Lock()
	r.lastSubmission = submission
	r.mu.Unlock()

	r.emitEvent(events.NewCompositionSubmitted(r.name, submission.ID, text))

	playback := r.perform(ctx, r.buildQueue(submission), mode)
	go r.onSubmitted(ctx, submission)

	return submission, playback
}

// buildQueue assembles the playback queue for a submission: the submitted
// text first when its language's audio toggle is on, then each translated
// target in configuration order, skipping targets that are toggled off or
// that translation could not produce.
func (r *Role) buildQueue(submission *Submission) []PlaybackItem {
	r.mu.Lock()
	defer r.mu.Unlock()

	var items []PlaybackItem
	if r.audioEnabled[submission.Language] {
		items = append(items, PlaybackItem{
			Text:     submission.Text,
			Language: submission.Language,
			Key:      r.submitKey,
		})
	}

	for _, target := range r.targetLanguages {
		translated, ok := submission.Translations[target]
		if !ok || translated == "" || !r.audioEnabled[target] {
			continue
		}
		items = append(items, PlaybackItem{
			Text:     translated,
			Language: target,
			Key:      r.translationKeyFor(target),
		})
	}

	return items
}

func (r *Role) perform(ctx context.Context, items []PlaybackItem, mode PlaybackMode) *Playback {
	playback := r.controller.PlaySequence(ctx, items, mode)
	if len(items) == 0 || playback.Finished() {
		return playback
	}

	generation := r.playbackGen.Load()
	go func() {
		<-playback.Done()
		cancelled := r.playbackGen.Load() != generation
		r.emitEvent(events.NewPlaybackQueueFinished(cancelled))
	}()

	return playback
}

// Replay performs one element of the last submission again, identified by its
// playback key. Replay works in every mode; manual and delay modes rely on it
// as their only playback path.
func (r *Role) Replay(ctx context.Context, key string) *Playback {
	r.mu.Lock()
	submission := r.lastSubmission
	mode := r.mode
	r.mu.Unlock()

	if submission == nil {
		return resolvedPlayback()
	}

	item, ok := r.replayItem(submission, key)
	if !ok {
		return resolvedPlayback()
	}

	if mode != PlaybackModeAudio && mode != PlaybackModeHighlight {
		mode = PlaybackModeAudio
	}

	return r.perform(ctx, []PlaybackItem{item}, mode)
}

func (r *Role) replayItem(submission *Submission, key string) (PlaybackItem, bool) {
	if key == r.submitKey {
		return PlaybackItem{
			Text:     submission.Text,
			Language: submission.Language,
			Key:      key,
		}, true
	}

	for language, translated := range submission.Translations {
		if r.translationKeyFor(language) != key || translated == "" {
			continue
		}
		return PlaybackItem{Text: translated, Language: language, Key: key}, true
	}

	return PlaybackItem{}, false
}

// StopPlayback cancels the role's active performance, if any.
func (r *Role) StopPlayback() {
	r.playbackGen.Add(1)
	r.controller.Stop()
}

func (r *Role) PlaybackState() PlaybackState {
	return r.controller.State()
}

func (r *Role) IsListening() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.listening
}

// StartListening opens microphone capture and live transcription for the
// role. Final transcripts append to the compose buffer through the normal
// enrichment path. A capture or transcription failure reverts the toggle.
func (r *Role) StartListening(ctx context.Context) error {
	if !r.speechToText.isConfigured() {
		return fmt.Errorf("no speech-to-text client configured")
	}
	if !r.audioInput.IsConfigured() {
		return fmt.Errorf("no audio input configured")
	}

	r.mu.Lock()
	if r.listening {
		r.mu.Unlock()
		return nil
	}
	r.listening = true
	pausePlayback := r.pausePlaybackOnListen
	language := r.primaryLanguage
	r.mu.Unlock()

	if pausePlayback {
		r.StopPlayback()
	}

	err := r.speechToText.Start(ctx, language, r.audioInput.EncodingInfo(),
		func(transcript string) {
			r.AppendText(transcript)
			// A finished utterance submits right away; the idle window only
			// paces typed drafts.
			if r.autoSubmitEnabled() {
				r.submit(ctx, r.composer.Text())
			}
		},
		func(err error) {
			r.stopListening(ctx, false)
		},
	)
	if err != nil {
		r.stopListening(ctx, false)
		return err
	}

	r.audioInput.setCallbacks(
		func(audio []byte) {
			if sendErr := r.speechToText.SendAudio(audio); sendErr != nil {
				logger.Warn("Failed to forward captured audio", "error", sendErr)
			}
		},
		func(captureErr error) {
			r.emitEvent(events.NewListeningFailed(r.name, captureErr))
			r.stopListening(ctx, true)
		},
	)

	if err := r.audioInput.StartCapture(ctx); err != nil {
		r.stopListening(ctx, true)
		return err
	}

	return nil
}

// StopListening ends microphone capture and transcription. Safe when not
// listening.
func (r *Role) StopListening(ctx context.Context) {
	r.stopListening(ctx, true)
}

func (r *Role) stopListening(ctx context.Context, closeTranscription bool) {
	r.mu.Lock()
	wasListening := r.listening
	r.listening = false
	r.mu.Unlock()

	if !wasListening {
		return
	}

	if err := r.audioInput.StopCapture(); err != nil {
		logger.Warn("Failed to stop audio capture", "error", err)
	}

	if closeTranscription {
		if err := r.speechToText.Close(ctx); err != nil {
			logger.Warn("Failed to close transcription", "error", err)
		}
	}
}

func (r *Role) close(ctx context.Context) {
	r.stopListening(ctx, true)
	r.StopPlayback()
}
