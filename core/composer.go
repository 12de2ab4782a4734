package orchestration

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/bep/debounce"
	"github.com/koscakluka/duolog-core/core/events"
	"github.com/koscakluka/duolog-core/core/prediction"
)

const (
	// draftRefreshDelay is how long typing has to pause before draft
	// predictions and translations are fetched.
	draftRefreshDelay = 600 * time.Millisecond
	// autoSubmitDelay is how long typing has to pause before a draft is
	// submitted automatically, for roles that enable auto-submit.
	autoSubmitDelay = 2 * time.Second
)

// composer owns a role's compose buffer and the best-effort enrichment around
// it. Every buffer change resets a shared debounce window; when the window
// elapses, phrase predictions and draft translations are fetched for whichever
// panels are open. Fetches are stamped with the text they were requested for
// and results are dropped when the buffer moved on in the meantime.
type composer struct {
	role      string
	emitEvent eventEmitter

	predictor  *predictor
	translator *translator

	// sourceLanguage and targetLanguages are read at dispatch time so
	// language changes between keystroke and fetch use the fresh values.
	sourceLanguage  func() Language
	targetLanguages func() []Language

	// autoSubmitReady gates the idle timer; onAutoSubmit fires when it
	// elapses with a fresh, not previously auto-submitted draft.
	autoSubmitReady func() bool
	onAutoSubmit    func(text string)

	refreshDebounced    func(func())
	autoSubmitDebounced func(func())

	mu                sync.Mutex
	ctx               context.Context
	text              string
	predictions       []prediction.Prediction
	translations      map[Language]string
	predictionsFor    string
	translationsFor   string
	predictionsOpen   bool
	translationsOpen  bool
	lastAutoSubmitted string
}

func newComposer(role string, predictor *predictor, translator *translator) *composer {
	return &composer{
		role:      role,
		emitEvent: func(events.Event) {},

		predictor:  predictor,
		translator: translator,

		sourceLanguage:  func() Language { return "" },
		targetLanguages: func() []Language { return nil },
		autoSubmitReady: func() bool { return false },
		onAutoSubmit:    func(string) {},

		refreshDebounced:    debounce.New(draftRefreshDelay),
		autoSubmitDebounced: debounce.New(autoSubmitDelay),

		ctx: context.Background(),
	}
}

func (c *composer) start(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ctx != nil {
		c.ctx = ctx
	}
}

func (c *composer) Text() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.text
}

// SetText replaces the compose buffer and restarts the enrichment and
// auto-submit windows.
func (c *composer) SetText(text string) {
	c.mu.Lock()
	if text == c.text {
		c.mu.Unlock()
		return
	}

	c.text = text
	c.mu.Unlock()

	c.emitEvent(events.NewCompositionTextChanged(c.role, text))
	c.scheduleRefresh(text)
}

// AppendText appends to the compose buffer, inserting a separating space when
// needed. Final speech transcripts arrive through this path.
func (c *composer) AppendText(text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}

	c.mu.Lock()
	if c.text != "" && !strings.HasSuffix(c.text, " ") {
		c.text += " "
	}
	c.text += text
	current := c.text
	c.mu.Unlock()

	c.emitEvent(events.NewCompositionTextChanged(c.role, current))
	c.scheduleRefresh(current)
}

// Clear empties the buffer and drops pending enrichment results, which become
// stale by virtue of no longer matching the buffer.
func (c *composer) Clear() {
	c.mu.Lock()
	c.text = ""
	c.predictions = nil
	c.translations = nil
	c.predictionsFor = ""
	c.translationsFor = ""
	c.lastAutoSubmitted = ""
	c.mu.Unlock()

	c.emitEvent(events.NewCompositionTextChanged(c.role, ""))
}

func (c *composer) Predictions() []prediction.Prediction {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.predictions
}

func (c *composer) Translations() map[Language]string {
	c.mu.Lock()
	defer c.mu.Unlock()

	translations := make(map[Language]string, len(c.translations))
	for language, text := range c.translations {
		translations[language] = text
	}
	return translations
}

// SetPredictionsOpen toggles the predictions panel. Opening a panel whose
// content was skipped while collapsed fetches immediately instead of waiting
// for the next keystroke's debounce window.
func (c *composer) SetPredictionsOpen(open bool) {
	c.mu.Lock()
	c.predictionsOpen = open
	stale := open && c.predictionsFor != c.text
	text := c.text
	c.mu.Unlock()

	if stale {
		go c.refreshPredictions(text)
	}
}

// SetTranslationsOpen toggles the draft translations panel, fetching on
// reveal like [composer.SetPredictionsOpen].
func (c *composer) SetTranslationsOpen(open bool) {
	c.mu.Lock()
	c.translationsOpen = open
	stale := open && c.translationsFor != c.text
	text := c.text
	c.mu.Unlock()

	if stale {
		go c.refreshTranslations(text)
	}
}

func (c *composer) scheduleRefresh(text string) {
	c.refreshDebounced(func() { c.refresh(text) })

	if c.autoSubmitReady() {
		c.autoSubmitDebounced(func() { c.maybeAutoSubmit(text) })
	}
}

// refresh fetches enrichment for the draft the debounce window settled on.
// Collapsed panels are skipped; their content is fetched lazily on reveal.
func (c *composer) refresh(text string) {
	c.mu.Lock()
	if text != c.text {
		c.mu.Unlock()
		return
	}
	fetchPredictions := c.predictionsOpen && c.predictionsFor != text
	fetchTranslations := c.translationsOpen && c.translationsFor != text
	c.mu.Unlock()

	if fetchPredictions {
		go c.refreshPredictions(text)
	}
	if fetchTranslations {
		go c.refreshTranslations(text)
	}
}

func (c *composer) refreshPredictions(text string) {
	c.mu.Lock()
	ctx := c.ctx
	c.mu.Unlock()

	source := c.sourceLanguage()
	target := source
	if targets := c.targetLanguages(); len(targets) > 0 {
		target = targets[0]
	}

	predictions := c.predictor.Predict(ctx, text, source, target)

	c.mu.Lock()
	if text != c.text {
		c.mu.Unlock()
		return
	}
	c.predictions = predictions
	c.predictionsFor = text
	c.mu.Unlock()

	c.emitEvent(events.NewCompositionPredictionsUpdated(c.role, toPredictedPhrases(predictions)))
}

func (c *composer) refreshTranslations(text string) {
	c.mu.Lock()
	ctx := c.ctx
	c.mu.Unlock()

	translations := c.translator.Translate(ctx, text, c.sourceLanguage(), c.targetLanguages())

	c.mu.Lock()
	if text != c.text {
		c.mu.Unlock()
		return
	}
	c.translations = translations
	c.translationsFor = text
	c.mu.Unlock()

	c.emitEvent(events.NewCompositionTranslationsUpdated(c.role, toLanguageCodes(translations)))
}

// maybeAutoSubmit fires the submission hook once per distinct draft. The
// buffer must still hold the draft the idle window settled on; anything else
// means typing resumed or a manual submit got there first.
func (c *composer) maybeAutoSubmit(text string) {
	if !c.autoSubmitReady() {
		return
	}

	c.mu.Lock()
	if text == "" || text != c.text || text == c.lastAutoSubmitted {
		c.mu.Unlock()
		return
	}
	c.lastAutoSubmitted = text
	c.mu.Unlock()

	c.onAutoSubmit(text)
}

func toPredictedPhrases(predictions []prediction.Prediction) []events.PredictedPhrase {
	phrases := make([]events.PredictedPhrase, 0, len(predictions))
	for _, p := range predictions {
		phrases = append(phrases, events.PredictedPhrase{Phrase: p.Phrase, Probability: p.Probability})
	}
	return phrases
}

func toLanguageCodes(translations map[Language]string) map[string]string {
	converted := make(map[string]string, len(translations))
	for language, text := range translations {
		converted[language.String()] = text
	}
	return converted
}
