package orchestration

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/bep/debounce"
	"github.com/koscakluka/duolog-core/core/events"
	"github.com/koscakluka/duolog-core/core/prediction"
)

type stubPhrasePredictor struct {
	mu    sync.Mutex
	texts []string
}

func (p *stubPhrasePredictor) PhrasePredictions(_ context.Context, text, _, _ string, count int) ([]prediction.Prediction, error) {
	p.mu.Lock()
	p.texts = append(p.texts, text)
	p.mu.Unlock()

	predictions := make([]prediction.Prediction, 0, count)
	for i := 0; i < count; i++ {
		predictions = append(predictions, prediction.Prediction{Phrase: text + "!", Probability: 1})
	}
	return predictions, nil
}

func (p *stubPhrasePredictor) requestedTexts() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string{}, p.texts...)
}

type stubMultiTranslator struct {
	mu    sync.Mutex
	texts []string
}

func (t *stubMultiTranslator) TranslateMultiple(_ context.Context, text, _ string, targetLanguages []string) (map[string]string, error) {
	t.mu.Lock()
	t.texts = append(t.texts, text)
	t.mu.Unlock()

	translations := make(map[string]string, len(targetLanguages))
	for _, language := range targetLanguages {
		translations[language] = text + " (" + language + ")"
	}
	return translations, nil
}

func (t *stubMultiTranslator) requestedTexts() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string{}, t.texts...)
}

// immediateDebounce collapses the debounce window so tests exercise the
// settle path without waiting for real typing pauses.
func immediateDebounce(f func()) { f() }

func newTestComposer(predictorStub *stubPhrasePredictor, translatorStub *stubMultiTranslator) *composer {
	c := newComposer("user", newPredictor(predictorStub), newTranslator(translatorStub))
	c.sourceLanguage = func() Language { return "en" }
	c.targetLanguages = func() []Language { return []Language{"fr"} }
	c.refreshDebounced = immediateDebounce
	c.autoSubmitDebounced = immediateDebounce
	return c
}

func awaitCondition(t *testing.T, what string, condition func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !condition() {
		if time.Now().After(deadline) {
			t.Fatalf("expected %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestComposerSetTextEmitsChangeAndSkipsIdenticalText(t *testing.T) {
	c := newTestComposer(&stubPhrasePredictor{}, &stubMultiTranslator{})

	var mu sync.Mutex
	changes := []string{}
	c.emitEvent = func(event events.Event) {
		if changed, ok := event.(events.CompositionTextChanged); ok {
			mu.Lock()
			changes = append(changes, changed.Text)
			mu.Unlock()
		}
	}

	c.SetText("hello")
	c.SetText("hello")
	c.SetText("hello there")

	mu.Lock()
	defer mu.Unlock()
	if len(changes) != 2 || changes[0] != "hello" || changes[1] != "hello there" {
		t.Fatalf("expected one change per distinct text, got %v", changes)
	}
	if c.Text() != "hello there" {
		t.Fatalf("expected buffer to hold the latest text, got %q", c.Text())
	}
}

func TestComposerAppendTextInsertsSeparatingSpace(t *testing.T) {
	c := newTestComposer(&stubPhrasePredictor{}, &stubMultiTranslator{})

	c.AppendText("hello")
	c.AppendText("  there  ")
	c.AppendText("")

	if c.Text() != "hello there" {
		t.Fatalf("expected appended segments joined by a space, got %q", c.Text())
	}
}

func TestComposerSkipsEnrichmentWhilePanelsClosed(t *testing.T) {
	predictorStub := &stubPhrasePredictor{}
	translatorStub := &stubMultiTranslator{}
	c := newTestComposer(predictorStub, translatorStub)

	c.SetText("hello")

	time.Sleep(50 * time.Millisecond)
	if texts := predictorStub.requestedTexts(); len(texts) != 0 {
		t.Fatalf("expected no prediction fetches while the panel is closed, got %v", texts)
	}
	if texts := translatorStub.requestedTexts(); len(texts) != 0 {
		t.Fatalf("expected no translation fetches while the panel is closed, got %v", texts)
	}
}

func TestComposerFetchesEnrichmentForOpenPanels(t *testing.T) {
	predictorStub := &stubPhrasePredictor{}
	translatorStub := &stubMultiTranslator{}
	c := newTestComposer(predictorStub, translatorStub)

	c.SetPredictionsOpen(true)
	c.SetTranslationsOpen(true)
	c.SetText("hello")

	awaitCondition(t, "predictions fetched for the draft", func() bool {
		return len(c.Predictions()) > 0
	})
	awaitCondition(t, "translations fetched for the draft", func() bool {
		return len(c.Translations()) > 0
	})

	if translations := c.Translations(); translations["fr"] != "hello (fr)" {
		t.Fatalf("expected a draft translation per target language, got %v", translations)
	}
}

func TestComposerFetchesLazilyWhenPanelOpens(t *testing.T) {
	predictorStub := &stubPhrasePredictor{}
	c := newTestComposer(predictorStub, &stubMultiTranslator{})

	c.SetText("hello")
	time.Sleep(50 * time.Millisecond)
	if texts := predictorStub.requestedTexts(); len(texts) != 0 {
		t.Fatalf("expected no fetch before the panel is revealed, got %v", texts)
	}

	c.SetPredictionsOpen(true)

	awaitCondition(t, "a fetch on panel reveal", func() bool {
		return len(predictorStub.requestedTexts()) == 1
	})

	// Reopening without a buffer change must not refetch.
	c.SetPredictionsOpen(false)
	c.SetPredictionsOpen(true)
	time.Sleep(50 * time.Millisecond)
	if texts := predictorStub.requestedTexts(); len(texts) != 1 {
		t.Fatalf("expected a single fetch for an unchanged draft, got %v", texts)
	}
}

func TestComposerDropsStaleEnrichmentResults(t *testing.T) {
	translatorStub := &stubMultiTranslator{}
	c := newTestComposer(&stubPhrasePredictor{}, translatorStub)

	c.SetTranslationsOpen(true)
	c.SetText("hello")

	awaitCondition(t, "the first fetch to land", func() bool {
		return len(translatorStub.requestedTexts()) >= 1
	})

	// The buffer moves on; any result stamped with the old draft is stale.
	c.SetText("hello there")

	awaitCondition(t, "translations matching the current draft", func() bool {
		return c.Translations()["fr"] == "hello there (fr)"
	})
	if stale := c.Translations()["fr"]; stale == "hello (fr)" {
		t.Fatalf("expected the stale result to be discarded, got %q", stale)
	}
}

func TestComposerDebounceCollapsesRapidEdits(t *testing.T) {
	predictorStub := &stubPhrasePredictor{}
	c := newTestComposer(predictorStub, &stubMultiTranslator{})
	c.refreshDebounced = debounce.New(50 * time.Millisecond)

	c.SetPredictionsOpen(true)
	c.SetText("h")
	c.SetText("he")
	c.SetText("hello")

	awaitCondition(t, "a fetch once typing pauses", func() bool {
		return len(predictorStub.requestedTexts()) >= 1
	})

	time.Sleep(150 * time.Millisecond)
	if texts := predictorStub.requestedTexts(); len(texts) != 1 || texts[0] != "hello" {
		t.Fatalf("expected one fetch for the settled draft only, got %v", texts)
	}
}

func TestComposerAutoSubmitFiresOncePerDraft(t *testing.T) {
	c := newTestComposer(&stubPhrasePredictor{}, &stubMultiTranslator{})
	c.autoSubmitReady = func() bool { return true }

	var mu sync.Mutex
	submitted := []string{}
	c.onAutoSubmit = func(text string) {
		mu.Lock()
		submitted = append(submitted, text)
		mu.Unlock()
	}

	c.SetText("hello")
	c.scheduleRefresh(c.Text())

	mu.Lock()
	count := len(submitted)
	mu.Unlock()
	if count != 1 {
		t.Fatalf("expected one auto-submission per draft, got %v", submitted)
	}

	c.SetText("hello there")

	mu.Lock()
	defer mu.Unlock()
	if len(submitted) != 2 || submitted[1] != "hello there" {
		t.Fatalf("expected a new draft to auto-submit again, got %v", submitted)
	}
}

func TestComposerClearResetsDraftAndEnrichment(t *testing.T) {
	c := newTestComposer(&stubPhrasePredictor{}, &stubMultiTranslator{})

	c.SetPredictionsOpen(true)
	c.SetTranslationsOpen(true)
	c.SetText("hello")

	awaitCondition(t, "enrichment before clearing", func() bool {
		return len(c.Predictions()) > 0 && len(c.Translations()) > 0
	})

	c.Clear()

	if c.Text() != "" {
		t.Fatalf("expected an empty buffer after clear, got %q", c.Text())
	}
	if predictions := c.Predictions(); len(predictions) != 0 {
		t.Fatalf("expected predictions dropped after clear, got %v", predictions)
	}
	if translations := c.Translations(); len(translations) != 0 {
		t.Fatalf("expected translations dropped after clear, got %v", translations)
	}
}
