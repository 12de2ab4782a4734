package orchestration

import (
	"context"
	"sync"
	"testing"
	"time"
)

type playbackRecorder struct {
	mu         sync.Mutex
	keyChanges []string
	highlights []int
}

func (r *playbackRecorder) callbacks() playbackCallbacks {
	return playbackCallbacks{
		onPlayingKeyChange: func(key string) {
			r.mu.Lock()
			r.keyChanges = append(r.keyChanges, key)
			r.mu.Unlock()
		},
		onHighlightIndexChange: func(_ string, index int) {
			r.mu.Lock()
			r.highlights = append(r.highlights, index)
			r.mu.Unlock()
		},
	}
}

func (r *playbackRecorder) recordedKeyChanges() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string{}, r.keyChanges...)
}

func (r *playbackRecorder) recordedHighlights() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int{}, r.highlights...)
}

func newTestController(t *testing.T, recorder *playbackRecorder, synthesisClient *fakeSynthesisClient, wordsPerMinute int) *playbackController {
	t.Helper()
	sequencer := newTestSequencer(synthesisClient)
	t.Cleanup(sequencer.Stop)
	return newPlaybackController(sequencer, RoleUser, false, recorder.callbacks(), wordsPerMinute)
}

func TestControllerHighlightModeEmitsKeysAndIndices(t *testing.T) {
	recorder := &playbackRecorder{}
	controller := newTestController(t, recorder, &fakeSynthesisClient{}, MaxWordsPerMinute)
	defer controller.Stop()

	playback := controller.PlaySequence(context.Background(),
		[]PlaybackItem{
			{Text: "one two", Key: "lastSent"},
			{Text: "three", Key: "translation-fr"},
		},
		PlaybackModeHighlight,
	)
	awaitPlayback(t, playback, "highlight sequence")

	keyChanges := recorder.recordedKeyChanges()
	expected := []string{"lastSent", "", "translation-fr", ""}
	if len(keyChanges) != len(expected) {
		t.Fatalf("expected key changes %v, got %v", expected, keyChanges)
	}
	for i, key := range expected {
		if keyChanges[i] != key {
			t.Fatalf("expected key changes %v, got %v", expected, keyChanges)
		}
	}

	highlights := recorder.recordedHighlights()
	if len(highlights) != 3 || highlights[0] != 0 || highlights[1] != 1 || highlights[2] != 0 {
		t.Fatalf("expected word indices [0 1 0] across both items, got %v", highlights)
	}

	if state := controller.State(); state.Key != "" {
		t.Fatalf("expected state to clear after the sequence, got key %q", state.Key)
	}
}

func TestControllerAudioModeEmitsKeyTransitions(t *testing.T) {
	recorder := &playbackRecorder{}
	controller := newTestController(t, recorder, &fakeSynthesisClient{}, defaultWordsPerMinute)
	defer controller.Stop()

	playback := controller.PlaySequence(context.Background(),
		[]PlaybackItem{
			{Text: "hello", Language: "en", Key: "lastSent"},
			{Text: "bonjour", Language: "fr", Key: "translation-fr"},
		},
		PlaybackModeAudio,
	)
	awaitPlayback(t, playback, "audio sequence")

	keyChanges := recorder.recordedKeyChanges()
	expected := []string{"lastSent", "", "translation-fr", ""}
	if len(keyChanges) != len(expected) {
		t.Fatalf("expected key changes %v, got %v", expected, keyChanges)
	}
	for i, key := range expected {
		if keyChanges[i] != key {
			t.Fatalf("expected key changes %v, got %v", expected, keyChanges)
		}
	}
}

func TestControllerManualAndDelayModesResolveSilently(t *testing.T) {
	recorder := &playbackRecorder{}
	controller := newTestController(t, recorder, &fakeSynthesisClient{}, defaultWordsPerMinute)
	defer controller.Stop()

	for _, mode := range []PlaybackMode{PlaybackModeManual, PlaybackModeDelay} {
		playback := controller.PlayItem(context.Background(), PlaybackItem{Text: "hello", Key: "lastSent"}, mode)
		if !playback.Finished() {
			t.Fatalf("expected mode %q to resolve immediately", mode)
		}
	}

	if keyChanges := recorder.recordedKeyChanges(); len(keyChanges) != 0 {
		t.Fatalf("expected no key changes in manual or delay mode, got %v", keyChanges)
	}
}

func TestControllerStopCancelsHighlightRun(t *testing.T) {
	recorder := &playbackRecorder{}
	controller := newTestController(t, recorder, &fakeSynthesisClient{}, MinWordsPerMinute)

	playback := controller.PlayItem(context.Background(),
		PlaybackItem{Text: "one two three four five six seven", Key: "lastSent"},
		PlaybackModeHighlight,
	)

	deadline := time.Now().Add(2 * time.Second)
	for len(recorder.recordedKeyChanges()) == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("expected the highlight run to activate its key")
		}
		time.Sleep(5 * time.Millisecond)
	}

	controller.Stop()
	awaitPlayback(t, playback, "stopped highlight run")
}

func TestControllerHighlightRunWaitsForActiveAudioRun(t *testing.T) {
	recorder := &playbackRecorder{}
	synthesisClient := &fakeSynthesisClient{block: make(chan struct{})}
	controller := newTestController(t, recorder, synthesisClient, MaxWordsPerMinute)

	audio := controller.PlayItem(context.Background(),
		PlaybackItem{Text: "spoken", Language: "en", Key: "lastSent"},
		PlaybackModeAudio,
	)
	awaitSynthesisCalls(t, synthesisClient, 1)

	highlight := controller.PlayItem(context.Background(),
		PlaybackItem{Text: "one two", Key: "translation-fr"},
		PlaybackModeHighlight,
	)

	time.Sleep(50 * time.Millisecond)
	if highlight.Finished() {
		t.Fatalf("expected the highlight run to wait for the audio run")
	}
	if highlights := recorder.recordedHighlights(); len(highlights) != 0 {
		t.Fatalf("expected no word highlights while audio is playing, got %v", highlights)
	}
	if keyChanges := recorder.recordedKeyChanges(); len(keyChanges) != 1 || keyChanges[0] != "lastSent" {
		t.Fatalf("expected only the audio key to be active, got %v", keyChanges)
	}

	synthesisClient.release()
	awaitPlayback(t, audio, "audio run")
	awaitPlayback(t, highlight, "highlight run")

	keyChanges := recorder.recordedKeyChanges()
	expected := []string{"lastSent", "", "translation-fr", ""}
	if len(keyChanges) != len(expected) {
		t.Fatalf("expected key changes %v, got %v", expected, keyChanges)
	}
	for i, key := range expected {
		if keyChanges[i] != key {
			t.Fatalf("expected key changes %v, got %v", expected, keyChanges)
		}
	}
}

func TestControllerSupersededCompletionLeavesStateUntouched(t *testing.T) {
	recorder := &playbackRecorder{}
	controller := newTestController(t, recorder, &fakeSynthesisClient{}, defaultWordsPerMinute)

	firstGeneration := controller.activate("lastSent", -1)
	secondGeneration := controller.activate("response", -1)

	controller.deactivate("lastSent", firstGeneration)
	if state := controller.State(); state.Key != "response" {
		t.Fatalf("expected a superseded completion to be discarded, got key %q", state.Key)
	}

	controller.onHighlightIndex("lastSent", 3)
	if state := controller.State(); state.WordIndex != -1 {
		t.Fatalf("expected a superseded highlight advance to be discarded, got index %d", state.WordIndex)
	}

	controller.deactivate("response", secondGeneration)
	if state := controller.State(); state.Key != "" {
		t.Fatalf("expected the current completion to clear state, got key %q", state.Key)
	}
}

func TestControllerEmptySequenceResolvesImmediately(t *testing.T) {
	controller := newTestController(t, &playbackRecorder{}, &fakeSynthesisClient{}, defaultWordsPerMinute)
	defer controller.Stop()

	if playback := controller.PlaySequence(context.Background(), nil, PlaybackModeHighlight); !playback.Finished() {
		t.Fatalf("expected an empty sequence to resolve immediately")
	}
}
