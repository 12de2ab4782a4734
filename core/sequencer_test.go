package orchestration

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/koscakluka/duolog-core/core/texttospeech"
)

func TestSequencerPlaysItemsInOrder(t *testing.T) {
	synthesisClient := &fakeSynthesisClient{}
	sequencer := newTestSequencer(synthesisClient)
	defer sequencer.Stop()

	var mu sync.Mutex
	started := []string{}
	ended := []string{}

	playback := sequencer.Play(context.Background(),
		[]PlaybackItem{
			{Text: "hello", Language: "en", Key: "lastSent"},
			{Text: "bonjour", Language: "fr", Key: "translation-fr"},
		},
		WithInterItemDelay(0),
		withSequenceObserver(sequenceObserver{
			OnItemStart: func(item PlaybackItem) {
				mu.Lock()
				started = append(started, item.Key)
				mu.Unlock()
			},
			OnItemEnd: func(item PlaybackItem) {
				mu.Lock()
				ended = append(ended, item.Key)
				mu.Unlock()
			},
		}),
	)

	awaitPlayback(t, playback, "sequence")

	mu.Lock()
	defer mu.Unlock()
	if len(started) != 2 || started[0] != "lastSent" || started[1] != "translation-fr" {
		t.Fatalf("expected items to start in queue order, got %v", started)
	}
	if len(ended) != 2 || ended[0] != "lastSent" || ended[1] != "translation-fr" {
		t.Fatalf("expected items to end in queue order, got %v", ended)
	}
	if texts := synthesisClient.synthesizedTexts(); len(texts) != 2 || texts[0] != "hello" || texts[1] != "bonjour" {
		t.Fatalf("expected one synthesis request per item in order, got %v", texts)
	}
}

func TestSequencerFailingItemDoesNotAbortQueue(t *testing.T) {
	synthesisClient := &fakeSynthesisClient{failOn: map[string]bool{"hello": true}}
	sequencer := newTestSequencer(synthesisClient)
	defer sequencer.Stop()

	var mu sync.Mutex
	ended := []string{}

	playback := sequencer.Play(context.Background(),
		[]PlaybackItem{
			{Text: "hello", Language: "en", Key: "lastSent"},
			{Text: "bonjour", Language: "fr", Key: "translation-fr"},
		},
		WithInterItemDelay(0),
		withSequenceObserver(sequenceObserver{
			OnItemEnd: func(item PlaybackItem) {
				mu.Lock()
				ended = append(ended, item.Key)
				mu.Unlock()
			},
		}),
	)

	awaitPlayback(t, playback, "sequence with failing item")

	mu.Lock()
	defer mu.Unlock()
	if len(ended) != 2 {
		t.Fatalf("expected both items to end despite the first failing, got %v", ended)
	}
}

func TestSequencerQueuesBehindActiveRunWithoutPreemption(t *testing.T) {
	synthesisClient := &fakeSynthesisClient{block: make(chan struct{})}
	sequencer := newTestSequencer(synthesisClient)
	defer sequencer.Stop()

	first := sequencer.Play(context.Background(),
		[]PlaybackItem{{Text: "first", Language: "en", Key: "lastSent"}},
		WithInterItemDelay(0),
	)
	second := sequencer.Play(context.Background(),
		[]PlaybackItem{{Text: "second", Language: "en", Key: "response"}},
		WithInterItemDelay(0),
	)

	time.Sleep(50 * time.Millisecond)
	if texts := synthesisClient.synthesizedTexts(); len(texts) != 1 || texts[0] != "first" {
		t.Fatalf("expected the second run to wait for the active run, got %v", texts)
	}
	if first.Finished() || second.Finished() {
		t.Fatalf("expected neither run to have finished yet")
	}

	synthesisClient.release()

	awaitPlayback(t, first, "first run")
	awaitPlayback(t, second, "second run")

	if texts := synthesisClient.synthesizedTexts(); len(texts) != 2 || texts[1] != "second" {
		t.Fatalf("expected the second run to play after the first, got %v", texts)
	}
}

func TestSequencerPreemptsActiveRunOfSameOwner(t *testing.T) {
	synthesisClient := &fakeSynthesisClient{block: make(chan struct{})}
	sequencer := newTestSequencer(synthesisClient)
	defer sequencer.Stop()

	first := sequencer.Play(context.Background(),
		[]PlaybackItem{
			{Text: "first", Language: "en", Key: "lastSent"},
			{Text: "never reached", Language: "en", Key: "translation-fr"},
		},
		WithInterItemDelay(0),
		withRunOwner(RoleUser),
	)

	awaitSynthesisCalls(t, synthesisClient, 1)

	second := sequencer.Play(context.Background(),
		[]PlaybackItem{{Text: "second", Language: "en", Key: "lastSent"}},
		WithInterItemDelay(0),
		withRunOwner(RoleUser),
		withPreemption(true),
	)

	awaitPlayback(t, first, "pre-empted run")

	synthesisClient.release()
	awaitPlayback(t, second, "pre-empting run")

	for _, text := range synthesisClient.synthesizedTexts() {
		if text == "never reached" {
			t.Fatalf("expected the pre-empted run's remaining items to be discarded")
		}
	}
}

func TestSequencerPreemptionInvalidatesQueuedRunsOfSameOwner(t *testing.T) {
	synthesisClient := &fakeSynthesisClient{block: make(chan struct{})}
	sequencer := newTestSequencer(synthesisClient)
	defer sequencer.Stop()

	active := sequencer.Play(context.Background(),
		[]PlaybackItem{{Text: "active", Language: "en", Key: "lastSent"}},
		WithInterItemDelay(0),
		withRunOwner(RoleUser),
	)
	queued := sequencer.Play(context.Background(),
		[]PlaybackItem{{Text: "queued", Language: "en", Key: "translation-fr"}},
		WithInterItemDelay(0),
		withRunOwner(RoleUser),
	)

	awaitSynthesisCalls(t, synthesisClient, 1)

	superseding := sequencer.Play(context.Background(),
		[]PlaybackItem{{Text: "superseding", Language: "en", Key: "lastSent"}},
		WithInterItemDelay(0),
		withRunOwner(RoleUser),
		withPreemption(true),
	)

	awaitPlayback(t, active, "superseded active run")
	awaitPlayback(t, queued, "superseded queued run")

	synthesisClient.release()
	awaitPlayback(t, superseding, "superseding run")

	for _, text := range synthesisClient.synthesizedTexts() {
		if text == "queued" {
			t.Fatalf("expected the superseded queued run to never play, got %v", synthesisClient.synthesizedTexts())
		}
	}
	if texts := synthesisClient.synthesizedTexts(); texts[len(texts)-1] != "superseding" {
		t.Fatalf("expected the superseding run to play last, got %v", texts)
	}
}

func TestSequencerPreemptionSparesOtherOwnersRuns(t *testing.T) {
	synthesisClient := &fakeSynthesisClient{block: make(chan struct{})}
	sequencer := newTestSequencer(synthesisClient)
	defer sequencer.Stop()

	userRun := sequencer.Play(context.Background(),
		[]PlaybackItem{{Text: "user turn", Language: "en", Key: "lastSent"}},
		WithInterItemDelay(0),
		withRunOwner(RoleUser),
	)

	awaitSynthesisCalls(t, synthesisClient, 1)

	assistantRun := sequencer.Play(context.Background(),
		[]PlaybackItem{{Text: "assistant turn", Language: "en", Key: "response"}},
		WithInterItemDelay(0),
		withRunOwner(RoleAssistant),
		withPreemption(true),
	)

	time.Sleep(50 * time.Millisecond)
	if userRun.Finished() {
		t.Fatalf("expected the other party's active run to keep playing")
	}
	if assistantRun.Finished() {
		t.Fatalf("expected the pre-empting run to queue behind the other party")
	}
	if texts := synthesisClient.synthesizedTexts(); len(texts) != 1 {
		t.Fatalf("expected a single synthesis request in flight, got %v", texts)
	}

	synthesisClient.release()
	awaitPlayback(t, userRun, "user run")
	awaitPlayback(t, assistantRun, "assistant run")
}

func TestSequencerCancelRunsTargetsOneOwner(t *testing.T) {
	synthesisClient := &fakeSynthesisClient{block: make(chan struct{})}
	sequencer := newTestSequencer(synthesisClient)
	defer sequencer.Stop()

	userRun := sequencer.Play(context.Background(),
		[]PlaybackItem{{Text: "user turn", Language: "en", Key: "lastSent"}},
		WithInterItemDelay(0),
		withRunOwner(RoleUser),
	)
	assistantRun := sequencer.Play(context.Background(),
		[]PlaybackItem{{Text: "assistant turn", Language: "en", Key: "response"}},
		WithInterItemDelay(0),
		withRunOwner(RoleAssistant),
	)

	awaitSynthesisCalls(t, synthesisClient, 1)
	sequencer.cancelRuns(RoleUser)

	awaitPlayback(t, userRun, "cancelled user run")
	if assistantRun.Finished() {
		t.Fatalf("expected the assistant's queued run to survive the user's cancellation")
	}

	synthesisClient.release()
	awaitPlayback(t, assistantRun, "assistant run")

	if texts := synthesisClient.synthesizedTexts(); texts[len(texts)-1] != "assistant turn" {
		t.Fatalf("expected the assistant's run to still play, got %v", texts)
	}
}

func TestSequencerStopResolvesQueuedRuns(t *testing.T) {
	synthesisClient := &fakeSynthesisClient{block: make(chan struct{})}
	sequencer := newTestSequencer(synthesisClient)

	active := sequencer.Play(context.Background(),
		[]PlaybackItem{{Text: "active", Language: "en", Key: "lastSent"}},
		WithInterItemDelay(0),
	)
	queued := sequencer.Play(context.Background(),
		[]PlaybackItem{{Text: "queued", Language: "en", Key: "response"}},
		WithInterItemDelay(0),
	)

	awaitSynthesisCalls(t, synthesisClient, 1)
	sequencer.Stop()

	awaitPlayback(t, active, "active run after stop")
	awaitPlayback(t, queued, "queued run after stop")

	if playback := sequencer.Play(context.Background(), []PlaybackItem{{Text: "late", Key: "lastSent"}}); !playback.Finished() {
		t.Fatalf("expected playing on a stopped sequencer to resolve immediately")
	}
}

func TestSequencerEmptyQueueResolvesImmediately(t *testing.T) {
	sequencer := newTestSequencer(&fakeSynthesisClient{})
	defer sequencer.Stop()

	if playback := sequencer.Play(context.Background(), nil); !playback.Finished() {
		t.Fatalf("expected an empty queue to resolve immediately")
	}
}

func newTestSequencer(client *fakeSynthesisClient) *sequencer {
	return newSequencer(newSynthesizer(client), newAudioOutput(&snapshotAudioOutputV1{}))
}

func awaitPlayback(t *testing.T, playback *Playback, what string) {
	t.Helper()
	select {
	case <-playback.Done():
	case <-time.After(2 * time.Second):
		t.Fatalf("expected %s to resolve", what)
	}
}

func awaitSynthesisCalls(t *testing.T, client *fakeSynthesisClient, count int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if len(client.synthesizedTexts()) >= count {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("expected %d synthesis calls, got %v", count, client.synthesizedTexts())
}

type fakeSynthesisClient struct {
	mu     sync.Mutex
	texts  []string
	failOn map[string]bool

	// block, when set, makes Synthesize wait for release or ctx cancellation.
	block chan struct{}
}

func (c *fakeSynthesisClient) Synthesize(ctx context.Context, text string, _ ...texttospeech.SynthesisOption) ([]byte, error) {
	c.mu.Lock()
	c.texts = append(c.texts, text)
	block := c.block
	fail := c.failOn[text]
	c.mu.Unlock()

	if block != nil {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-block:
		}
	}
	if fail {
		return nil, errors.New("synthesis failed")
	}

	return []byte{0x01, 0x02}, nil
}

func (c *fakeSynthesisClient) synthesizedTexts() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string{}, c.texts...)
}

func (c *fakeSynthesisClient) release() {
	c.mu.Lock()
	defer c.mu.Unlock()
	select {
	case <-c.block:
	default:
		close(c.block)
	}
}
