package orchestration

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestHighlightScheduleAdvancesThroughTokens(t *testing.T) {
	schedule := newHighlightSchedule("one two three")

	if schedule.isEmpty() {
		t.Fatalf("expected three-token schedule to not be empty")
	}
	if schedule.index != -1 {
		t.Fatalf("expected schedule to start before the first token, got index %d", schedule.index)
	}

	indexes := []int{}
	for {
		next, ok := schedule.advance()
		if !ok {
			break
		}
		schedule = next
		indexes = append(indexes, schedule.index)
	}

	if len(indexes) != 3 || indexes[0] != 0 || indexes[1] != 1 || indexes[2] != 2 {
		t.Fatalf("expected indexes [0 1 2], got %v", indexes)
	}

	if _, ok := schedule.advance(); ok {
		t.Fatalf("expected exhausted schedule to refuse further advances")
	}
}

func TestHighlightScheduleEmptyText(t *testing.T) {
	for _, text := range []string{"", "   ", "\n\t"} {
		if schedule := newHighlightSchedule(text); !schedule.isEmpty() {
			t.Fatalf("expected %q to produce an empty schedule", text)
		}
	}
}

func TestHighlightIntervalClampsRate(t *testing.T) {
	if got, want := highlightInterval(60), time.Second; got != want {
		t.Fatalf("expected 60 wpm interval %v, got %v", want, got)
	}
	if got, want := highlightInterval(0), highlightInterval(MinWordsPerMinute); got != want {
		t.Fatalf("expected sub-minimum rate to clamp to %v, got %v", want, got)
	}
	if got, want := highlightInterval(100000), highlightInterval(MaxWordsPerMinute); got != want {
		t.Fatalf("expected over-maximum rate to clamp to %v, got %v", want, got)
	}
}

func TestHighlightSimulatorEmitsEveryIndexInOrder(t *testing.T) {
	var mu sync.Mutex
	indexes := []int{}
	keys := map[string]bool{}

	simulator := newHighlightSimulator(func(key string, index int) {
		mu.Lock()
		indexes = append(indexes, index)
		keys[key] = true
		mu.Unlock()
	})

	playback := simulator.Simulate(context.Background(), "one two three", MaxWordsPerMinute, "response")

	select {
	case <-playback.Done():
	case <-time.After(2 * time.Second):
		t.Fatalf("expected simulation to finish")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(indexes) != 3 || indexes[0] != 0 || indexes[1] != 1 || indexes[2] != 2 {
		t.Fatalf("expected indexes [0 1 2], got %v", indexes)
	}
	if len(keys) != 1 || !keys["response"] {
		t.Fatalf("expected every index to carry the run key, got %v", keys)
	}
}

func TestHighlightSimulatorEmptyTextResolvesImmediately(t *testing.T) {
	simulator := newHighlightSimulator(func(string, int) {
		t.Errorf("expected no index emissions for empty text")
	})

	playback := simulator.Simulate(context.Background(), "   ", 200, "lastSent")
	if !playback.Finished() {
		t.Fatalf("expected empty-text simulation to resolve immediately")
	}
}

func TestHighlightSimulatorStopResolvesActiveRun(t *testing.T) {
	simulator := newHighlightSimulator(nil)

	playback := simulator.Simulate(context.Background(), "a very long sentence indeed", MinWordsPerMinute, "lastSent")
	if playback.Finished() {
		t.Fatalf("expected slow simulation to still be running")
	}

	simulator.Stop()

	select {
	case <-playback.Done():
	case <-time.After(time.Second):
		t.Fatalf("expected stop to resolve the active run")
	}

	simulator.Stop()
}

func TestHighlightSimulatorNewRunTerminatesPrevious(t *testing.T) {
	simulator := newHighlightSimulator(nil)

	first := simulator.Simulate(context.Background(), "one two three four five", MinWordsPerMinute, "first")
	second := simulator.Simulate(context.Background(), "six", MaxWordsPerMinute, "second")

	select {
	case <-first.Done():
	case <-time.After(time.Second):
		t.Fatalf("expected starting a new run to terminate the previous one")
	}

	select {
	case <-second.Done():
	case <-time.After(2 * time.Second):
		t.Fatalf("expected the new run to finish on its own")
	}
}
