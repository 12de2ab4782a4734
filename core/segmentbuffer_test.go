package orchestration

import (
	"testing"
	"time"
)

func TestSegmentBufferIteratesInArrivalOrder(t *testing.T) {
	buffer := newSegmentBuffer()
	buffer.AddSegment("Hello")
	buffer.AddSegment(", ")
	buffer.AddSegment("world")
	buffer.Complete()

	var collected []string
	for segment := range buffer.Segments {
		collected = append(collected, segment)
	}

	if len(collected) != 3 || collected[0] != "Hello" || collected[1] != ", " || collected[2] != "world" {
		t.Fatalf("expected segments in arrival order, got %v", collected)
	}
	if buffer.String() != "Hello, world" {
		t.Fatalf("expected the joined reply, got %q", buffer.String())
	}
}

func TestSegmentBufferBlocksUntilProducerAppends(t *testing.T) {
	buffer := newSegmentBuffer()

	collected := make(chan string, 2)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for segment := range buffer.Segments {
			collected <- segment
		}
	}()

	buffer.AddSegment("first")
	select {
	case segment := <-collected:
		if segment != "first" {
			t.Fatalf("expected the first segment, got %q", segment)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("expected the consumer to receive the first segment")
	}

	select {
	case <-done:
		t.Fatalf("expected the consumer to keep waiting for more segments")
	case <-time.After(50 * time.Millisecond):
	}

	buffer.AddSegment("second")
	buffer.Complete()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("expected the consumer to finish after completion")
	}

	if segment := <-collected; segment != "second" {
		t.Fatalf("expected the second segment, got %q", segment)
	}
}

func TestSegmentBufferCompleteUnblocksEmptyIteration(t *testing.T) {
	buffer := newSegmentBuffer()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for range buffer.Segments {
			t.Error("expected no segments")
		}
	}()

	buffer.Complete()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("expected completion to unblock the consumer")
	}
}

func TestSegmentBufferClearStopsIteration(t *testing.T) {
	buffer := newSegmentBuffer()
	buffer.AddSegment("pending")

	done := make(chan struct{})
	go func() {
		defer close(done)
		for range buffer.Segments {
		}
	}()

	buffer.Clear()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("expected clearing to stop the consumer")
	}
}

func TestSegmentBufferEarlyBreakStopsIteration(t *testing.T) {
	buffer := newSegmentBuffer()
	buffer.AddSegment("one")
	buffer.AddSegment("two")
	buffer.Complete()

	var collected []string
	for segment := range buffer.Segments {
		collected = append(collected, segment)
		break
	}

	if len(collected) != 1 || collected[0] != "one" {
		t.Fatalf("expected iteration to stop after the break, got %v", collected)
	}
}
