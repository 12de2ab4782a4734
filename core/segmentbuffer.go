package orchestration

import (
	"strings"
	"sync"
)

// TODO: Optimize memory at some point, it is not a great idea to just append
// to a slice when we already consumed a part of it. But it needs to be synced
// properly, probably a ring buffer makes sense.

// segmentBuffer accumulates streamed reply segments so a consumer can render
// them while generation is still running. Segments iterates in arrival order
// and blocks until the producer either appends more or marks the reply
// complete.
type segmentBuffer struct {
	mu               sync.Mutex
	segments         []string
	segmentsConsumed int
	complete         bool
	updateSignal     chan struct{}
	cleared          bool
}

func newSegmentBuffer() *segmentBuffer {
	return &segmentBuffer{
		updateSignal: make(chan struct{}, 1),
	}
}

func (b *segmentBuffer) AddSegment(segment string) {
	b.mu.Lock()
	b.segments = append(b.segments, segment)
	b.mu.Unlock()
	b.signalUpdate()
}

func (b *segmentBuffer) Complete() {
	b.mu.Lock()
	b.complete = true
	b.mu.Unlock()
	b.signalUpdate()
}

func (b *segmentBuffer) Segments(yield func(string) bool) {
	for {
		b.mu.Lock()
		if b.cleared {
			b.mu.Unlock()
			return
		}

		if b.segmentsConsumed < len(b.segments) {
			segment := b.segments[b.segmentsConsumed]
			b.segmentsConsumed++
			b.mu.Unlock()
			if !yield(segment) {
				return
			}
			continue
		}

		if b.complete {
			b.mu.Unlock()
			return
		}

		b.mu.Unlock()
		<-b.updateSignal
	}
}

func (b *segmentBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	return strings.Join(b.segments, "")
}

func (b *segmentBuffer) Clear() {
	b.mu.Lock()
	b.cleared = true
	b.mu.Unlock()
	b.signalUpdate()
}

func (b *segmentBuffer) signalUpdate() {
	select {
	case b.updateSignal <- struct{}{}:
	default:
	}
}
