package orchestration

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/koscakluka/duolog-core/internal/utils"
)

// Words-per-minute bounds for highlight pacing. Rates outside this range are
// clamped, not rejected.
const (
	MinWordsPerMinute = 50
	MaxWordsPerMinute = 1000
)

// highlightSchedule is the pure pacing step over one item's tokens. The
// ticker cadence lives in the simulator; the schedule itself knows nothing
// about time, so the two can be tested apart.
type highlightSchedule struct {
	tokens []string
	index  int
}

func newHighlightSchedule(text string) highlightSchedule {
	return highlightSchedule{tokens: strings.Fields(text), index: -1}
}

// advance moves the emphasis to the next token. Returns false once the last
// token has already been emphasized.
func (s highlightSchedule) advance() (highlightSchedule, bool) {
	if s.index+1 >= len(s.tokens) {
		return s, false
	}

	s.index++
	return s, true
}

func (s highlightSchedule) isEmpty() bool { return len(s.tokens) == 0 }

// highlightInterval converts a words-per-minute rate into the per-word tick
// interval, clamping the rate into the supported range.
func highlightInterval(wordsPerMinute int) time.Duration {
	return time.Minute / time.Duration(utils.Clamp(wordsPerMinute, MinWordsPerMinute, MaxWordsPerMinute))
}

// highlightSimulator approximates spoken-word pacing without audio by
// advancing a word index on a fixed-interval timer. At most one run is ever
// active; starting a new run always fully terminates the previous one first,
// so two tickers can never coexist.
type highlightSimulator struct {
	mu     sync.Mutex
	active *highlightRun

	// onIndex reports every emphasized word index, tagged with the run's key
	// so stale runs can be told apart from the current one.
	onIndex func(key string, index int)
}

type highlightRun struct {
	key      string
	playback *Playback
	cancel   chan struct{}
	endOnce  sync.Once
}

func (r *highlightRun) terminate() {
	if r == nil {
		return
	}

	r.endOnce.Do(func() { close(r.cancel) })
	r.playback.resolve()
}

func newHighlightSimulator(onIndex func(key string, index int)) *highlightSimulator {
	if onIndex == nil {
		onIndex = func(string, int) {}
	}

	return &highlightSimulator{onIndex: onIndex}
}

// Simulate starts emphasizing the whitespace-delimited tokens of text one by
// one at the pace implied by wordsPerMinute. The first token is emphasized
// immediately. The returned playback resolves after the last token's interval
// has elapsed, on Stop, and on ctx cancellation alike.
//
// Zero-token text resolves immediately without emitting any index.
func (s *highlightSimulator) Simulate(ctx context.Context, text string, wordsPerMinute int, key string) *Playback {
	if s == nil {
		return resolvedPlayback()
	}

	schedule := newHighlightSchedule(text)
	if schedule.isEmpty() {
		return resolvedPlayback()
	}

	run := &highlightRun{
		key:      key,
		playback: newPlayback(),
		cancel:   make(chan struct{}),
	}

	s.mu.Lock()
	s.active.terminate()
	s.active = run
	s.mu.Unlock()

	go s.run(ctx, run, schedule, highlightInterval(wordsPerMinute))

	return run.playback
}

// Stop terminates the active run, if any, and resolves its playback.
// Idempotent and safe when idle.
func (s *highlightSimulator) Stop() {
	if s == nil {
		return
	}

	s.mu.Lock()
	s.active.terminate()
	s.active = nil
	s.mu.Unlock()
}

func (s *highlightSimulator) run(ctx context.Context, run *highlightRun, schedule highlightSchedule, interval time.Duration) {
	defer func() {
		run.terminate()
		s.mu.Lock()
		if s.active == run {
			s.active = nil
		}
		s.mu.Unlock()
	}()

	schedule, ok := schedule.advance()
	if !ok {
		return
	}
	s.onIndex(run.key, schedule.index)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-run.cancel:
			return
		case <-ticker.C:
			var advanced bool
			schedule, advanced = schedule.advance()
			if !advanced {
				// The last word held for one full interval; the run is over.
				return
			}
			s.onIndex(run.key, schedule.index)
		}
	}
}
