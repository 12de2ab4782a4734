package orchestration

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/koscakluka/duolog-core/core/texttospeech"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	// defaultInterItemDelay paces consecutive items of one sequence.
	defaultInterItemDelay = 350 * time.Millisecond

	sequenceQueueCapacity = 8
)

// sequenceObserver receives per-item transitions while a sequence plays.
// OnItemEnd fires for skipped and failed items too, so observers can rely on
// every started or reached item ending exactly once.
type sequenceObserver struct {
	OnItemStart func(item PlaybackItem)
	OnItemEnd   func(item PlaybackItem)
}

func (o sequenceObserver) itemStart(item PlaybackItem) {
	if o.OnItemStart != nil {
		o.OnItemStart(item)
	}
}

func (o sequenceObserver) itemEnd(item PlaybackItem) {
	if o.OnItemEnd != nil {
		o.OnItemEnd(item)
	}
}

type sequenceOptions struct {
	delay    time.Duration
	observer sequenceObserver

	// owner names the party the run performs for. Preemption and targeted
	// cancellation only ever touch runs of the same owner.
	owner string
	// preempt makes Play cancel the owner's active and queued runs first,
	// so the newest request strictly supersedes.
	preempt bool
	// perform overrides how a single item is performed. Unset means speech
	// synthesis on the shared audio sink.
	perform func(ctx context.Context, item PlaybackItem) error
}

type SequenceOption func(*sequenceOptions)

// WithInterItemDelay overrides the pause between consecutive items.
func WithInterItemDelay(delay time.Duration) SequenceOption {
	return func(o *sequenceOptions) {
		if delay >= 0 {
			o.delay = delay
		}
	}
}

func withSequenceObserver(observer sequenceObserver) SequenceOption {
	return func(o *sequenceOptions) {
		o.observer = observer
	}
}

func withRunOwner(owner string) SequenceOption {
	return func(o *sequenceOptions) {
		o.owner = owner
	}
}

func withPreemption(preempt bool) SequenceOption {
	return func(o *sequenceOptions) {
		o.preempt = preempt
	}
}

func withItemPerformer(perform func(ctx context.Context, item PlaybackItem) error) SequenceOption {
	return func(o *sequenceOptions) {
		o.perform = perform
	}
}

// sequencer performs queues of items strictly one item at a time, one run at
// a time, with a configurable pause between items. Every performance in a
// conversation goes through one shared sequencer, so runs can never overlap
// across modes or across parties: a request either pre-empts its owner's
// runs or queues behind whatever is active until the sink falls idle.
//
// Runs go through a buffered channel consumed by a single loop goroutine.
// By default an item is synthesized and played on the audio sink; a run can
// carry its own performer for audio-less performances.
type sequencer struct {
	synthesizer *synthesizer
	output      *audioOutput

	runs    chan *sequenceRun
	closeCh chan struct{}
	done    chan struct{}

	startOnce sync.Once
	endOnce   sync.Once
	started   atomic.Bool

	mu      sync.Mutex
	active  *sequenceRun
	pending []*sequenceRun
}

type sequenceRun struct {
	items    []PlaybackItem
	options  sequenceOptions
	playback *Playback

	ctx      context.Context
	cancel   context.CancelFunc
	queuedAt time.Time
}

func newSequencer(synthesizer *synthesizer, output *audioOutput) *sequencer {
	return &sequencer{
		synthesizer: synthesizer,
		output:      output,

		runs:    make(chan *sequenceRun, sequenceQueueCapacity),
		closeCh: make(chan struct{}),
		done:    make(chan struct{}),
	}
}

func (s *sequencer) isClosed() bool {
	if s == nil {
		return true
	}

	select {
	case <-s.closeCh:
		return true
	default:
		return false
	}
}

// Play queues items for sequential performance and returns the single future
// for the whole batch. The future resolves once every item has played, on
// cancellation, and on ctx cancellation alike.
func (s *sequencer) Play(ctx context.Context, items []PlaybackItem, opts ...SequenceOption) *Playback {
	if s == nil || s.isClosed() || len(items) == 0 {
		return resolvedPlayback()
	}

	options := sequenceOptions{delay: defaultInterItemDelay}
	for _, opt := range opts {
		opt(&options)
	}

	if options.preempt {
		s.cancelRuns(options.owner)
	}

	runCtx, runCancel := context.WithCancel(ctx)
	run := &sequenceRun{
		items:    items,
		options:  options,
		playback: newPlayback(),
		ctx:      runCtx,
		cancel:   runCancel,
		queuedAt: time.Now(),
	}

	s.startLoop()

	s.mu.Lock()
	s.pending = append(s.pending, run)
	s.mu.Unlock()

	select {
	case <-s.closeCh:
		s.removePending(run)
		runCancel()
		run.playback.resolve()
	case s.runs <- run:
	}

	return run.playback
}

// cancelRuns halts the owner's active run and invalidates its runs still
// waiting in the queue; each resolves its future. An empty owner cancels
// every run. Idempotent; a no-op when idle.
func (s *sequencer) cancelRuns(owner string) {
	if s == nil {
		return
	}

	s.mu.Lock()
	active := s.active
	pending := make([]*sequenceRun, len(s.pending))
	copy(pending, s.pending)
	s.mu.Unlock()

	for _, run := range pending {
		if owner == "" || run.options.owner == owner {
			run.cancel()
		}
	}

	if active != nil && (owner == "" || active.options.owner == owner) {
		active.cancel()
		s.output.Clear()
	}
}

// Stop shuts the sequencer down: the active run is cancelled and every queued
// run resolves unplayed.
func (s *sequencer) Stop() {
	if s == nil {
		return
	}

	s.endOnce.Do(func() { close(s.closeCh) })
	s.cancelRuns("")

	for {
		select {
		case run := <-s.runs:
			s.removePending(run)
			run.cancel()
			run.playback.resolve()
		default:
			return
		}
	}
}

func (s *sequencer) AwaitDone() {
	if s == nil {
		return
	}

	if s.started.Load() {
		<-s.done
	}
}

func (s *sequencer) removePending(run *sequenceRun) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, pending := range s.pending {
		if pending == run {
			s.pending = append(s.pending[:i], s.pending[i+1:]...)
			return
		}
	}
}

func (s *sequencer) startLoop() {
	s.startOnce.Do(func() {
		if s.isClosed() {
			return
		}

		s.started.Store(true)
		go func() {
			defer close(s.done)

			for {
				select {
				case <-s.closeCh:
					return
				case run := <-s.runs:
					if s.isClosed() {
						s.removePending(run)
						run.cancel()
						run.playback.resolve()
						return
					}
					s.performRun(run)
				}
			}
		}()
	})
}

func (s *sequencer) performRun(run *sequenceRun) {
	s.mu.Lock()
	s.removeFromPendingLocked(run)
	s.active = run
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		if s.active == run {
			s.active = nil
		}
		s.mu.Unlock()

		run.cancel()
		run.playback.resolve()
	}()

	go func() {
		select {
		case <-s.closeCh:
			run.cancel()
		case <-run.ctx.Done():
		}
	}()

	ctx, span := tracer.Start(run.ctx, "perform sequence")
	defer span.End()

	queuedTime := time.Since(run.queuedAt).Seconds()
	span.AddEvent("taken out of queue", trace.WithAttributes(attribute.Float64("sequence.queued_time", queuedTime)))
	span.SetAttributes(
		attribute.Float64("sequence.queued_time", queuedTime),
		attribute.Int("sequence.items", len(run.items)),
		attribute.String("sequence.owner", run.options.owner),
	)

	perform := run.options.perform
	if perform == nil {
		perform = s.performItem
	}

	for i, item := range run.items {
		if ctx.Err() != nil {
			span.SetAttributes(attribute.Int("sequence.cancelled_at", i))
			return
		}

		run.options.observer.itemStart(item)
		if err := perform(ctx, item); err != nil && ctx.Err() == nil {
			// A single failing item never aborts the rest of the queue.
			span.RecordError(err)
			logger.Error("Failed to perform item", "key", item.Key, "error", err)
		}
		run.options.observer.itemEnd(item)

		if i == len(run.items)-1 || ctx.Err() != nil {
			continue
		}

		delay := time.NewTimer(run.options.delay)
		select {
		case <-ctx.Done():
			delay.Stop()
		case <-delay.C:
		}
	}
}

func (s *sequencer) removeFromPendingLocked(run *sequenceRun) {
	for i, pending := range s.pending {
		if pending == run {
			s.pending = append(s.pending[:i], s.pending[i+1:]...)
			return
		}
	}
}

// performItem synthesizes one item and plays the resulting clip to completion
// on the output sink before returning.
func (s *sequencer) performItem(ctx context.Context, item PlaybackItem) error {
	ctx, span := tracer.Start(ctx, "perform item")
	defer span.End()
	span.SetAttributes(
		attribute.String("item.key", item.Key),
		attribute.String("item.language", item.Language.String()),
		attribute.Int("item.text_length", len(item.Text)),
	)

	encodingInfo := s.output.EncodingInfo()
	clip, err := s.synthesizer.Synthesize(ctx, item.Text,
		texttospeech.WithLanguage(item.Language.String()),
		texttospeech.WithEncodingInfo(encodingInfo),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	span.SetAttributes(
		attribute.Int("item.audio_bytes", len(clip)),
		attribute.Float64("item.audio_duration", encodingInfo.Duration(len(clip)).Seconds()),
	)

	if ctx.Err() != nil {
		return nil
	}

	played := make(chan struct{})
	s.output.SendAudio(clip)
	s.output.Mark(item.Key, func(string) { close(played) })

	select {
	case <-ctx.Done():
		s.output.Clear()
	case <-played:
	}

	return nil
}
