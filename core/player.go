package orchestration

import (
	"context"
	"sync"
)

const defaultWordsPerMinute = 180

// playbackCallbacks are the only way performance state escapes a controller.
// Each fires exactly once per transition: a key becoming active, a key
// becoming inactive, an emphasized word index advancing.
type playbackCallbacks struct {
	onPlayingKeyChange     func(key string)
	onHighlightIndexChange func(key string, index int)
	onItemStarted          func(item PlaybackItem)
	onItemEnded            func(item PlaybackItem)
}

func (c playbackCallbacks) keyChange(key string) {
	if c.onPlayingKeyChange != nil {
		c.onPlayingKeyChange(key)
	}
}

func (c playbackCallbacks) indexChange(key string, index int) {
	if c.onHighlightIndexChange != nil {
		c.onHighlightIndexChange(key, index)
	}
}

func (c playbackCallbacks) itemStarted(item PlaybackItem) {
	if c.onItemStarted != nil {
		c.onItemStarted(item)
	}
}

func (c playbackCallbacks) itemEnded(item PlaybackItem) {
	if c.onItemEnded != nil {
		c.onItemEnded(item)
	}
}

// playbackController is the single entry point for performing items. It
// hides which engine a mode engages behind one dispatch table and owns the
// only shared mutable state: the currently active key/index pair.
//
// Every mode performs through the shared sequencer, so audio and highlight
// runs serialize against each other and against the other party's runs.
//
// Completions are guarded by key and generation: a completion for an
// activation that was superseded by a newer request never touches state.
type playbackController struct {
	sequencer   *sequencer
	highlighter *highlightSimulator

	owner   string
	preempt bool

	callbacks      playbackCallbacks
	wordsPerMinute int

	dispatch map[PlaybackMode]func(ctx context.Context, items []PlaybackItem) *Playback

	mu         sync.Mutex
	state      PlaybackState
	generation uint64
}

func newPlaybackController(sequencer *sequencer, owner string, preempt bool, callbacks playbackCallbacks, wordsPerMinute int) *playbackController {
	if wordsPerMinute <= 0 {
		wordsPerMinute = defaultWordsPerMinute
	}

	controller := &playbackController{
		sequencer:      sequencer,
		owner:          owner,
		preempt:        preempt,
		callbacks:      callbacks,
		wordsPerMinute: wordsPerMinute,
	}
	controller.highlighter = newHighlightSimulator(controller.onHighlightIndex)
	controller.dispatch = map[PlaybackMode]func(ctx context.Context, items []PlaybackItem) *Playback{
		PlaybackModeAudio:     controller.playAudioSequence,
		PlaybackModeHighlight: controller.playHighlightSequence,
		PlaybackModeManual:    playNothing,
		PlaybackModeDelay:     playNothing,
	}
	return controller
}

// State returns the current key/index pair.
func (c *playbackController) State() PlaybackState {
	if c == nil {
		return PlaybackState{}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// PlayItem performs a single item under mode.
func (c *playbackController) PlayItem(ctx context.Context, item PlaybackItem, mode PlaybackMode) *Playback {
	return c.PlaySequence(ctx, []PlaybackItem{item}, mode)
}

// PlaySequence performs items in order under mode. Manual and delay modes
// perform nothing and resolve immediately; playback in those modes happens
// only through explicit replay requests.
func (c *playbackController) PlaySequence(ctx context.Context, items []PlaybackItem, mode PlaybackMode) *Playback {
	if c == nil || len(items) == 0 {
		return resolvedPlayback()
	}

	play, ok := c.dispatch[mode]
	if !ok {
		return resolvedPlayback()
	}

	return play(ctx, items)
}

// Stop cancels this party's runs, active or queued, whichever engine they
// engage. Safe when idle.
func (c *playbackController) Stop() {
	if c == nil {
		return
	}

	c.sequencer.cancelRuns(c.owner)
	c.highlighter.Stop()
}

func playNothing(context.Context, []PlaybackItem) *Playback {
	return resolvedPlayback()
}

// runObserver projects a run's item transitions onto controller state. Items
// within one run are strictly sequential, so the generation of the last
// activation can be shared between the two callbacks.
func (c *playbackController) runObserver() sequenceObserver {
	var generation uint64
	return sequenceObserver{
		OnItemStart: func(item PlaybackItem) {
			generation = c.activate(item.Key, -1)
			c.callbacks.itemStarted(item)
		},
		OnItemEnd: func(item PlaybackItem) {
			c.deactivate(item.Key, generation)
			c.callbacks.itemEnded(item)
		},
	}
}

func (c *playbackController) playAudioSequence(ctx context.Context, items []PlaybackItem) *Playback {
	return c.sequencer.Play(ctx, items,
		withRunOwner(c.owner),
		withPreemption(c.preempt),
		withSequenceObserver(c.runObserver()),
	)
}

func (c *playbackController) playHighlightSequence(ctx context.Context, items []PlaybackItem) *Playback {
	return c.sequencer.Play(ctx, items,
		withRunOwner(c.owner),
		withPreemption(c.preempt),
		withSequenceObserver(c.runObserver()),
		withItemPerformer(c.performHighlightItem),
		WithInterItemDelay(0),
	)
}

func (c *playbackController) performHighlightItem(ctx context.Context, item PlaybackItem) error {
	simulation := c.highlighter.Simulate(ctx, item.Text, c.wordsPerMinute, item.Key)

	select {
	case <-ctx.Done():
		c.highlighter.Stop()
	case <-simulation.Done():
	}

	return nil
}

// activate makes key the active performance and returns the generation token
// its completion must present to clear state again.
func (c *playbackController) activate(key string, wordIndex int) uint64 {
	c.mu.Lock()
	c.generation++
	generation := c.generation
	c.state = PlaybackState{Key: key, WordIndex: wordIndex}
	c.mu.Unlock()

	c.callbacks.keyChange(key)
	return generation
}

// deactivate clears state for key. Completions carrying a superseded key or
// generation are discarded without touching state.
func (c *playbackController) deactivate(key string, generation uint64) {
	c.mu.Lock()
	if c.state.Key != key || c.generation != generation {
		c.mu.Unlock()
		return
	}
	c.state = PlaybackState{}
	c.mu.Unlock()

	c.callbacks.keyChange("")
}

func (c *playbackController) onHighlightIndex(key string, index int) {
	c.mu.Lock()
	if c.state.Key != key {
		c.mu.Unlock()
		return
	}
	c.state.WordIndex = index
	c.mu.Unlock()

	c.callbacks.indexChange(key, index)
}
