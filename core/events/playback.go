package events

const (
	// KindPlaybackKeyChanged identifies changes of the active performance key.
	KindPlaybackKeyChanged Kind = "playback.key_changed"
	// KindPlaybackWordHighlighted identifies highlight word-index advances.
	KindPlaybackWordHighlighted Kind = "playback.word_highlighted"
	// KindPlaybackItemStarted identifies the start of one queue item.
	KindPlaybackItemStarted Kind = "playback.item_started"
	// KindPlaybackItemEnded identifies the end (or skip) of one queue item.
	KindPlaybackItemEnded Kind = "playback.item_ended"
	// KindPlaybackQueueFinished identifies a fully settled queue.
	KindPlaybackQueueFinished Kind = "playback.queue_finished"
)

// PlaybackKeyChanged carries the new active key; empty means inactive.
type PlaybackKeyChanged struct {
	Base
	Key string
}

// NewPlaybackKeyChanged creates a playback key changed event.
func NewPlaybackKeyChanged(key string) PlaybackKeyChanged {
	return PlaybackKeyChanged{Base: NewBase(KindPlaybackKeyChanged), Key: key}
}

// PlaybackWordHighlighted carries the emphasized word index for the active key.
type PlaybackWordHighlighted struct {
	Base
	Key       string
	WordIndex int
}

// NewPlaybackWordHighlighted creates a playback word highlighted event.
func NewPlaybackWordHighlighted(key string, wordIndex int) PlaybackWordHighlighted {
	return PlaybackWordHighlighted{Base: NewBase(KindPlaybackWordHighlighted), Key: key, WordIndex: wordIndex}
}

// PlaybackItemStarted marks the start of one queue item's performance.
type PlaybackItemStarted struct {
	Base
	Key      string
	Language string
}

// NewPlaybackItemStarted creates a playback item started event.
func NewPlaybackItemStarted(key, language string) PlaybackItemStarted {
	return PlaybackItemStarted{Base: NewBase(KindPlaybackItemStarted), Key: key, Language: language}
}

// PlaybackItemEnded marks the end of one queue item's performance.
type PlaybackItemEnded struct {
	Base
	Key string
}

// NewPlaybackItemEnded creates a playback item ended event.
func NewPlaybackItemEnded(key string) PlaybackItemEnded {
	return PlaybackItemEnded{Base: NewBase(KindPlaybackItemEnded), Key: key}
}

// PlaybackQueueFinished marks a queue as fully settled. Cancelled reports
// whether it was cut short rather than played out.
type PlaybackQueueFinished struct {
	Base
	Cancelled bool
}

// NewPlaybackQueueFinished creates a playback queue finished event.
func NewPlaybackQueueFinished(cancelled bool) PlaybackQueueFinished {
	return PlaybackQueueFinished{Base: NewBase(KindPlaybackQueueFinished), Cancelled: cancelled}
}
