package orchestration

import (
	"context"
	"sync"
	"sync/atomic"
)

// Playback item keys correlate a performance with the visual element it
// animates. The submitted text and its translations carry stable,
// deterministic keys so state observers can match completions against the
// element that requested them.
const (
	// KeySubmitted identifies the user role's last submitted text.
	KeySubmitted = "lastSent"
	// KeyResponse identifies the assistant role's last generated reply.
	KeyResponse = "response"
)

// TranslationKey returns the key of a translation of the user's submitted
// text ("translation-fr").
func TranslationKey(language Language) string {
	return "translation-" + language.String()
}

// ResponseTranslationKey returns the key of a translation of the assistant's
// reply ("response-translation-de").
func ResponseTranslationKey(language Language) string {
	return KeyResponse + "-translation-" + language.String()
}

// PlaybackItem is one performable unit: a piece of text, the language it is
// in, and the key of the element it animates. Items are built transiently
// when a queue is assembled and are not retained after the queue settles.
type PlaybackItem struct {
	Text     string
	Language Language
	Key      string
}

// PlaybackState is the controller's single piece of shared mutable state.
// Key and WordIndex always change together: WordIndex is -1 while an item is
// performed without word tracking (audio), and a non-negative index points at
// the emphasized whitespace-delimited token during highlight simulation. The
// zero value means nothing is being performed.
type PlaybackState struct {
	Key       string
	WordIndex int
}

func (s PlaybackState) IsActive() bool { return s.Key != "" }

// Playback is the completion future of one playback request (a single item
// or a whole queue). It resolves exactly once, on natural completion and on
// every cancellation path alike, so callers can always await it without
// risking a hang.
type Playback struct {
	done     chan struct{}
	once     sync.Once
	resolved atomic.Bool
}

func newPlayback() *Playback {
	return &Playback{done: make(chan struct{})}
}

func resolvedPlayback() *Playback {
	playback := newPlayback()
	playback.resolve()
	return playback
}

// Done returns a channel that is closed once the playback has fully settled.
func (p *Playback) Done() <-chan struct{} {
	if p == nil {
		closed := make(chan struct{})
		close(closed)
		return closed
	}

	return p.done
}

// Await blocks until the playback settles or ctx is cancelled.
func (p *Playback) Await(ctx context.Context) error {
	select {
	case <-p.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Finished reports whether the playback has settled, without blocking.
func (p *Playback) Finished() bool { return p != nil && p.resolved.Load() }

func (p *Playback) resolve() {
	if p == nil {
		return
	}

	p.once.Do(func() {
		p.resolved.Store(true)
		close(p.done)
	})
}
