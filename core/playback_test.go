package orchestration

import (
	"context"
	"testing"
	"time"
)

func TestPlaybackResolvesExactlyOnce(t *testing.T) {
	playback := newPlayback()
	if playback.Finished() {
		t.Fatalf("expected a fresh playback to be unresolved")
	}

	playback.resolve()
	playback.resolve()

	if !playback.Finished() {
		t.Fatalf("expected the playback to be resolved")
	}
	select {
	case <-playback.Done():
	default:
		t.Fatalf("expected the done channel to be closed")
	}
}

func TestPlaybackAwaitHonoursContext(t *testing.T) {
	playback := newPlayback()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := playback.Await(ctx); err == nil {
		t.Fatalf("expected await to fail when the context expires first")
	}

	playback.resolve()
	if err := playback.Await(context.Background()); err != nil {
		t.Fatalf("expected await on a resolved playback to succeed, got %v", err)
	}
}

func TestPlaybackNilIsAlwaysSettled(t *testing.T) {
	var playback *Playback

	select {
	case <-playback.Done():
	default:
		t.Fatalf("expected a nil playback's done channel to be closed")
	}
	if playback.Finished() {
		t.Fatalf("expected a nil playback to report unfinished without panicking")
	}
	if err := playback.Await(context.Background()); err != nil {
		t.Fatalf("expected awaiting a nil playback to return immediately, got %v", err)
	}
}

func TestPlaybackKeys(t *testing.T) {
	if key := TranslationKey("fr"); key != "translation-fr" {
		t.Fatalf("unexpected translation key %q", key)
	}
	if key := ResponseTranslationKey("de"); key != "response-translation-de" {
		t.Fatalf("unexpected response translation key %q", key)
	}
	if KeySubmitted != "lastSent" || KeyResponse != "response" {
		t.Fatalf("unexpected submission keys %q, %q", KeySubmitted, KeyResponse)
	}
}

func TestPlaybackStateActivity(t *testing.T) {
	if (PlaybackState{}).IsActive() {
		t.Fatalf("expected the zero state to be inactive")
	}
	if !(PlaybackState{Key: "lastSent", WordIndex: -1}).IsActive() {
		t.Fatalf("expected a keyed state to be active")
	}
}
