package orchestration

import (
	"testing"

	"github.com/koscakluka/duolog-core/core/events"
)

func TestCallbackEventEmitterForwardsPlaybackItemEvents(t *testing.T) {
	started := []string{}
	languages := []string{}
	ended := []string{}

	options := ConverseOptions{}
	WithItemStartedCallback(func(key, language string) {
		started = append(started, key)
		languages = append(languages, language)
	})(&options)
	WithItemEndedCallback(func(key string) {
		ended = append(ended, key)
	})(&options)

	emit := newCallbackEventEmitter(options)
	emit(events.NewPlaybackItemStarted("lastSent", "en"))
	emit(events.NewPlaybackItemEnded("lastSent"))

	if len(started) != 1 || started[0] != "lastSent" || languages[0] != "en" {
		t.Fatalf("expected the item start to reach the callback, got %v %v", started, languages)
	}
	if len(ended) != 1 || ended[0] != "lastSent" {
		t.Fatalf("expected the item end to reach the callback, got %v", ended)
	}
}

func TestCallbackEventEmitterForwardsListeningEvents(t *testing.T) {
	started := []string{}
	stopped := []string{}

	options := ConverseOptions{}
	WithListeningStartedCallback(func(role string) {
		started = append(started, role)
	})(&options)
	WithListeningStoppedCallback(func(role string) {
		stopped = append(stopped, role)
	})(&options)

	emit := newCallbackEventEmitter(options)
	emit(events.NewListeningStarted(RoleUser))
	emit(events.NewListeningStopped(RoleUser))

	if len(started) != 1 || started[0] != RoleUser {
		t.Fatalf("expected the listening start to reach the callback, got %v", started)
	}
	if len(stopped) != 1 || stopped[0] != RoleUser {
		t.Fatalf("expected the listening stop to reach the callback, got %v", stopped)
	}
}

func TestCallbackEventEmitterIgnoresUnregisteredEvents(t *testing.T) {
	emit := newCallbackEventEmitter(ConverseOptions{})

	emit(events.NewPlaybackItemStarted("lastSent", "en"))
	emit(events.NewListeningStarted(RoleUser))
	emit(events.NewPlaybackKeyChanged("lastSent"))
}
