package orchestration

import "fmt"

// PlaybackMode selects how a queue is performed. It is a closed set; the
// controller dispatches through a single table so a new mode is one entry,
// not a scatter of string comparisons.
type PlaybackMode string

const (
	// PlaybackModeAudio synthesizes and plays speech for every queue item.
	PlaybackModeAudio PlaybackMode = "audio"
	// PlaybackModeHighlight performs items as timer-driven word emphasis,
	// no audio involved.
	PlaybackModeHighlight PlaybackMode = "highlight"
	// PlaybackModeManual performs nothing automatically; playback happens
	// only through explicit replay requests.
	PlaybackModeManual PlaybackMode = "manual"
	// PlaybackModeDelay performs nothing automatically, like manual, but
	// keeps automatic submission pacing running for roles that use it.
	PlaybackModeDelay PlaybackMode = "delay"
)

func (m PlaybackMode) String() string { return string(m) }

func (m PlaybackMode) IsValid() bool {
	switch m {
	case PlaybackModeAudio, PlaybackModeHighlight, PlaybackModeManual, PlaybackModeDelay:
		return true
	}
	return false
}

// ParsePlaybackMode converts a raw string into a [PlaybackMode].
func ParsePlaybackMode(raw string) (PlaybackMode, error) {
	mode := PlaybackMode(raw)
	if !mode.IsValid() {
		return "", fmt.Errorf("unknown playback mode %q", raw)
	}

	return mode, nil
}
