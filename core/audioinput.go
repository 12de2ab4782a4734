package orchestration

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/koscakluka/duolog-core/core/audio"
)

// audioInput wraps the configured microphone client behind the listening
// toggle. Capture runs only while a role is listening; clients with explicit
// capture controls are started and stopped on demand, stream-only clients are
// started once and keep streaming until Close.
type audioInput struct {
	// base stores the configured input client used for streaming audio.
	base audioInputBase
	// captureControl is set when the input client supports explicit capture
	// controls.
	captureControl AudioInputFine

	// connected reports whether a concrete input client is currently configured.
	connected atomic.Bool
	// isCapturing reports whether the input client is currently capturing audio.
	isCapturing atomic.Bool

	// onInputAudio is called when input audio is received.
	onInputAudio func(audio []byte)
	// onError is called when capture fails after it was requested, so the
	// listening toggle can revert.
	onError func(err error)
}

func newAudioInput(client audioInputBase) *audioInput {
	audioInput := audioInput{
		onInputAudio: func(audio []byte) {},
		onError:      func(err error) {},
	}
	audioInput.Set(client)
	return &audioInput
}

func (a *audioInput) Set(client audioInputBase) {
	if a == nil {
		return
	}

	a.base = nil
	a.captureControl = nil
	a.connected.Store(false)
	a.isCapturing.Store(false)

	if isNilClient(client) {
		return
	}

	a.base = client
	a.connected.Store(true)
	if fine, ok := client.(AudioInputFine); ok {
		a.captureControl = fine
	}
}

func (a *audioInput) setCallbacks(onInputAudio func(audio []byte), onError func(err error)) {
	if a == nil {
		return
	}

	if onInputAudio != nil {
		a.onInputAudio = onInputAudio
	}
	if onError != nil {
		a.onError = onError
	}
}

func (a *audioInput) IsConfigured() bool            { return a != nil && a.connected.Load() }
func (a *audioInput) SupportsCaptureControls() bool { return a != nil && a.captureControl != nil }
func (a *audioInput) IsCapturing() bool             { return a != nil && a.isCapturing.Load() }

// StartCapture begins forwarding microphone audio to onInputAudio. It is
// idempotent while capture is already running. Start failures are reported
// through onError because both client protocols surface them asynchronously.
func (a *audioInput) StartCapture(ctx context.Context) error {
	if a == nil || !a.IsConfigured() {
		return errors.New("no audio input configured")
	}

	if !a.isCapturing.CompareAndSwap(false, true) {
		return nil
	}

	if a.captureControl != nil {
		go func() {
			if err := a.captureControl.StartCapture(ctx, a.onAudio); err != nil {
				a.isCapturing.Store(false)
				a.onError(err)
			}
		}()
		return nil
	}

	go func() {
		if err := a.base.Stream(ctx, a.onAudio); err != nil {
			a.isCapturing.Store(false)
			a.onError(err)
		}
	}()
	return nil
}

// StopCapture stops forwarding microphone audio. Stream-only clients keep
// their stream open; their audio is dropped in onAudio until capture resumes.
func (a *audioInput) StopCapture() error {
	if a == nil {
		return nil
	}

	if !a.isCapturing.CompareAndSwap(true, false) {
		return nil
	}

	if a.captureControl != nil {
		return a.captureControl.StopCapture()
	}

	return nil
}

func (a *audioInput) Close() error {
	if a == nil {
		return nil
	}

	var errs error
	if a.base != nil && a.IsConfigured() {
		if a.captureControl != nil && a.IsCapturing() {
			if err := a.captureControl.StopCapture(); err != nil {
				errs = errors.Join(errs, err)
			}
		}

		a.base.Close()
	}
	a.isCapturing.Store(false)

	return errs
}

func (a *audioInput) EncodingInfo() audio.EncodingInfo {
	if a == nil || a.base == nil {
		return audio.GetDefaultEncodingInfo()
	}

	return a.base.EncodingInfo()
}

func (a *audioInput) onAudio(audio []byte) {
	if !a.IsCapturing() {
		return
	}

	a.onInputAudio(audio)
}
