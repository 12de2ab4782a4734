package orchestration

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/koscakluka/duolog-core/core/audio"
)

func TestWithAudioInputConfiguresAudioInputFacade(t *testing.T) {
	inputClient := &testAudioInputClient{}
	c := NewConversation(WithAudioInput(inputClient))

	if !c.audioInput.IsConfigured() {
		t.Fatalf("expected audio input facade to be configured")
	}
	if c.audioInput.base != inputClient {
		t.Fatalf("expected facade client to match configured audio input")
	}
}

func TestAudioInputFacadeUsesDefaultEncodingInfoWhenUnset(t *testing.T) {
	facade := newAudioInput(nil)

	if facade.IsConfigured() {
		t.Fatalf("expected unset facade to be unconfigured")
	}

	if got, want := facade.EncodingInfo(), audio.GetDefaultEncodingInfo(); got != want {
		t.Fatalf("expected default encoding info %+v, got %+v", want, got)
	}
}

func TestAudioInputFacadeTreatsTypedNilAsUnconfigured(t *testing.T) {
	var inputClient *testStreamingAudioInputClient
	facade := newAudioInput(inputClient)

	if facade.IsConfigured() {
		t.Fatalf("expected typed nil input client to be treated as unconfigured")
	}
	if err := facade.StartCapture(context.Background()); err == nil {
		t.Fatalf("expected starting capture without a client to fail")
	}
}

func TestAudioInputFacadeStartCaptureForwardsInputAudio(t *testing.T) {
	inputClient := &testStreamingAudioInputClient{}
	facade := newAudioInput(inputClient)

	var callbackCalls atomic.Int32
	facade.setCallbacks(func([]byte) { callbackCalls.Add(1) }, nil)

	if err := facade.StartCapture(context.Background()); err != nil {
		t.Fatalf("expected capture to start, got %v", err)
	}

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if callbackCalls.Load() == 2 && inputClient.streamCalls.Load() == 1 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}

	t.Fatalf(
		"expected 2 callback invocations and 1 stream call, got callback calls=%d stream calls=%d",
		callbackCalls.Load(),
		inputClient.streamCalls.Load(),
	)
}

func TestAudioInputFacadeDropsAudioAfterStopCapture(t *testing.T) {
	inputClient := &testFineAudioInputClient{startCaptureCalled: make(chan struct{}, 1)}
	facade := newAudioInput(inputClient)

	var callbackCalls atomic.Int32
	facade.setCallbacks(func([]byte) { callbackCalls.Add(1) }, nil)

	if err := facade.StartCapture(context.Background()); err != nil {
		t.Fatalf("expected capture to start, got %v", err)
	}

	select {
	case <-inputClient.startCaptureCalled:
	case <-time.After(time.Second):
		t.Fatalf("expected capture control start to be invoked")
	}

	if err := facade.StopCapture(); err != nil {
		t.Fatalf("expected capture to stop, got %v", err)
	}
	if got := inputClient.stopCaptureCalls.Load(); got != 1 {
		t.Fatalf("expected 1 stop capture call, got %d", got)
	}

	facade.onAudio([]byte{0x01})
	if got := callbackCalls.Load(); got != 0 {
		t.Fatalf("expected audio after stop to be dropped, got %d callback calls", got)
	}
}

func TestAudioInputFacadeStopCaptureIdempotentWhenIdle(t *testing.T) {
	facade := newAudioInput(&testAudioInputClient{})

	if facade.SupportsCaptureControls() {
		t.Fatalf("expected basic input to not support capture controls")
	}
	if err := facade.StopCapture(); err != nil {
		t.Fatalf("expected idle stop capture to succeed, got %v", err)
	}
}

type testAudioInputClient struct{}

func (testAudioInputClient) EncodingInfo() audio.EncodingInfo {
	return audio.GetDefaultEncodingInfo()
}

func (testAudioInputClient) Stream(context.Context, func([]byte)) error {
	return nil
}

func (testAudioInputClient) Close() {}

type testFineAudioInputClient struct {
	testAudioInputClient
	startCaptureCalls  atomic.Int32
	stopCaptureCalls   atomic.Int32
	startCaptureCalled chan struct{}
}

func (c *testFineAudioInputClient) StartCapture(context.Context, func([]byte)) error {
	c.startCaptureCalls.Add(1)
	if c.startCaptureCalled != nil {
		select {
		case c.startCaptureCalled <- struct{}{}:
		default:
		}
	}
	return nil
}

func (c *testFineAudioInputClient) StopCapture() error {
	c.stopCaptureCalls.Add(1)
	return nil
}

type testStreamingAudioInputClient struct {
	testAudioInputClient
	streamCalls atomic.Int32
}

func (c *testStreamingAudioInputClient) Stream(_ context.Context, onAudio func([]byte)) error {
	c.streamCalls.Add(1)
	onAudio([]byte{0x01})
	onAudio([]byte{0x02})
	return nil
}
