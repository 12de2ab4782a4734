package events

const (
	// KindListeningStarted identifies the start of microphone capture.
	KindListeningStarted Kind = "listening.started"
	// KindListeningStopped identifies the end of microphone capture.
	KindListeningStopped Kind = "listening.stopped"
	// KindListeningTranscriptInterim identifies interim transcript snapshots.
	KindListeningTranscriptInterim Kind = "listening.transcript_interim"
	// KindListeningTranscriptFinal identifies final utterance transcripts.
	KindListeningTranscriptFinal Kind = "listening.transcript_final"
	// KindListeningFailed identifies capture or transcription failures.
	KindListeningFailed Kind = "listening.failed"
)

// ListeningStarted marks the start of microphone capture for a role.
type ListeningStarted struct {
	Base
	Role string
}

// NewListeningStarted creates a listening started event.
func NewListeningStarted(role string) ListeningStarted {
	return ListeningStarted{Base: NewBase(KindListeningStarted), Role: role}
}

// ListeningStopped marks the end of microphone capture for a role.
type ListeningStopped struct {
	Base
	Role string
}

// NewListeningStopped creates a listening stopped event.
func NewListeningStopped(role string) ListeningStopped {
	return ListeningStopped{Base: NewBase(KindListeningStopped), Role: role}
}

// ListeningTranscriptInterim carries a mutable interim transcript snapshot.
type ListeningTranscriptInterim struct {
	Base
	Role       string
	Transcript string
}

// NewListeningTranscriptInterim creates an interim transcript event.
func NewListeningTranscriptInterim(role, transcript string) ListeningTranscriptInterim {
	return ListeningTranscriptInterim{Base: NewBase(KindListeningTranscriptInterim), Role: role, Transcript: transcript}
}

// ListeningTranscriptFinal carries the final transcript for an utterance.
type ListeningTranscriptFinal struct {
	Base
	Role       string
	Transcript string
}

// NewListeningTranscriptFinal creates a final transcript event.
func NewListeningTranscriptFinal(role, transcript string) ListeningTranscriptFinal {
	return ListeningTranscriptFinal{Base: NewBase(KindListeningTranscriptFinal), Role: role, Transcript: transcript}
}

// ListeningFailed marks a capture or transcription failure. The listening
// toggle reverts when this fires.
type ListeningFailed struct {
	Base
	Role string
	Err  error
}

// NewListeningFailed creates a listening failed event.
func NewListeningFailed(role string, err error) ListeningFailed {
	return ListeningFailed{Base: NewBase(KindListeningFailed), Role: role, Err: err}
}
