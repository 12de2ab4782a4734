package events

const (
	// KindExchangeStarted identifies a newly opened exchange.
	KindExchangeStarted Kind = "exchange.started"
	// KindExchangeReplySegment identifies streamed reply text segments.
	KindExchangeReplySegment Kind = "exchange.reply_segment"
	// KindExchangeCompleted identifies a settled exchange.
	KindExchangeCompleted Kind = "exchange.completed"
	// KindExchangeFailed identifies an exchange whose reply generation failed.
	KindExchangeFailed Kind = "exchange.failed"
)

// ExchangeStarted marks a user submission opening a new exchange.
type ExchangeStarted struct {
	Base
	ExchangeID string
	Prompt     string
}

// NewExchangeStarted creates an exchange started event.
func NewExchangeStarted(exchangeID, prompt string) ExchangeStarted {
	return ExchangeStarted{Base: NewBase(KindExchangeStarted), ExchangeID: exchangeID, Prompt: prompt}
}

// ExchangeReplySegment carries one streamed reply segment.
type ExchangeReplySegment struct {
	Base
	ExchangeID string
	Segment    string
}

// NewExchangeReplySegment creates an exchange reply segment event.
func NewExchangeReplySegment(exchangeID, segment string) ExchangeReplySegment {
	return ExchangeReplySegment{Base: NewBase(KindExchangeReplySegment), ExchangeID: exchangeID, Segment: segment}
}

// ExchangeCompleted carries the final reply of a settled exchange.
type ExchangeCompleted struct {
	Base
	ExchangeID string
	Reply      string
}

// NewExchangeCompleted creates an exchange completed event.
func NewExchangeCompleted(exchangeID, reply string) ExchangeCompleted {
	return ExchangeCompleted{Base: NewBase(KindExchangeCompleted), ExchangeID: exchangeID, Reply: reply}
}

// ExchangeFailed marks an exchange whose generation failed; Fallback is the
// line recorded in place of a reply.
type ExchangeFailed struct {
	Base
	ExchangeID string
	Fallback   string
	Err        error
}

// NewExchangeFailed creates an exchange failed event.
func NewExchangeFailed(exchangeID, fallback string, err error) ExchangeFailed {
	return ExchangeFailed{Base: NewBase(KindExchangeFailed), ExchangeID: exchangeID, Fallback: fallback, Err: err}
}
