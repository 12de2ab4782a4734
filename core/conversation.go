package orchestration

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"
	"github.com/koscakluka/duolog-core/core/events"
	"github.com/koscakluka/duolog-core/core/llms"
)

const (
	// RoleUser names the party that drives the conversation.
	RoleUser = "user"
	// RoleAssistant names the party whose turns are generated.
	RoleAssistant = "assistant"
)

const defaultFallbackReply = "Sorry, I didn't catch that. Could you say that again?"

// Exchange is one round of the conversation: a user submission and the reply
// it produced. Failed reports that generation failed and Reply holds the
// fallback line instead.
type Exchange struct {
	ID          string
	Prompt      string
	Reply       string
	Failed      bool
	StartedAt   time.Time
	CompletedAt time.Time
}

// Conversation wires two roles to a shared provider stack and bridges user
// submissions into generated assistant turns. Collaborators are optional;
// whatever is not configured degrades to a no-op and the conversation keeps
// working with what it has.
type Conversation struct {
	user      *Role
	assistant *Role

	replies     replyGenerator
	synthesizer *synthesizer
	translator  *translator
	predictor   *predictor
	audioOutput *audioOutput
	audioInput  *audioInput
	sequencer   *sequencer

	fallbackReply string

	emitEvent eventEmitter

	mu        sync.Mutex
	ctx       context.Context
	exchanges []Exchange

	started   atomic.Bool
	closeOnce sync.Once
}

func NewConversation(opts ...ConversationOption) *Conversation {
	conversation := &Conversation{
		replies:     newReplyGenerator(),
		synthesizer: newSynthesizer(nil),
		translator:  newTranslator(nil),
		predictor:   newPredictor(nil),
		audioOutput: newAudioOutput(nil),
		audioInput:  newAudioInput(nil),

		fallbackReply: defaultFallbackReply,

		emitEvent: noopEventEmitter,
		ctx:       context.Background(),
	}

	// One sequencer serves both roles, so performances serialize across the
	// whole conversation: a request either pre-empts its own party's runs or
	// waits for the other party's to finish.
	conversation.sequencer = newSequencer(conversation.synthesizer, conversation.audioOutput)

	conversation.user = newRole(
		RoleUser, KeySubmitted, TranslationKey,
		conversation.sequencer, conversation.audioInput,
		conversation.translator, conversation.predictor,
		true,
	)
	conversation.assistant = newRole(
		RoleAssistant, KeyResponse, ResponseTranslationKey,
		conversation.sequencer, conversation.audioInput,
		conversation.translator, conversation.predictor,
		false,
	)
	conversation.user.onSubmitted = conversation.startExchange

	for _, opt := range opts {
		opt(conversation)
	}

	return conversation
}

func (c *Conversation) User() *Role      { return c.user }
func (c *Conversation) Assistant() *Role { return c.assistant }

// Converse binds the observer callbacks and starts both roles. It returns
// immediately; everything after this point is driven by submissions and
// transcripts.
func (c *Conversation) Converse(ctx context.Context, opts ...ConverseOption) error {
	if !c.started.CompareAndSwap(false, true) {
		return errors.New("conversation already started")
	}

	options := ConverseOptions{}
	for _, opt := range opts {
		opt(&options)
	}

	if ctx == nil {
		ctx = context.Background()
	}

	c.mu.Lock()
	c.ctx = ctx
	c.emitEvent = newCallbackEventEmitter(options)
	emitEvent := c.emitEvent
	c.mu.Unlock()

	c.user.start(ctx, emitEvent)
	c.assistant.start(ctx, emitEvent)

	return nil
}

// Snapshot returns a deep copy of the exchange history, oldest first.
func (c *Conversation) Snapshot() []Exchange {
	c.mu.Lock()
	defer c.mu.Unlock()

	exchanges := []Exchange{}
	if err := copier.Copy(&exchanges, &c.exchanges); err != nil {
		logger.Warn("Failed to copy exchange history", "error", err)
		return nil
	}
	return exchanges
}

// startExchange bridges a settled user submission into reply generation. It
// runs on the submission path's goroutine; generation streams segments into
// the assistant's compose buffer and the final reply is submitted through the
// assistant's normal submission path.
func (c *Conversation) startExchange(ctx context.Context, submission *Submission) {
	if submission == nil || submission.Role != RoleUser {
		return
	}

	exchange := Exchange{
		ID:        uuid.NewString(),
		Prompt:    submission.Text,
		StartedAt: time.Now(),
	}

	c.mu.Lock()
	history := historyTurns(c.exchanges)
	c.exchanges = append(c.exchanges, exchange)
	generator := c.replies.snapshot()
	fallback := c.fallbackReply
	c.mu.Unlock()

	c.emitEvent(events.NewExchangeStarted(exchange.ID, exchange.Prompt))

	buffer := newSegmentBuffer()
	mirrorDone := make(chan struct{})
	go func() {
		defer close(mirrorDone)
		c.streamReplyDraft(exchange.ID, buffer)
	}()

	var reply string
	generate := panicSafeNamedWorker("reply generation", func(ctx context.Context) error {
		generated, generateErr := generator.generate(ctx, submission.Text, history, buffer.AddSegment)
		reply = generated
		return generateErr
	})
	err := generate(ctx)
	buffer.Complete()
	// The mirror must drain before the reply is submitted, or a straggling
	// draft update would refill the buffer the submit just cleared.
	<-mirrorDone

	failed := err != nil
	if failed {
		reply = fallback
		c.emitEvent(events.NewExchangeFailed(exchange.ID, fallback, err))
	}

	c.settleExchange(exchange.ID, reply, failed)
	if !failed {
		c.emitEvent(events.NewExchangeCompleted(exchange.ID, reply))
	}

	c.assistant.SetText(reply)
	c.assistant.Submit(ctx)
}

// streamReplyDraft mirrors generation progress into the assistant's compose
// buffer so observers see the reply take shape before it is submitted.
func (c *Conversation) streamReplyDraft(exchangeID string, buffer *segmentBuffer) {
	accumulated := ""
	for segment := range buffer.Segments {
		accumulated += segment
		c.emitEvent(events.NewExchangeReplySegment(exchangeID, segment))
		c.assistant.SetText(accumulated)
	}
}

func (c *Conversation) settleExchange(exchangeID, reply string, failed bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.exchanges {
		if c.exchanges[i].ID != exchangeID {
			continue
		}
		c.exchanges[i].Reply = reply
		c.exchanges[i].Failed = failed
		c.exchanges[i].CompletedAt = time.Now()
		return
	}
}

// historyTurns flattens settled exchanges into prompt turns, oldest first.
// Pending and failed exchanges are excluded; a fallback line is not something
// the assistant said.
func historyTurns(exchanges []Exchange) []llms.Turn {
	var turns []llms.Turn
	for _, exchange := range exchanges {
		if exchange.CompletedAt.IsZero() || exchange.Failed {
			continue
		}
		turns = append(turns,
			llms.Turn{Role: llms.TurnRoleUser, Content: exchange.Prompt},
			llms.Turn{Role: llms.TurnRoleAssistant, Content: exchange.Reply},
		)
	}
	return turns
}

// Close stops both roles and releases the audio device. Safe to call more
// than once.
func (c *Conversation) Close(ctx context.Context) error {
	var errs error
	c.closeOnce.Do(func() {
		c.user.close(ctx)
		c.assistant.close(ctx)
		c.sequencer.Stop()
		c.sequencer.AwaitDone()

		if err := c.audioInput.Close(); err != nil {
			errs = errors.Join(errs, err)
		}
	})
	return errs
}
