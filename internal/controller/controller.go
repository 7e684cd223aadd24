// Copyright (c) 2025 Janet Alwanga / NutriWise Assistant
// SPDX-License-Identifier: AGPL-3.0-or-later

package controller

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/AlwangaJanet/NutriWise-Assistant/internal/model"
	"github.com/AlwangaJanet/NutriWise-Assistant/internal/qa"
	"github.com/AlwangaJanet/NutriWise-Assistant/internal/util"
)

// =============================================================================
// STATE
// =============================================================================

// State is the send state. Exactly one request may be in flight.
type State int

const (
	StateIdle State = iota
	StateAwaitingResponse
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingResponse:
		return "awaiting-response"
	default:
		return "unknown"
	}
}

// =============================================================================
// OPTIONS
// =============================================================================

const (
	DefaultMaxRetries       = 3
	DefaultRetryDelay       = time.Second
	DefaultMaxMessageLength = 500
)

// Asker dispatches one question. *qa.Client implements it.
type Asker interface {
	Ask(ctx context.Context, question string) (*qa.Answer, error)
	SetEndpoint(endpoint string) error
	Endpoint() string
}

// Options configures a Controller. Negative MaxRetries or RetryDelay and a
// non-positive MaxMessageLength select the defaults; zero retries is valid
// and makes every failure terminal.
type Options struct {
	MaxRetries       int
	RetryDelay       time.Duration
	MaxMessageLength int
	Observer         Observer
	Logger           *zerolog.Logger
}

// DefaultOptions returns the stock limits: 3 retries, 1s apart, 500 chars.
func DefaultOptions() Options {
	return Options{
		MaxRetries:       DefaultMaxRetries,
		RetryDelay:       DefaultRetryDelay,
		MaxMessageLength: DefaultMaxMessageLength,
	}
}

// =============================================================================
// OUTCOME
// =============================================================================

// Outcome describes what one Submit or Retry produced. Exactly one of Answer
// and Failure is set.
type Outcome struct {
	Answer  *qa.Answer
	Failure *qa.Failure

	// Notice is the user-facing text for Failure, including the terminal
	// suffix once retries are exhausted.
	Notice       string
	RetryOffered bool
	Terminal     bool

	// OriginalText is the user's message, for binding a retry.
	OriginalText string

	// Dropped is set when the answer arrived after Clear and was not added
	// to the transcript.
	Dropped bool
}

// OK reports whether the outcome carries an answer.
func (o Outcome) OK() bool {
	return o.Answer != nil
}

// =============================================================================
// CONTROLLER
// =============================================================================

// Controller owns one conversation: its transcript, send state, retry
// counter and connection status. It is safe for concurrent use; admission
// is decided by the send state alone, so concurrent sends are rejected with
// ErrBusy rather than queued.
type Controller struct {
	client     Asker
	transcript *model.Transcript
	opts       Options
	log        zerolog.Logger

	mu         sync.Mutex
	state      State
	retryCount int
	connected  bool
	observer   Observer

	// exchangeEpoch is the transcript epoch the current exchange's user
	// entry was appended in. Retried answers are dropped once it is stale.
	exchangeEpoch uint64
}

// New creates a controller dispatching through client.
func New(client Asker, opts Options) *Controller {
	if opts.MaxRetries < 0 {
		opts.MaxRetries = DefaultMaxRetries
	}
	if opts.RetryDelay < 0 {
		opts.RetryDelay = DefaultRetryDelay
	}
	if opts.MaxMessageLength <= 0 {
		opts.MaxMessageLength = DefaultMaxMessageLength
	}

	log := zerolog.Nop()
	if opts.Logger != nil {
		log = opts.Logger.With().Str("component", "controller").Logger()
	}

	return &Controller{
		client:     client,
		transcript: model.NewTranscript(),
		opts:       opts,
		log:        log,
		state:      StateIdle,
		connected:  true,
		observer:   opts.Observer,
	}
}

// SetObserver replaces the event observer. Nil disables events.
func (c *Controller) SetObserver(o Observer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observer = o
}

// Submit validates text, records it as a user entry and dispatches it.
// It blocks until the answer or failure has been handled.
//
// Empty input returns ErrEmptyInput and a busy controller returns ErrBusy;
// both change nothing. Oversize input returns *InputTooLongError before any
// request is made.
func (c *Controller) Submit(ctx context.Context, text string) (Outcome, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Outcome{}, ErrEmptyInput
	}

	c.mu.Lock()
	if c.state != StateIdle {
		c.mu.Unlock()
		return Outcome{}, ErrBusy
	}
	if n := util.NormalizedLen(text); n > c.opts.MaxMessageLength {
		c.mu.Unlock()
		return Outcome{}, &InputTooLongError{Length: n, Max: c.opts.MaxMessageLength}
	}
	c.state = StateAwaitingResponse
	entry := model.NewUserEntry(text)
	epoch := c.transcript.Append(entry)
	c.exchangeEpoch = epoch
	c.mu.Unlock()

	c.emit(Event{Type: EventEntryAppended, Entry: entry})
	c.emit(Event{Type: EventStateChanged, State: StateAwaitingResponse})

	return c.dispatch(ctx, text, epoch), nil
}

// Inject submits text on behalf of a host, exactly like Submit.
func (c *Controller) Inject(ctx context.Context, text string) (Outcome, error) {
	return c.Submit(ctx, text)
}

// Retry re-sends originalText after the retry delay without adding another
// user entry. The retry counter is incremented first; it is the caller's job
// to only retry when the previous Outcome offered it. If the transcript was
// cleared since the exchange began, the answer is returned but not appended.
func (c *Controller) Retry(ctx context.Context, originalText string) (Outcome, error) {
	originalText = strings.TrimSpace(originalText)
	if originalText == "" {
		return Outcome{}, ErrEmptyInput
	}

	c.mu.Lock()
	if c.state != StateIdle {
		c.mu.Unlock()
		return Outcome{}, ErrBusy
	}
	c.retryCount++
	attempt := c.retryCount
	c.state = StateAwaitingResponse
	epoch := c.exchangeEpoch
	c.mu.Unlock()

	c.log.Info().Int("attempt", attempt).Dur("delay", c.opts.RetryDelay).Msg("retrying message")
	c.emit(Event{Type: EventStateChanged, State: StateAwaitingResponse})

	if err := sleepCtx(ctx, c.opts.RetryDelay); err != nil {
		return c.fail(&qa.Failure{Kind: qa.KindTimeout, Message: qa.MsgTimeout, Cause: err}, originalText), nil
	}

	return c.dispatch(ctx, originalText, epoch), nil
}

// dispatch runs the request and applies its outcome. The state is
// awaiting-response on entry and idle on return.
func (c *Controller) dispatch(ctx context.Context, text string, epoch uint64) Outcome {
	c.log.Debug().Str("endpoint", c.client.Endpoint()).Int("length", len(text)).Msg("dispatching message")

	ans, err := c.client.Ask(ctx, text)
	if err != nil {
		var f *qa.Failure
		if !errors.As(err, &f) {
			f = &qa.Failure{Kind: qa.KindUnexpectedStatus, Message: qa.MsgGeneric, Cause: err}
		}
		return c.fail(f, text)
	}

	entry := model.NewBotEntry(ans.Text)

	c.mu.Lock()
	appended := c.transcript.AppendIfEpoch(entry, epoch)
	c.retryCount = 0
	reconnected := !c.connected
	c.connected = true
	c.state = StateIdle
	c.mu.Unlock()

	c.log.Info().Dur("latency", ans.Latency).Bool("appended", appended).Msg("answer received")

	if appended {
		c.emit(Event{Type: EventEntryAppended, Entry: entry})
	}
	if reconnected {
		c.emit(Event{Type: EventConnectionChanged, Connected: true})
	}
	c.emit(Event{Type: EventStateChanged, State: StateIdle})

	return Outcome{Answer: ans, OriginalText: text, Dropped: !appended}
}

// fail classifies f into a notice and decides whether another retry is
// offered. Exhausting retries resets the counter.
func (c *Controller) fail(f *qa.Failure, text string) Outcome {
	out := Outcome{Failure: f, OriginalText: text}

	c.mu.Lock()
	disconnected := false
	if f.Kind == qa.KindNetworkUnreachable && c.connected {
		c.connected = false
		disconnected = true
	}
	attempts := c.retryCount
	if c.retryCount < c.opts.MaxRetries {
		out.RetryOffered = true
	} else {
		out.Terminal = true
		c.retryCount = 0
	}
	c.state = StateIdle
	c.mu.Unlock()

	out.Notice = f.Message
	if out.Notice == "" {
		out.Notice = f.Kind.Message()
	}
	if out.Terminal {
		out.Notice += TerminalSuffix
	}

	c.log.Warn().
		Str("kind", f.Kind.String()).
		Int("status", f.StatusCode).
		Str("detail", f.Detail).
		Int("retries", attempts).
		Bool("terminal", out.Terminal).
		Err(f.Cause).
		Msg("request failed")

	if disconnected {
		c.emit(Event{Type: EventConnectionChanged, Connected: false})
	}
	c.emit(Event{Type: EventFailure, Outcome: &out})
	c.emit(Event{Type: EventStateChanged, State: StateIdle})

	return out
}

// Clear empties the transcript. An answer still in flight is not added to
// the new transcript.
func (c *Controller) Clear() {
	c.transcript.Clear()
	c.log.Debug().Msg("transcript cleared")
	c.emit(Event{Type: EventCleared})
}

// Len returns the number of transcript entries.
func (c *Controller) Len() int {
	return c.transcript.Len()
}

// Transcript returns a copy of the conversation.
func (c *Controller) Transcript() []model.Entry {
	return c.transcript.Entries()
}

// SetEndpoint validates and applies a new question endpoint.
func (c *Controller) SetEndpoint(endpoint string) error {
	if err := c.client.SetEndpoint(endpoint); err != nil {
		return err
	}
	c.log.Info().Str("endpoint", endpoint).Msg("endpoint changed")
	return nil
}

// Endpoint returns the current question endpoint.
func (c *Controller) Endpoint() string {
	return c.client.Endpoint()
}

// State returns the current send state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// RetryCount returns the retry counter for the current exchange.
func (c *Controller) RetryCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.retryCount
}

// Connected reports the last known connection status.
func (c *Controller) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// MaxMessageLength returns the input limit in characters.
func (c *Controller) MaxMessageLength() int {
	return c.opts.MaxMessageLength
}

// MaxRetries returns how many retries an exchange may offer.
func (c *Controller) MaxRetries() int {
	return c.opts.MaxRetries
}

func (c *Controller) emit(e Event) {
	c.mu.Lock()
	o := c.observer
	c.mu.Unlock()
	if o != nil {
		o(e)
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
