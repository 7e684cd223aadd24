// Copyright (c) 2025 Janet Alwanga / NutriWise Assistant
// SPDX-License-Identifier: AGPL-3.0-or-later

package controller

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/AlwangaJanet/NutriWise-Assistant/internal/model"
	"github.com/AlwangaJanet/NutriWise-Assistant/internal/qa"
)

// =============================================================================
// FAKE CLIENT
// =============================================================================

type fakeResult struct {
	answer string
	err    error
}

// fakeAsker replays results in order, repeating the last one.
type fakeAsker struct {
	mu       sync.Mutex
	endpoint string
	results  []fakeResult
	calls    []string

	// When gate is non-nil Ask signals started and waits for gate to close.
	gate    chan struct{}
	started chan struct{}
}

func newFakeAsker(results ...fakeResult) *fakeAsker {
	return &fakeAsker{endpoint: "http://127.0.0.1:5000/ask", results: results}
}

func (f *fakeAsker) gated() *fakeAsker {
	f.gate = make(chan struct{})
	f.started = make(chan struct{}, 16)
	return f
}

func (f *fakeAsker) Ask(ctx context.Context, question string) (*qa.Answer, error) {
	f.mu.Lock()
	f.calls = append(f.calls, question)
	idx := len(f.calls) - 1
	if idx >= len(f.results) {
		idx = len(f.results) - 1
	}
	res := f.results[idx]
	gate := f.gate
	f.mu.Unlock()

	if gate != nil {
		f.started <- struct{}{}
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, &qa.Failure{Kind: qa.KindTimeout, Message: qa.MsgTimeout, Cause: ctx.Err()}
		}
	}

	if res.err != nil {
		return nil, res.err
	}
	return &qa.Answer{Text: res.answer, StatusCode: http.StatusOK}, nil
}

func (f *fakeAsker) SetEndpoint(endpoint string) error {
	if err := qa.ValidateEndpoint(endpoint); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.endpoint = endpoint
	return nil
}

func (f *fakeAsker) Endpoint() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.endpoint
}

func (f *fakeAsker) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func ok(answer string) fakeResult { return fakeResult{answer: answer} }

func fail(kind qa.FailureKind) fakeResult {
	return fakeResult{err: &qa.Failure{Kind: kind, Message: kind.Message()}}
}

func testOptions() Options {
	opts := DefaultOptions()
	opts.RetryDelay = time.Millisecond
	return opts
}

// recorder collects events.
type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) observe(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) types() []EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]EventType, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}
	return out
}

func roles(entries []model.Entry) []model.Role {
	out := make([]model.Role, len(entries))
	for i, e := range entries {
		out[i] = e.Role
	}
	return out
}

// =============================================================================
// SUBMIT TESTS
// =============================================================================

func TestSubmit_Success(t *testing.T) {
	asker := newFakeAsker(ok("Eat more fiber"))
	c := New(asker, testOptions())

	out, err := c.Submit(context.Background(), "  How do I improve digestion?  ")
	require.NoError(t, err)

	require.True(t, out.OK())
	assert.Equal(t, "Eat more fiber", out.Answer.Text)
	assert.False(t, out.Dropped)
	assert.Equal(t, StateIdle, c.State())
	assert.Equal(t, 0, c.RetryCount())
	assert.True(t, c.Connected())

	entries := c.Transcript()
	require.Len(t, entries, 2)
	assert.Equal(t, model.RoleUser, entries[0].Role)
	assert.Equal(t, "How do I improve digestion?", entries[0].Content, "user text should be trimmed")
	assert.Equal(t, model.RoleBot, entries[1].Role)
	assert.Equal(t, "Eat more fiber", entries[1].Content)
}

func TestSubmit_AwaitingResponseWhileInFlight(t *testing.T) {
	defer goleak.VerifyNone(t)

	asker := newFakeAsker(ok("answer")).gated()
	c := New(asker, testOptions())

	done := make(chan Outcome)
	go func() {
		out, _ := c.Submit(context.Background(), "first")
		done <- out
	}()
	<-asker.started

	assert.Equal(t, StateAwaitingResponse, c.State())
	entries := c.Transcript()
	require.Len(t, entries, 1, "exactly one user entry while awaiting")
	assert.Equal(t, model.RoleUser, entries[0].Role)

	_, err := c.Submit(context.Background(), "second")
	assert.ErrorIs(t, err, ErrBusy)
	_, err = c.Retry(context.Background(), "first")
	assert.ErrorIs(t, err, ErrBusy)
	assert.Len(t, c.Transcript(), 1, "rejected submit must not append")
	assert.Equal(t, 0, c.RetryCount(), "rejected retry must not count")

	close(asker.gate)
	out := <-done
	assert.True(t, out.OK())
	assert.Equal(t, StateIdle, c.State())
	assert.Equal(t, 1, asker.callCount())
}

func TestSubmit_EmptyInput(t *testing.T) {
	asker := newFakeAsker(ok("x"))
	c := New(asker, testOptions())

	for _, in := range []string{"", "   ", "\n\t"} {
		_, err := c.Submit(context.Background(), in)
		assert.ErrorIs(t, err, ErrEmptyInput, "input %q", in)
	}
	assert.Empty(t, c.Transcript())
	assert.Equal(t, 0, asker.callCount())
	assert.Equal(t, StateIdle, c.State())
}

func TestSubmit_InputTooLong(t *testing.T) {
	asker := newFakeAsker(ok("x"))
	c := New(asker, testOptions())

	_, err := c.Submit(context.Background(), strings.Repeat("a", 501))
	require.Error(t, err)

	var tooLong *InputTooLongError
	require.True(t, errors.As(err, &tooLong))
	assert.Equal(t, 501, tooLong.Length)
	assert.Equal(t, KindInputTooLong, tooLong.Kind())
	assert.Equal(t, "Message is too long. Please keep it under 500 characters.", err.Error())
	assert.True(t, IsInputTooLong(err))

	assert.Empty(t, c.Transcript())
	assert.Equal(t, 0, asker.callCount(), "oversize input must never dispatch")
	assert.Equal(t, StateIdle, c.State())

	_, err = c.Submit(context.Background(), strings.Repeat("a", 500))
	assert.NoError(t, err)
	assert.Equal(t, 1, asker.callCount())
}

func TestSubmit_LengthCountsCharactersNotBytes(t *testing.T) {
	c := New(newFakeAsker(ok("x")), testOptions())

	// 500 two-byte runes.
	_, err := c.Submit(context.Background(), strings.Repeat("é", 500))
	assert.NoError(t, err)
}

// =============================================================================
// FAILURE AND RETRY TESTS
// =============================================================================

func TestSubmit_TimeoutOffersRetry(t *testing.T) {
	c := New(newFakeAsker(fail(qa.KindTimeout)), testOptions())

	out, err := c.Submit(context.Background(), "slow question")
	require.NoError(t, err)

	require.NotNil(t, out.Failure)
	assert.Equal(t, qa.KindTimeout, out.Failure.Kind)
	assert.True(t, out.RetryOffered)
	assert.False(t, out.Terminal)
	assert.Equal(t, qa.MsgTimeout, out.Notice)
	assert.Equal(t, "slow question", out.OriginalText)
	assert.Equal(t, StateIdle, c.State())
	assert.Equal(t, 0, c.RetryCount())
	assert.True(t, c.Connected(), "timeout does not mark disconnected")

	assert.Equal(t, []model.Role{model.RoleUser}, roles(c.Transcript()), "failures are not transcript entries")
}

func TestRetry_ExhaustionIsTerminal(t *testing.T) {
	asker := newFakeAsker(fail(qa.KindServerError))
	c := New(asker, testOptions())
	ctx := context.Background()

	out, err := c.Submit(ctx, "question")
	require.NoError(t, err)
	require.True(t, out.RetryOffered)

	for attempt := 1; attempt <= 2; attempt++ {
		out, err = c.Retry(ctx, out.OriginalText)
		require.NoError(t, err)
		assert.True(t, out.RetryOffered, "retry %d should still offer", attempt)
		assert.Equal(t, attempt, c.RetryCount())
	}

	out, err = c.Retry(ctx, out.OriginalText)
	require.NoError(t, err)
	assert.False(t, out.RetryOffered, "fourth failure omits retry")
	assert.True(t, out.Terminal)
	assert.Equal(t, qa.MsgServerError+TerminalSuffix, out.Notice)
	assert.Equal(t, 0, c.RetryCount(), "counter resets after terminal failure")

	assert.Equal(t, 4, asker.callCount())
	assert.Len(t, c.Transcript(), 1, "retries never re-append the user entry")
}

func TestRetry_SuccessResetsCounter(t *testing.T) {
	asker := newFakeAsker(fail(qa.KindTimeout), fail(qa.KindTimeout), ok("Try uji with milk"))
	c := New(asker, testOptions())
	ctx := context.Background()

	out, _ := c.Submit(ctx, "breakfast ideas")
	out, _ = c.Retry(ctx, out.OriginalText)
	require.Equal(t, 1, c.RetryCount())

	out, err := c.Retry(ctx, out.OriginalText)
	require.NoError(t, err)
	require.True(t, out.OK())
	assert.Equal(t, 0, c.RetryCount())

	want := []model.Role{model.RoleUser, model.RoleBot}
	if diff := cmp.Diff(want, roles(c.Transcript())); diff != "" {
		t.Errorf("transcript roles mismatch (-want +got):\n%s", diff)
	}
}

func TestRetry_ZeroMaxRetriesIsAlwaysTerminal(t *testing.T) {
	opts := testOptions()
	opts.MaxRetries = 0
	c := New(newFakeAsker(fail(qa.KindMalformedResponse)), opts)

	out, err := c.Submit(context.Background(), "q")
	require.NoError(t, err)
	assert.True(t, out.Terminal)
	assert.Equal(t, qa.MsgGeneric+TerminalSuffix, out.Notice)
}

func TestRetry_CancelDuringBackoffIsTimeout(t *testing.T) {
	defer goleak.VerifyNone(t)

	asker := newFakeAsker(ok("never"))
	opts := testOptions()
	opts.RetryDelay = time.Hour
	c := New(asker, opts)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	out, err := c.Retry(ctx, "q")
	require.NoError(t, err)
	require.NotNil(t, out.Failure)
	assert.Equal(t, qa.KindTimeout, out.Failure.Kind)
	assert.Equal(t, 0, asker.callCount())
	assert.Equal(t, StateIdle, c.State())
}

func TestRetry_Empty(t *testing.T) {
	c := New(newFakeAsker(ok("x")), testOptions())
	_, err := c.Retry(context.Background(), " ")
	assert.ErrorIs(t, err, ErrEmptyInput)
	assert.Equal(t, 0, c.RetryCount())
}

func TestSubmit_PlainErrorIsGeneric(t *testing.T) {
	c := New(newFakeAsker(fakeResult{err: errors.New("boom")}), testOptions())

	out, err := c.Submit(context.Background(), "q")
	require.NoError(t, err)
	assert.Equal(t, qa.MsgGeneric, out.Notice)
	assert.Equal(t, qa.KindUnexpectedStatus, out.Failure.Kind)
}

// =============================================================================
// CONNECTION STATUS TESTS
// =============================================================================

func TestConnectionStatus(t *testing.T) {
	rec := &recorder{}
	opts := testOptions()
	opts.Observer = rec.observe
	c := New(newFakeAsker(fail(qa.KindNetworkUnreachable), ok("back")), opts)
	ctx := context.Background()

	out, _ := c.Submit(ctx, "q")
	assert.Equal(t, qa.MsgNetworkUnreachable, out.Notice)
	assert.False(t, c.Connected())

	_, _ = c.Retry(ctx, out.OriginalText)
	assert.True(t, c.Connected())

	var changes []bool
	for _, e := range rec.events {
		if e.Type == EventConnectionChanged {
			changes = append(changes, e.Connected)
		}
	}
	assert.Equal(t, []bool{false, true}, changes)
}

// =============================================================================
// EVENT TESTS
// =============================================================================

func TestEvents_SuccessOrder(t *testing.T) {
	rec := &recorder{}
	opts := testOptions()
	opts.Observer = rec.observe
	c := New(newFakeAsker(ok("Eat more fiber")), opts)

	_, err := c.Submit(context.Background(), "q")
	require.NoError(t, err)

	want := []EventType{EventEntryAppended, EventStateChanged, EventEntryAppended, EventStateChanged}
	if diff := cmp.Diff(want, rec.types()); diff != "" {
		t.Errorf("event order mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, model.RoleUser, rec.events[0].Entry.Role)
	assert.Equal(t, StateAwaitingResponse, rec.events[1].State)
	assert.Equal(t, model.RoleBot, rec.events[2].Entry.Role)
	assert.Equal(t, StateIdle, rec.events[3].State)
}

func TestEvents_FailureCarriesOutcome(t *testing.T) {
	rec := &recorder{}
	c := New(newFakeAsker(fail(qa.KindServerError)), testOptions())
	c.SetObserver(rec.observe)

	_, err := c.Submit(context.Background(), "q")
	require.NoError(t, err)

	want := []EventType{EventEntryAppended, EventStateChanged, EventFailure, EventStateChanged}
	assert.Equal(t, want, rec.types())
	require.NotNil(t, rec.events[2].Outcome)
	assert.True(t, rec.events[2].Outcome.RetryOffered)
	assert.Equal(t, qa.MsgServerError, rec.events[2].Outcome.Notice)
}

// =============================================================================
// CLEAR TESTS
// =============================================================================

func TestClear(t *testing.T) {
	rec := &recorder{}
	opts := testOptions()
	opts.Observer = rec.observe
	c := New(newFakeAsker(ok("a")), opts)

	_, _ = c.Submit(context.Background(), "q")
	require.Len(t, c.Transcript(), 2)

	c.Clear()
	assert.Empty(t, c.Transcript())
	types := rec.types()
	assert.Equal(t, EventCleared, types[len(types)-1])
}

func TestClear_DuringFlightDropsLateAnswer(t *testing.T) {
	defer goleak.VerifyNone(t)

	asker := newFakeAsker(ok("late answer")).gated()
	c := New(asker, testOptions())

	done := make(chan Outcome)
	go func() {
		out, _ := c.Submit(context.Background(), "q")
		done <- out
	}()
	<-asker.started

	c.Clear()
	close(asker.gate)
	out := <-done

	require.True(t, out.OK())
	assert.Equal(t, "late answer", out.Answer.Text)
	assert.True(t, out.Dropped)
	assert.Empty(t, c.Transcript(), "answer from before the clear must not appear")
	assert.Equal(t, StateIdle, c.State())
}

func TestClear_RightAfterQuestionDropsAnswer(t *testing.T) {
	opts := testOptions()
	var c *Controller
	var once sync.Once
	opts.Observer = func(e Event) {
		if e.Type == EventEntryAppended && e.Entry.Role == model.RoleUser {
			once.Do(c.Clear)
		}
	}
	c = New(newFakeAsker(ok("orphan")), opts)

	out, err := c.Submit(context.Background(), "q")
	require.NoError(t, err)

	assert.True(t, out.Dropped)
	assert.Zero(t, c.Len(), "answer must not land without its question")
}

func TestLen(t *testing.T) {
	c := New(newFakeAsker(ok("a")), testOptions())
	assert.Zero(t, c.Len())

	_, _ = c.Submit(context.Background(), "q")
	assert.Equal(t, 2, c.Len())
}

func TestTranscript_ReturnsCopy(t *testing.T) {
	c := New(newFakeAsker(ok("a")), testOptions())
	_, _ = c.Submit(context.Background(), "q")

	entries := c.Transcript()
	entries[0].Content = "changed"
	assert.Equal(t, "q", c.Transcript()[0].Content)
}

// =============================================================================
// ENDPOINT TESTS
// =============================================================================

func TestSetEndpoint(t *testing.T) {
	c := New(qa.NewClient(), testOptions())

	require.NoError(t, c.SetEndpoint("https://nutriwise.example.com/ask"))
	assert.Equal(t, "https://nutriwise.example.com/ask", c.Endpoint())

	assert.Error(t, c.SetEndpoint("nope"))
	assert.Equal(t, "https://nutriwise.example.com/ask", c.Endpoint())
}

// =============================================================================
// CONCURRENCY TESTS
// =============================================================================

func TestSubmit_ConcurrentAdmitsOne(t *testing.T) {
	defer goleak.VerifyNone(t)

	asker := newFakeAsker(ok("a")).gated()
	c := New(asker, testOptions())

	const n = 20
	var wg sync.WaitGroup
	var busy sync.Map
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			_, err := c.Submit(context.Background(), "q")
			busy.Store(i, errors.Is(err, ErrBusy))
		}(i)
	}

	<-asker.started
	// Wait until every loser has been turned away.
	require.Eventually(t, func() bool {
		count := 0
		busy.Range(func(_, v any) bool {
			if v.(bool) {
				count++
			}
			return true
		})
		return count == n-1
	}, 2*time.Second, 5*time.Millisecond)

	close(asker.gate)
	wg.Wait()

	assert.Equal(t, 1, asker.callCount())
	assert.Len(t, c.Transcript(), 2)
}

// =============================================================================
// END-TO-END
// =============================================================================

func TestController_WithHTTPClient(t *testing.T) {
	var status = http.StatusInternalServerError
	var mu sync.Mutex
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		code := status
		mu.Unlock()
		w.WriteHeader(code)
		if code == http.StatusOK {
			w.Write([]byte(`{"answer":"Eat more fiber"}`))
			return
		}
		w.Write([]byte(`{"error":"Internal server error: quota"}`))
	}))
	defer srv.Close()

	client := qa.NewClientWithConfig(&qa.ClientConfig{Endpoint: srv.URL + "/ask", Timeout: 2 * time.Second})
	c := New(client, testOptions())
	ctx := context.Background()

	out, err := c.Submit(ctx, "What should I eat?")
	require.NoError(t, err)
	assert.Equal(t, qa.MsgServerError, out.Notice)
	assert.Equal(t, "Internal server error: quota", out.Failure.Detail)
	require.True(t, out.RetryOffered)

	mu.Lock()
	status = http.StatusOK
	mu.Unlock()

	out, err = c.Retry(ctx, out.OriginalText)
	require.NoError(t, err)
	require.True(t, out.OK())
	assert.Equal(t, "Eat more fiber", c.Transcript()[1].Content)
	assert.Equal(t, 0, c.RetryCount())
}
