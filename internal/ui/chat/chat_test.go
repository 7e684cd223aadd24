// Copyright (c) 2025 Janet Alwanga / NutriWise Assistant
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AlwangaJanet/NutriWise-Assistant/internal/config"
	"github.com/AlwangaJanet/NutriWise-Assistant/internal/controller"
	"github.com/AlwangaJanet/NutriWise-Assistant/internal/format"
	"github.com/AlwangaJanet/NutriWise-Assistant/internal/qa"
	"github.com/AlwangaJanet/NutriWise-Assistant/internal/ui/styles"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

type step struct {
	answer string
	err    error
}

type scriptedAsker struct {
	mu       sync.Mutex
	endpoint string
	steps    []step
	calls    int
}

func (s *scriptedAsker) Ask(ctx context.Context, question string) (*qa.Answer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.steps[min(s.calls, len(s.steps)-1)]
	s.calls++
	if st.err != nil {
		return nil, st.err
	}
	return &qa.Answer{Text: st.answer, StatusCode: 200}, nil
}

func (s *scriptedAsker) SetEndpoint(endpoint string) error {
	if err := qa.ValidateEndpoint(endpoint); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.endpoint = endpoint
	return nil
}

func (s *scriptedAsker) Endpoint() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.endpoint
}

var testSuggestions = []string{"What is a balanced breakfast?", "How much water should I drink?"}

func newTestModel(t *testing.T, steps ...step) (Model, *controller.Controller) {
	t.Helper()
	asker := &scriptedAsker{endpoint: qa.DefaultEndpoint, steps: steps}
	ctrl := controller.New(asker, controller.Options{
		MaxRetries:       3,
		RetryDelay:       0,
		MaxMessageLength: 500,
	})
	m := New(Options{
		Controller:      ctrl,
		Renderer:        format.NewRenderer(format.StylePlain, 80),
		Theme:           styles.NewTheme(),
		Suggestions:     testSuggestions,
		ShowSuggestions: true,
	})
	t.Cleanup(m.cancel)
	m, _ = update(m, tea.WindowSizeMsg{Width: 100, Height: 40})
	return m, ctrl
}

func update(m Model, msg tea.Msg) (Model, tea.Cmd) {
	tm, cmd := m.Update(msg)
	return tm.(Model), cmd
}

// drain applies every event the controller has emitted so far.
func drain(m Model) Model {
	for {
		select {
		case ev := <-m.events:
			m, _ = update(m, EventMsg{Event: ev})
		default:
			return m
		}
	}
}

// sendResult runs cmd and returns the SendResultMsg it produced. Only use it
// on commands returned by submit or retry; other batches may block.
func sendResult(t *testing.T, cmd tea.Cmd) SendResultMsg {
	t.Helper()
	require.NotNil(t, cmd)
	for _, msg := range collect(cmd) {
		if res, ok := msg.(SendResultMsg); ok {
			return res
		}
	}
	t.Fatal("command produced no SendResultMsg")
	return SendResultMsg{}
}

func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, collect(c)...)
		}
		return out
	}
	return []tea.Msg{msg}
}

// send types text, presses enter and applies the result and events.
func send(t *testing.T, m Model, text string) Model {
	t.Helper()
	m.input.SetValue(text)
	m, cmd := update(m, tea.KeyMsg{Type: tea.KeyEnter})
	res := sendResult(t, cmd)
	m = drain(m)
	m, _ = update(m, res)
	return m
}

func entryCount(m Model) int {
	n := 0
	for _, it := range m.items {
		if it.entry != nil {
			n++
		}
	}
	return n
}

// =============================================================================
// SENDING
// =============================================================================

func TestSubmitAppendsExchange(t *testing.T) {
	m, ctrl := newTestModel(t, step{answer: "Eat more fiber"})

	m.input.SetValue("How do I improve digestion?")
	m, cmd := update(m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, "", m.InputValue())
	assert.Equal(t, controller.StateAwaitingResponse, m.State())

	res := sendResult(t, cmd)
	require.NoError(t, res.Err)
	m = drain(m)
	m, _ = update(m, res)

	assert.Equal(t, controller.StateIdle, m.State())
	assert.Equal(t, 2, entryCount(m))
	assert.Len(t, ctrl.Transcript(), 2)
	assert.False(t, m.RetryAvailable())

	view := m.View()
	assert.Contains(t, view, "Eat more fiber")
	assert.Contains(t, view, "How do I improve digestion?")
	assert.NotContains(t, view, "Try asking:")
}

func TestSubmitBlankIsIgnored(t *testing.T) {
	m, _ := newTestModel(t, step{answer: "unused"})

	m.input.SetValue("   ")
	m, cmd := update(m, tea.KeyMsg{Type: tea.KeyEnter})

	assert.Nil(t, cmd)
	assert.Equal(t, controller.StateIdle, m.State())
	assert.Empty(t, m.items)
}

func TestSubmitWhileAwaitingKeepsInput(t *testing.T) {
	m, _ := newTestModel(t, step{answer: "ok"})
	m.state = controller.StateAwaitingResponse

	m.input.SetValue("second question")
	m, cmd := update(m, tea.KeyMsg{Type: tea.KeyEnter})

	assert.Nil(t, cmd)
	assert.Equal(t, "second question", m.InputValue())
}

func TestTooLongShowsToastAndRestoresInput(t *testing.T) {
	m, ctrl := newTestModel(t, step{answer: "unused"})
	long := strings.Repeat("a", 501)

	m.input.SetValue(long)
	m, cmd := update(m, tea.KeyMsg{Type: tea.KeyEnter})
	res := sendResult(t, cmd)
	require.True(t, controller.IsInputTooLong(res.Err))

	m, toastCmd := update(m, res)
	assert.NotNil(t, toastCmd)
	assert.Equal(t, "Message is too long. Please keep it under 500 characters.", m.Toast())
	assert.Equal(t, long, m.InputValue())
	assert.Equal(t, controller.StateIdle, m.State())
	assert.Empty(t, ctrl.Transcript())
	assert.Contains(t, m.View(), "501/500")

	stale, _ := update(m, ToastExpiredMsg{ID: m.toastID - 1})
	assert.NotEmpty(t, stale.Toast())

	m, _ = update(m, ToastExpiredMsg{ID: m.toastID})
	assert.Empty(t, m.Toast())
}

// =============================================================================
// RETRY
// =============================================================================

func TestRetryOfferIsConsumedOnce(t *testing.T) {
	timeout := &qa.Failure{Kind: qa.KindTimeout, Message: qa.MsgTimeout}
	m, ctrl := newTestModel(t, step{err: timeout}, step{answer: "Drink water"})

	m = send(t, m, "How much water?")
	require.True(t, m.RetryAvailable())
	view := m.View()
	assert.Contains(t, view, qa.MsgTimeout)
	assert.Contains(t, view, retryHint)

	m, cmd := update(m, tea.KeyMsg{Type: tea.KeyCtrlR})
	require.NotNil(t, cmd)
	assert.False(t, m.RetryAvailable())

	again, none := update(m, tea.KeyMsg{Type: tea.KeyCtrlR})
	assert.Nil(t, none)
	assert.False(t, again.RetryAvailable())

	res := sendResult(t, cmd)
	require.NoError(t, res.Err)
	assert.True(t, res.Retry)
	m = drain(m)
	m, _ = update(m, res)

	assert.Equal(t, 0, ctrl.RetryCount())
	assert.Equal(t, 2, entryCount(m))
	assert.Contains(t, m.View(), "Drink water")
	assert.NotContains(t, m.View(), retryHint)
}

func TestRetryWithoutOfferDoesNothing(t *testing.T) {
	m, _ := newTestModel(t, step{answer: "ok"})

	_, cmd := update(m, tea.KeyMsg{Type: tea.KeyCtrlR})
	assert.Nil(t, cmd)
}

func TestTerminalFailureOffersNoRetry(t *testing.T) {
	server := &qa.Failure{Kind: qa.KindServerError, StatusCode: 500, Message: qa.MsgServerError}
	m, _ := newTestModel(t, step{err: server})

	m = send(t, m, "Is coffee healthy?")
	for i := 0; i < 3; i++ {
		require.True(t, m.RetryAvailable(), "attempt %d", i)
		var cmd tea.Cmd
		m, cmd = update(m, tea.KeyMsg{Type: tea.KeyCtrlR})
		res := sendResult(t, cmd)
		m = drain(m)
		m, _ = update(m, res)
	}

	assert.False(t, m.RetryAvailable())
	last := m.items[len(m.items)-1]
	assert.True(t, strings.HasSuffix(last.notice, controller.TerminalSuffix))
	assert.NotContains(t, m.View(), retryHint)
}

// =============================================================================
// STATUS, CLEAR, SUGGESTIONS
// =============================================================================

func TestConnectionStatusFollowsEvents(t *testing.T) {
	down := &qa.Failure{Kind: qa.KindNetworkUnreachable, Message: qa.MsgNetworkUnreachable}
	m, _ := newTestModel(t, step{err: down}, step{answer: "Back online"})

	assert.True(t, m.Connected())
	assert.Contains(t, m.View(), "Connected")

	m = send(t, m, "Hello?")
	assert.False(t, m.Connected())
	assert.Contains(t, m.View(), "Disconnected")

	m, cmd := update(m, tea.KeyMsg{Type: tea.KeyCtrlR})
	res := sendResult(t, cmd)
	m = drain(m)
	m, _ = update(m, res)
	assert.True(t, m.Connected())
}

func TestClearResetsView(t *testing.T) {
	m, ctrl := newTestModel(t, step{answer: "Eat greens"})
	m = send(t, m, "What should I eat?")
	require.Equal(t, 2, entryCount(m))

	m, _ = update(m, tea.KeyMsg{Type: tea.KeyCtrlL})
	m = drain(m)

	assert.Empty(t, m.items)
	assert.Empty(t, ctrl.Transcript())
	assert.Contains(t, m.View(), welcomeTitle)
}

func TestClearShowsSuggestionsAgain(t *testing.T) {
	m, _ := newTestModel(t, step{answer: "Eat greens"})
	m = send(t, m, "What should I eat?")
	require.NotContains(t, m.View(), "Try asking:")

	m, _ = update(m, tea.KeyMsg{Type: tea.KeyCtrlL})
	m = drain(m)

	assert.Contains(t, m.View(), "Try asking:")
	m, _ = update(m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, testSuggestions[0], m.InputValue())
}

func TestTabCyclesSuggestions(t *testing.T) {
	m, _ := newTestModel(t, step{answer: "ok"})
	assert.Contains(t, m.View(), "Try asking:")

	tab := tea.KeyMsg{Type: tea.KeyTab}
	m, _ = update(m, tab)
	assert.Equal(t, testSuggestions[0], m.InputValue())
	m, _ = update(m, tab)
	assert.Equal(t, testSuggestions[1], m.InputValue())
	m, _ = update(m, tab)
	assert.Equal(t, testSuggestions[0], m.InputValue())

	m = send(t, m, m.InputValue())
	m.input.SetValue("mine")
	m, _ = update(m, tab)
	assert.Equal(t, "mine", m.InputValue())
	assert.NotContains(t, m.View(), "Try asking:")
}

func TestCounterTracksInput(t *testing.T) {
	m, _ := newTestModel(t, step{answer: "ok"})

	m, _ = update(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("abc")})
	assert.Equal(t, "abc", m.InputValue())
	assert.Contains(t, m.View(), "3/500")
}

// =============================================================================
// CONFIG RELOAD
// =============================================================================

func TestConfigChangeAppliesEndpoint(t *testing.T) {
	m, ctrl := newTestModel(t, step{answer: "ok"})

	cfg := config.Default()
	cfg.Endpoint.URL = "http://192.168.1.20:5000/ask"
	m, cmd := update(m, ConfigChangedMsg{Config: cfg})

	assert.NotNil(t, cmd)
	assert.Equal(t, "http://192.168.1.20:5000/ask", ctrl.Endpoint())
	assert.Contains(t, m.Toast(), "Endpoint set to")
}

func TestConfigChangeRejectsBadEndpoint(t *testing.T) {
	m, ctrl := newTestModel(t, step{answer: "ok"})
	before := ctrl.Endpoint()

	cfg := config.Default()
	cfg.Endpoint.URL = "ftp://example.com/ask"
	m, _ = update(m, ConfigChangedMsg{Config: cfg})

	assert.Equal(t, before, ctrl.Endpoint())
	assert.Contains(t, m.Toast(), "Invalid endpoint")
}

func TestConfigReloadError(t *testing.T) {
	m, _ := newTestModel(t, step{answer: "ok"})

	m, _ = update(m, ConfigChangedMsg{Err: errors.New("bad toml")})
	assert.Equal(t, "Config reload failed: bad toml", m.Toast())
}

func TestConfigForwarderKeepsFirstPending(t *testing.T) {
	fn, ch := ConfigForwarder()
	first := config.Default()
	fn(first, nil)
	fn(config.Default(), errors.New("dropped"))

	msg := WaitForConfig(ch)()
	got, ok := msg.(ConfigChangedMsg)
	require.True(t, ok)
	assert.Same(t, first, got.Config)
	assert.NoError(t, got.Err)

	assert.Nil(t, WaitForConfig(nil))
}

// =============================================================================
// QUIT AND KEYS
// =============================================================================

func TestQuitCancelsContext(t *testing.T) {
	m, _ := newTestModel(t, step{answer: "ok"})

	m, cmd := update(m, tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.Error(t, m.ctx.Err())
	assert.Equal(t, "", m.View())
}

func TestHelpLine(t *testing.T) {
	line := DefaultKeyMap().HelpLine()
	for _, want := range []string{"enter send", "ctrl+r retry", "ctrl+l clear", "esc quit"} {
		assert.Contains(t, line, want)
	}
}
