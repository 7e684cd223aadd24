// Copyright (c) 2025 Janet Alwanga / NutriWise Assistant
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/AlwangaJanet/NutriWise-Assistant/internal/controller"
	"github.com/AlwangaJanet/NutriWise-Assistant/internal/format"
	"github.com/AlwangaJanet/NutriWise-Assistant/internal/model"
	"github.com/AlwangaJanet/NutriWise-Assistant/internal/ui/styles"
)

// =============================================================================
// DISPLAY ITEMS
// =============================================================================

// item is one block in the viewport: a transcript entry or a failure notice.
// Notices are not part of the transcript.
type item struct {
	entry  *model.Entry
	notice string
}

// =============================================================================
// MODEL
// =============================================================================

// Options configures a chat Model.
type Options struct {
	// Context bounds every send. It is cancelled when the user quits.
	Context context.Context

	// Controller is required. Its observer is replaced by the model's.
	Controller *controller.Controller

	Renderer        *format.Renderer
	Theme           *styles.Theme
	Suggestions     []string
	ShowSuggestions bool
	RenderMarkdown  bool

	// ConfigUpdates delivers config reloads, usually from ConfigForwarder.
	ConfigUpdates <-chan ConfigChangedMsg

	Logger *zerolog.Logger
}

// Model is the Bubble Tea model for the chat view.
type Model struct {
	ctx    context.Context
	cancel context.CancelFunc

	ctrl     *controller.Controller
	events   chan controller.Event
	renderer *format.Renderer
	theme    *styles.Theme
	keys     KeyMap
	log      zerolog.Logger

	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model

	items     []item
	state     controller.State
	connected bool

	// retryText is the message bound to the current retry offer.
	retryText  string
	retryItem  int
	retryReady bool

	suggestions     []string
	suggestionIndex int
	showSuggestions bool
	sent            bool
	renderMarkdown  bool

	toast   string
	toastID int

	configUpdates <-chan ConfigChangedMsg

	width    int
	height   int
	ready    bool
	quitting bool
}

// New creates a chat model bound to opts.Controller.
func New(opts Options) Model {
	parent := opts.Context
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)

	renderer := opts.Renderer
	if renderer == nil {
		renderer = format.NewRenderer(format.StyleAuto, format.DefaultWrap)
	}
	theme := opts.Theme
	if theme == nil {
		theme = styles.NewTheme()
	}
	log := zerolog.Nop()
	if opts.Logger != nil {
		log = opts.Logger.With().Str("component", "tui").Logger()
	}

	events := make(chan controller.Event, eventBuffer)
	opts.Controller.SetObserver(func(ev controller.Event) {
		select {
		case events <- ev:
		case <-ctx.Done():
		}
	})

	ti := textinput.New()
	ti.Placeholder = "Ask about meals, nutrients or diets..."
	ti.Prompt = "> "
	ti.CharLimit = 0
	ti.Focus()

	sp := spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(theme.Typing))

	return Model{
		ctx:             ctx,
		cancel:          cancel,
		ctrl:            opts.Controller,
		events:          events,
		renderer:        renderer,
		theme:           theme,
		keys:            DefaultKeyMap(),
		log:             log,
		input:           ti,
		viewport:        viewport.New(80, 20),
		spinner:         sp,
		state:           opts.Controller.State(),
		connected:       opts.Controller.Connected(),
		retryItem:       -1,
		suggestions:     append([]string(nil), opts.Suggestions...),
		suggestionIndex: -1,
		showSuggestions: opts.ShowSuggestions,
		renderMarkdown:  opts.RenderMarkdown,
		configUpdates:   opts.ConfigUpdates,
		width:           80,
		height:          24,
	}
}

// Init starts the cursor blink and the event and config listeners.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		waitForEvent(m.events),
		WaitForConfig(m.configUpdates),
	)
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)

	case EventMsg:
		return m.handleEvent(msg.Event)

	case eventsClosedMsg:
		return m, nil

	case SendResultMsg:
		return m.handleSendResult(msg)

	case ConfigChangedMsg:
		return m.handleConfigChanged(msg)

	case ToastExpiredMsg:
		if msg.ID == m.toastID {
			m.toast = ""
			m.layout()
		}
		return m, nil

	case spinner.TickMsg:
		if m.state != controller.StateAwaitingResponse {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		m.refreshViewport()
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// =============================================================================
// KEY HANDLING
// =============================================================================

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		m.cancel()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Submit):
		return m.submit()

	case key.Matches(msg, m.keys.Retry):
		return m.retry()

	case key.Matches(msg, m.keys.Clear):
		m.ctrl.Clear()
		return m, nil

	case key.Matches(msg, m.keys.Suggestion):
		m.cycleSuggestion()
		return m, nil

	case key.Matches(msg, m.keys.PageUp):
		m.viewport.ViewUp()
		return m, nil

	case key.Matches(msg, m.keys.PageDown):
		m.viewport.ViewDown()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submit hands the input to the controller. The input is cleared up front and
// restored if the controller rejects the text as too long.
func (m Model) submit() (tea.Model, tea.Cmd) {
	if m.state == controller.StateAwaitingResponse {
		return m, nil
	}
	text := m.input.Value()
	if isBlank(text) {
		return m, nil
	}
	m.input.Reset()
	m.suggestionIndex = -1
	m.state = controller.StateAwaitingResponse
	return m, tea.Batch(SubmitCmd(m.ctx, m.ctrl, text), m.spinner.Tick)
}

// retry takes the current retry offer. Each offer can be taken once.
func (m Model) retry() (tea.Model, tea.Cmd) {
	if !m.retryReady || m.state == controller.StateAwaitingResponse {
		return m, nil
	}
	text := m.retryText
	m.retryReady = false
	m.state = controller.StateAwaitingResponse
	m.refreshViewport()
	return m, tea.Batch(RetryCmd(m.ctx, m.ctrl, text), m.spinner.Tick)
}

func (m *Model) cycleSuggestion() {
	if !m.suggestionsVisible() {
		return
	}
	m.suggestionIndex = (m.suggestionIndex + 1) % len(m.suggestions)
	m.input.SetValue(m.suggestions[m.suggestionIndex])
	m.input.CursorEnd()
}

func (m Model) suggestionsVisible() bool {
	return m.showSuggestions && !m.sent && len(m.suggestions) > 0
}

// =============================================================================
// CONTROLLER EVENTS
// =============================================================================

func (m Model) handleEvent(ev controller.Event) (tea.Model, tea.Cmd) {
	cmds := []tea.Cmd{waitForEvent(m.events)}

	switch ev.Type {
	case controller.EventEntryAppended:
		entry := ev.Entry
		m.items = append(m.items, item{entry: &entry})
		if entry.Role == model.RoleUser && !m.sent {
			m.sent = true
			m.layout()
		}

	case controller.EventStateChanged:
		if ev.State == controller.StateAwaitingResponse && m.state != ev.State {
			cmds = append(cmds, m.spinner.Tick)
		}
		m.state = ev.State

	case controller.EventConnectionChanged:
		m.connected = ev.Connected

	case controller.EventFailure:
		if ev.Outcome != nil {
			m.items = append(m.items, item{notice: ev.Outcome.Notice})
			if ev.Outcome.RetryOffered {
				m.retryItem = len(m.items) - 1
			}
		}

	case controller.EventCleared:
		m.items = nil
		m.retryReady = false
		m.retryItem = -1
		m.sent = false
		m.layout()
	}

	m.refreshViewport()
	return m, tea.Batch(cmds...)
}

func (m Model) handleSendResult(msg SendResultMsg) (tea.Model, tea.Cmd) {
	if msg.Err != nil {
		// Rejected sends never reach the observer, so resync the
		// optimistic state set by submit.
		m.state = m.ctrl.State()
		var tooLong *controller.InputTooLongError
		switch {
		case errors.As(msg.Err, &tooLong):
			if m.input.Value() == "" {
				m.input.SetValue(msg.Text)
				m.input.CursorEnd()
			}
			return m.showToast(tooLong.Error())
		case errors.Is(msg.Err, controller.ErrEmptyInput), errors.Is(msg.Err, controller.ErrBusy):
			return m, nil
		default:
			m.log.Warn().Err(msg.Err).Msg("send failed")
			return m.showToast(msg.Err.Error())
		}
	}

	out := msg.Outcome
	if out.RetryOffered {
		m.retryText = out.OriginalText
		m.retryReady = true
	} else {
		m.retryReady = false
	}
	m.refreshViewport()
	return m, nil
}

func (m Model) handleConfigChanged(msg ConfigChangedMsg) (tea.Model, tea.Cmd) {
	next := WaitForConfig(m.configUpdates)

	if msg.Err != nil {
		m.log.Warn().Err(msg.Err).Msg("config reload failed")
		tm, cmd := m.showToast("Config reload failed: " + msg.Err.Error())
		return tm, tea.Batch(cmd, next)
	}
	if msg.Config == nil {
		return m, next
	}

	url := msg.Config.Endpoint.URL
	if url == "" || url == m.ctrl.Endpoint() {
		return m, next
	}
	if err := m.ctrl.SetEndpoint(url); err != nil {
		tm, cmd := m.showToast("Invalid endpoint: " + err.Error())
		return tm, tea.Batch(cmd, next)
	}
	m.log.Info().Str("endpoint", url).Msg("endpoint changed")
	tm, cmd := m.showToast("Endpoint set to " + url)
	return tm, tea.Batch(cmd, next)
}

func (m Model) showToast(text string) (tea.Model, tea.Cmd) {
	m.toastID++
	m.toast = text
	m.layout()
	return m, toastTimeout(m.toastID, ToastDuration)
}

// =============================================================================
// LAYOUT
// =============================================================================

func (m Model) handleResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height
	m.ready = true
	m.theme.SetSize(msg.Width, msg.Height)
	m.input.Width = max(10, msg.Width-8)
	m.renderer.SetWidth(m.bubbleWidth() - 4)
	m.layout()
	return m, nil
}

// layout sizes the viewport to whatever the chrome leaves over.
func (m *Model) layout() {
	chrome := 1 + 3 + 1 // header, input box, footer
	if m.suggestionsVisible() {
		chrome += len(m.suggestions) + 1
	}
	if m.toast != "" {
		chrome++
	}
	m.viewport.Width = m.width
	m.viewport.Height = max(3, m.height-chrome)
	m.refreshViewport()
}

func (m *Model) refreshViewport() {
	m.viewport.SetContent(m.renderItems())
	m.viewport.GotoBottom()
}

func (m Model) bubbleWidth() int {
	return max(20, m.width-8)
}

// =============================================================================
// ACCESSORS
// =============================================================================

// State returns the send state as last reported by the controller.
func (m Model) State() controller.State {
	return m.state
}

// Connected returns the connection status as last reported.
func (m Model) Connected() bool {
	return m.connected
}

// RetryAvailable reports whether ctrl+r would retry.
func (m Model) RetryAvailable() bool {
	return m.retryReady
}

// Toast returns the visible toast text, if any.
func (m Model) Toast() string {
	return m.toast
}

// InputValue returns the current input text.
func (m Model) InputValue() string {
	return m.input.Value()
}
