// Copyright (c) 2025 Janet Alwanga / NutriWise Assistant
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"github.com/AlwangaJanet/NutriWise-Assistant/internal/config"
	"github.com/AlwangaJanet/NutriWise-Assistant/internal/controller"
	"github.com/AlwangaJanet/NutriWise-Assistant/internal/format"
	"github.com/AlwangaJanet/NutriWise-Assistant/internal/model"
)

const replPrompt = "nutriwise> "

// =============================================================================
// LINE EDITING
// =============================================================================

// ChatCLI provides input history and line editing for the REPL.
type ChatCLI struct {
	line        *liner.State
	historyFile string
}

// NewChatCLI creates a liner-backed prompt with history loaded from
// ~/.nutriwise/chat_history.
func NewChatCLI() *ChatCLI {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	dir, err := config.ConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	c := &ChatCLI{line: line, historyFile: filepath.Join(dir, "chat_history")}
	c.LoadHistory()
	return c
}

// LoadHistory loads prompt history from disk.
func (c *ChatCLI) LoadHistory() {
	if f, err := os.Open(c.historyFile); err == nil {
		_, _ = c.line.ReadHistory(f)
		f.Close()
	}
}

// ReadInput reads one line, adding non-blank input to history.
func (c *ChatCLI) ReadInput(prompt string) (string, error) {
	input, err := c.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		c.line.AppendHistory(input)
	}
	return input, nil
}

// SaveHistory writes prompt history with 0600 permissions.
func (c *ChatCLI) SaveHistory() {
	if err := os.MkdirAll(filepath.Dir(c.historyFile), 0700); err != nil {
		return
	}
	f, err := os.OpenFile(c.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return
	}
	defer f.Close()
	_, _ = c.line.WriteHistory(f)
}

// Close saves history and restores the terminal.
func (c *ChatCLI) Close() {
	c.SaveHistory()
	c.line.Close()
}

// =============================================================================
// SESSION
// =============================================================================

// ChatSession is one REPL conversation.
type ChatSession struct {
	ctrl     *controller.Controller
	renderer *format.Renderer
	out      io.Writer
	width    int

	// retryText is the message bound to the latest retry offer.
	retryText string
	canRetry  bool

	inFlight atomic.Bool
}

// NewChatSession creates a session writing to out.
func NewChatSession(ctrl *controller.Controller, renderer *format.Renderer, out io.Writer, width int) *ChatSession {
	if width <= 0 {
		width = DefaultTerminalWidth
	}
	return &ChatSession{ctrl: ctrl, renderer: renderer, out: &syncWriter{w: out}, width: width}
}

// Interrupt handles Ctrl+C. A running request is left to finish or time
// out; the user only gets a hint. It reports whether a request was running.
func (s *ChatSession) Interrupt() bool {
	if !s.inFlight.Load() {
		return false
	}
	fmt.Fprintln(s.out, DimStyle.Render(interruptHint))
	return true
}

// watchInterrupts calls Interrupt for every signal until sigs is closed.
func (s *ChatSession) watchInterrupts(sigs <-chan os.Signal) {
	for range sigs {
		s.Interrupt()
	}
}

const interruptHint = "[Still waiting for NutriWise. The request ends when it is answered or times out.]"

// syncWriter serialises writes from the prompt loop and the signal handler.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (w *syncWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.w.Write(p)
}

// =============================================================================
// COMMAND
// =============================================================================

func newChatCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Line-based chat with history (no full-screen UI)",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runChat(cmd, app)
		},
	}
}

func runChat(cmd *cobra.Command, app *App) error {
	if err := RequiresTTY("nutriwise chat"); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	width := GetTerminalWidth()
	ctrl := app.newController(app.newClient())
	session := NewChatSession(ctrl, app.newRenderer(width-4), out, width)

	input := NewChatCLI()
	defer input.Close()

	// At the prompt liner reports Ctrl+C as ErrPromptAborted. While a
	// request is running the signal arrives here and is only acknowledged.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt)
	defer func() {
		signal.Stop(sigs)
		close(sigs)
	}()
	go session.watchInterrupts(sigs)

	printWelcome(out, ctrl)

	ctx := cmd.Context()
	for {
		line, err := input.ReadInput(replPrompt)
		if err != nil {
			if !errors.Is(err, liner.ErrPromptAborted) && !errors.Is(err, io.EOF) {
				app.Logger.Warn().Err(err).Msg("prompt failed")
			}
			fmt.Fprintln(out)
			return nil
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.EqualFold(line, "exit") || strings.EqualFold(line, "quit") {
			return nil
		}

		if strings.HasPrefix(line, "/") {
			keepGoing, err := session.HandleSlashCommand(ctx, line)
			if err != nil {
				fmt.Fprintf(out, "%s %v\n", ErrorStyle.Render("[Error]"), err)
			}
			if !keepGoing {
				return nil
			}
			continue
		}

		session.Send(ctx, line)
	}
}

// =============================================================================
// MESSAGE PROCESSING
// =============================================================================

// Send submits text and prints the answer or failure notice.
func (s *ChatSession) Send(ctx context.Context, text string) {
	s.inFlight.Store(true)
	defer s.inFlight.Store(false)

	outcome, err := s.ctrl.Submit(ctx, text)
	if err != nil {
		var tooLong *controller.InputTooLongError
		if errors.As(err, &tooLong) {
			fmt.Fprintf(s.out, "%s %s\n", WarningStyle.Render("[!]"), tooLong.Error())
		}
		return
	}
	s.printOutcome(outcome)
}

// Retry takes the latest retry offer.
func (s *ChatSession) Retry(ctx context.Context) error {
	if !s.canRetry {
		return errors.New("nothing to retry")
	}
	s.canRetry = false

	s.inFlight.Store(true)
	defer s.inFlight.Store(false)

	fmt.Fprintln(s.out, DimStyle.Render(fmt.Sprintf("Retrying (%d/%d)...", s.ctrl.RetryCount()+1, s.ctrl.MaxRetries())))
	outcome, err := s.ctrl.Retry(ctx, s.retryText)
	if err != nil {
		return err
	}
	s.printOutcome(outcome)
	return nil
}

func (s *ChatSession) printOutcome(o controller.Outcome) {
	label := BotLabelStyle.Render(model.RoleBot.DisplayName() + ":")
	if o.OK() {
		s.canRetry = false
		fmt.Fprintf(s.out, "\n%s\n%s\n\n", label, s.renderer.Render(o.Answer.Text))
		return
	}

	fmt.Fprintf(s.out, "\n%s %s\n", label, WarningStyle.Render(o.Notice))
	if o.RetryOffered {
		s.retryText = o.OriginalText
		s.canRetry = true
		fmt.Fprintln(s.out, DimStyle.Render("Type /retry to try again."))
	} else {
		s.canRetry = false
	}
	fmt.Fprintln(s.out)
}

// =============================================================================
// SLASH COMMANDS
// =============================================================================

// HandleSlashCommand runs one slash command. It returns false when the
// session should end.
func (s *ChatSession) HandleSlashCommand(ctx context.Context, line string) (bool, error) {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return true, nil
	}
	command := strings.ToLower(parts[0])
	args := parts[1:]

	switch command {
	case "/help", "/h", "/?", "/":
		printHelp(s.out)
	case "/retry", "/r":
		return true, s.Retry(ctx)
	case "/clear", "/c":
		s.ctrl.Clear()
		s.canRetry = false
		fmt.Fprintln(s.out, CommandStyle.Render("[Conversation cleared]"))
	case "/history":
		s.printHistory()
	case "/endpoint", "/e":
		if len(args) == 0 {
			fmt.Fprintln(s.out, RenderLabel("Endpoint", s.ctrl.Endpoint()))
			return true, nil
		}
		if err := s.ctrl.SetEndpoint(args[0]); err != nil {
			return true, err
		}
		fmt.Fprintln(s.out, RenderLabel("Endpoint", s.ctrl.Endpoint()))
	case "/status", "/s":
		s.printStatus()
	case "/quit", "/q", "/exit":
		return false, nil
	default:
		return true, fmt.Errorf("unknown command: %s (type /help for commands)", command)
	}
	return true, nil
}

func printWelcome(out io.Writer, ctrl *controller.Controller) {
	fmt.Fprintln(out, TitleStyle.Render("NutriWise AI"))
	fmt.Fprintln(out, "Hi! I'm NutriWise, your nutrition assistant.")
	fmt.Fprintln(out, DimStyle.Render("Endpoint: "+ctrl.Endpoint()))
	fmt.Fprintln(out, InfoStyle.Render("Type your question and press Enter. Commands: /help, /quit"))
	fmt.Fprintln(out)
}

func printHelp(out io.Writer) {
	fmt.Fprintln(out)
	fmt.Fprintln(out, TitleStyle.Render("Available Commands"))
	fmt.Fprint(out, RenderCommandTable([][2]string{
		{"/help, /h", "Show this help"},
		{"/retry, /r", "Retry the last failed message"},
		{"/clear, /c", "Clear the conversation"},
		{"/history", "Show the conversation"},
		{"/endpoint [url]", "Show or change the answer service URL"},
		{"/status, /s", "Show connection and retry state"},
		{"/quit, /q", "Exit chat"},
	}))
	fmt.Fprintln(out)
	fmt.Fprintln(out, InfoStyle.Render("Tip: Ctrl+D or /quit exits"))
	fmt.Fprintln(out)
}

func (s *ChatSession) printStatus() {
	fmt.Fprintln(s.out, RenderLabel("Endpoint", s.ctrl.Endpoint()))
	fmt.Fprintln(s.out, RenderLabel("Connection", connectionText(s.ctrl.Connected())))
	fmt.Fprintln(s.out, RenderLabel("State", s.ctrl.State().String()))
	fmt.Fprintln(s.out, RenderLabel("Retries used", fmt.Sprintf("%d/%d", s.ctrl.RetryCount(), s.ctrl.MaxRetries())))
	fmt.Fprintln(s.out, RenderLabel("Messages", fmt.Sprint(s.ctrl.Len())))
}

func (s *ChatSession) printHistory() {
	entries := s.ctrl.Transcript()
	if len(entries) == 0 {
		fmt.Fprintln(s.out, DimStyle.Render("No messages yet."))
		return
	}
	previewWidth := max(20, s.width-24)
	for _, e := range entries {
		label := UserLabelStyle.Render(e.Role.DisplayName())
		if e.Role == model.RoleBot {
			label = BotLabelStyle.Render(e.Role.DisplayName())
		}
		fmt.Fprintf(s.out, "%s %s %s\n",
			DimStyle.Render(e.Timestamp.Format("15:04")),
			label,
			e.Preview(previewWidth))
	}
}

func connectionText(connected bool) string {
	if connected {
		return "connected"
	}
	return "disconnected"
}
