// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// chat.go - Line-based interactive chat.
//
// The plain mode drives the same session engine as the TUI and writes the
// same history snapshot, so both views stay interchangeable.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"syscall"

	"github.com/peterh/liner"

	"github.com/jeranaias/domainchat/internal/config"
	"github.com/jeranaias/domainchat/internal/domain"
	"github.com/jeranaias/domainchat/internal/model"
	"github.com/jeranaias/domainchat/internal/session"
	"github.com/jeranaias/domainchat/internal/util"
)

// =============================================================================
// INPUT HISTORY
// =============================================================================

// ChatCLI provides line editing and input history for the plain chat.
type ChatCLI struct {
	line        *liner.State
	historyFile string
}

// NewChatCLI creates a ChatCLI whose input history lives in the config
// directory.
func NewChatCLI() *ChatCLI {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	dir, err := config.ConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	c := &ChatCLI{line: line, historyFile: filepath.Join(dir, "input_history")}
	c.LoadHistory()
	return c
}

// LoadHistory reads previous input lines.
func (c *ChatCLI) LoadHistory() {
	if f, err := os.Open(c.historyFile); err == nil {
		_, _ = c.line.ReadHistory(f)
		f.Close()
	}
}

// ReadInput prompts for a line. Non-blank lines are added to the history.
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

// SaveHistory writes the input history with owner-only permissions.
func (c *ChatCLI) SaveHistory() {
	if err := os.MkdirAll(filepath.Dir(c.historyFile), 0o755); err != nil {
		return
	}
	f, err := os.OpenFile(c.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
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
// CHAT SESSION
// =============================================================================

// PlainChat is a REPL over a session engine.
type PlainChat struct {
	Engine *session.Engine
	Out    io.Writer

	mu      sync.Mutex
	sending bool
}

// HandleChatCommand runs the plain chat until /quit, Ctrl+C or EOF.
func HandleChatCommand(args Args) error {
	app, err := OpenApp(args)
	if err != nil {
		return err
	}
	defer app.Close()

	provider, err := app.Provider()
	if err != nil {
		return err
	}

	ctx := context.Background()
	engine := app.Engine(provider)
	_ = engine.Start(ctx, app.Config.Chat.StartFresh)

	chat := &PlainChat{Engine: engine, Out: out}
	input := NewChatCLI()
	defer input.Close()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		for range sigChan {
			chat.interrupt()
		}
	}()

	chat.printWelcome(provider.Name(), app.Config.Provider.Model)
	for {
		line, err := input.ReadInput(chat.prompt())
		if err != nil {
			fmt.Fprintln(chat.Out)
			return nil
		}
		if !chat.HandleLine(ctx, line) {
			return nil
		}
	}
}

// HandleLine processes one input line. It returns false when the chat
// should end.
func (c *PlainChat) HandleLine(ctx context.Context, line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return true
	}
	if strings.HasPrefix(line, "/") {
		cont, err := c.handleSlash(ctx, line)
		if err != nil {
			fmt.Fprintln(c.Out, ErrorStyle.Render("[Error] ")+err.Error())
		}
		return cont
	}
	if strings.EqualFold(line, "exit") || strings.EqualFold(line, "quit") {
		return false
	}
	c.send(ctx, line)
	return true
}

func (c *PlainChat) send(ctx context.Context, text string) {
	c.mu.Lock()
	c.sending = true
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.sending = false
		c.mu.Unlock()
	}()

	d := c.Engine.State().ActiveDomain()
	c.print(RenderDomain(d) + ": ")

	streamed := false
	reply, err := c.Engine.Send(ctx, text, func(fragment string) {
		streamed = true
		c.print(fragment)
	})
	switch {
	case errors.Is(err, session.ErrBusy), errors.Is(err, session.ErrEmptyMessage):
		c.print(DimStyle.Render(err.Error()) + "\n")
		return
	case err != nil:
		if streamed {
			c.print("\n")
		}
		c.print(ErrorStyle.Render(reply) + "\n")
		return
	}
	if !streamed {
		c.print(DimStyle.Render("(no reply)"))
	}
	c.print("\n")
}

// interrupt handles Ctrl+C outside the prompt. A reply in flight is never
// cancelled; it finishes or fails on its own.
func (c *PlainChat) interrupt() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sending {
		fmt.Fprint(c.Out, "\n"+DimStyle.Render("(the reply keeps streaming until it finishes)")+"\n")
	}
}

func (c *PlainChat) print(s string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprint(c.Out, s)
}

// =============================================================================
// SLASH COMMANDS
// =============================================================================

const plainHelp = `Commands:
  /domain NAME   Switch domain (cars, anime, manga, bikes)
  /new [NAME]    Start a new chat
  /history       List conversations, newest first
  /select N      Open conversation N
  /delete N      Delete conversation N
  /quick N       Send quick reply N of the current domain
  /show          Print the current conversation
  /help          Show this help
  /quit          Leave`

func (c *PlainChat) handleSlash(ctx context.Context, line string) (bool, error) {
	fields := strings.Fields(line)
	cmd, rest := strings.ToLower(fields[0]), fields[1:]
	arg := ""
	if len(rest) > 0 {
		arg = rest[0]
	}

	switch cmd {
	case "/quit", "/exit", "/q":
		return false, nil
	case "/help", "/?":
		fmt.Fprintln(c.Out, plainHelp)
	case "/domain", "/d":
		if arg == "" {
			return true, ErrMissingArgument("domain", "/domain NAME")
		}
		id, err := domain.Parse(arg)
		if err != nil {
			return true, err
		}
		if err := c.Engine.ChangeDomain(ctx, id); err != nil {
			return true, err
		}
		c.printActive()
	case "/new", "/n":
		d := c.Engine.State().ActiveDomain()
		if arg != "" {
			id, err := domain.Parse(arg)
			if err != nil {
				return true, err
			}
			d = id
		}
		if err := c.Engine.NewChat(ctx, d); err != nil {
			return true, err
		}
		c.printActive()
	case "/history", "/h":
		c.printHistory()
	case "/select", "/delete":
		conv, err := c.pick(arg, cmd)
		if err != nil {
			return true, err
		}
		if cmd == "/select" {
			if err := c.Engine.Select(ctx, conv.ID); err != nil {
				return true, err
			}
			c.printTranscript()
			return true, nil
		}
		if err := c.Engine.Delete(ctx, conv.ID); err != nil {
			return true, err
		}
		fmt.Fprintln(c.Out, SuccessStyle.Render("Deleted."))
	case "/quick":
		n, err := ParseIntWithValidation(arg, "N")
		if err != nil {
			return true, err
		}
		text, ok := domain.QuickReply(c.Engine.State().ActiveDomain(), n-1)
		if !ok {
			return true, &UsageError{Message: fmt.Sprintf("no quick reply %d", n)}
		}
		fmt.Fprintln(c.Out, DimStyle.Render("> "+text))
		c.send(ctx, text)
	case "/show":
		c.printTranscript()
	default:
		return true, &UsageError{Message: "unknown command " + cmd, Usage: "/help"}
	}
	return true, nil
}

// pick resolves a 1-based position in the newest-first list.
func (c *PlainChat) pick(arg, cmd string) (model.Conversation, error) {
	if arg == "" {
		return model.Conversation{}, ErrMissingArgument("N", cmd+" N")
	}
	n, err := ParseIntWithValidation(arg, "N")
	if err != nil {
		return model.Conversation{}, err
	}
	sorted := c.Engine.State().Sorted()
	if n < 1 || n > len(sorted) {
		return model.Conversation{}, &NotFoundError{Resource: "conversation", ID: strconv.Itoa(n)}
	}
	return sorted[n-1], nil
}

// =============================================================================
// OUTPUT
// =============================================================================

func (c *PlainChat) prompt() string {
	name := strings.ToLower(domain.NameOf(c.Engine.State().ActiveDomain(), "chat"))
	return name + "> "
}

func (c *PlainChat) printWelcome(provider, modelName string) {
	fmt.Fprintln(c.Out, TitleStyle.Render("domainchat "+Version))
	fmt.Fprintln(c.Out, DimStyle.Render(fmt.Sprintf("%s / %s - /help for commands", provider, modelName)))
	c.printTranscript()
}

func (c *PlainChat) printActive() {
	active, ok := c.Engine.State().Active()
	if !ok {
		return
	}
	fmt.Fprintln(c.Out, RenderDomain(active.Domain)+": "+lastContent(active))
}

func (c *PlainChat) printTranscript() {
	active, ok := c.Engine.State().Active()
	if !ok {
		return
	}
	fmt.Fprintln(c.Out, RenderSeparator(GetTerminalWidth()))
	for _, m := range active.Messages {
		who := PromptStyle.Render("You")
		if m.Role == model.RoleModel {
			who = RenderDomain(active.Domain)
		}
		content := m.Content
		if content == "" {
			content = DimStyle.Render("(no reply)")
		}
		fmt.Fprintln(c.Out, who+": "+content)
	}
}

func (c *PlainChat) printHistory() {
	state := c.Engine.State()
	sorted := state.Sorted()
	width := GetTerminalWidth()
	for i, conv := range sorted {
		marker := "  "
		if conv.ID == state.ActiveID {
			marker = "* "
		}
		line := fmt.Sprintf("%s%2d. %-7s %s", marker, i+1, domain.NameOf(conv.Domain, "Chat"), conv.Preview())
		fmt.Fprintln(c.Out, util.TruncateWidth(line, width))
	}
	if len(sorted) == 0 {
		fmt.Fprintln(c.Out, DimStyle.Render("No chat history found."))
	}
}

func lastContent(conv model.Conversation) string {
	if m, ok := conv.LastMessage(); ok {
		return m.Content
	}
	return ""
}
