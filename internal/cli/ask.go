// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// ask.go - Single question command.
//
// Command: ask [--domain D] [question]
//
// The question is taken from the arguments, from piped stdin, or both (the
// piped text is appended). The exchange is saved as a new conversation.
//
// Examples:
//   domainchat ask "Best first motorcycle?" --domain bikes
//   echo "Recommend a mecha anime" | domainchat ask --json
package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/jeranaias/domainchat/internal/domain"
)

// AskResult is the JSON form of the ask command.
type AskResult struct {
	ConversationID string `json:"conversation_id"`
	Domain         string `json:"domain"`
	Question       string `json:"question"`
	Reply          string `json:"reply"`
}

// HandleAsk sends one question and prints the reply.
func HandleAsk(args Args) error {
	question, err := askQuestion(args.Query)
	if err != nil {
		return err
	}

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
	_ = engine.Start(ctx, false)

	d := domain.ID(app.Config.Chat.DefaultDomain)
	if err := engine.NewChat(ctx, d); err != nil {
		return err
	}
	active, _ := engine.State().Active()

	// Stream straight to the terminal unless the reply is rendered as a
	// whole afterwards.
	render := !args.JSON && IsStdoutTTY() && app.Config.UI.RenderMarkdown
	var onFragment func(string)
	if !args.JSON && !render {
		onFragment = func(s string) { fmt.Fprint(out, s) }
	}

	reply, sendErr := engine.Send(ctx, question, onFragment)

	if args.JSON {
		if sendErr != nil {
			return sendErr
		}
		return NewJSONResponse("ask", AskResult{
			ConversationID: active.ID,
			Domain:         string(active.Domain),
			Question:       question,
			Reply:          reply,
		}).Print()
	}

	if sendErr != nil {
		if onFragment != nil {
			fmt.Fprintln(out)
		}
		return sendErr
	}
	if render {
		fmt.Fprint(out, renderMarkdown(reply, GetTerminalWidth()))
		return nil
	}
	fmt.Fprintln(out)
	return nil
}

// askQuestion combines the argument text with piped stdin.
func askQuestion(query string) (string, error) {
	piped, err := readPiped(os.Stdin, IsTTY())
	if err != nil {
		return "", err
	}
	parts := make([]string, 0, 2)
	for _, p := range []string{query, piped} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return "", ErrMissingArgument("question", `domainchat ask "your question"`)
	}
	return strings.Join(parts, "\n\n"), nil
}

// renderMarkdown renders text with glamour, falling back to the raw text.
func renderMarkdown(text string, width int) string {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(max(20, width-4)),
	)
	if err != nil {
		return text + "\n"
	}
	rendered, err := r.Render(text)
	if err != nil {
		return text + "\n"
	}
	return rendered
}
