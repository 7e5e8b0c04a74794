// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// history_cmd.go - Saved conversation commands.
//
// Command: history [subcommand]
// Aliases: h
//
// Subcommands:
//   list (default)     List conversations, newest first
//   show N             Print conversation N
//   delete N           Delete conversation N
//   export N           Export conversation N
//
// Flags:
//   --format md|json   Export format (default: md)
//   --output FILE      Write the export to FILE
//   --json             JSON output
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/jeranaias/domainchat/internal/domain"
	"github.com/jeranaias/domainchat/internal/model"
	"github.com/jeranaias/domainchat/internal/session"
	"github.com/jeranaias/domainchat/internal/storage"
	"github.com/jeranaias/domainchat/internal/util"
)

// HistoryEntry is the JSON form of a listed conversation.
type HistoryEntry struct {
	Index      int       `json:"index"`
	ID         string    `json:"id"`
	Domain     string    `json:"domain"`
	Preview    string    `json:"preview"`
	Messages   int       `json:"messages"`
	LastActive time.Time `json:"last_active"`
}

// HandleHistory dispatches the history subcommands.
func HandleHistory(args Args) error {
	app, err := OpenApp(args)
	if err != nil {
		return err
	}
	defer app.Close()
	return runHistory(context.Background(), app, args)
}

func runHistory(ctx context.Context, app *App, args Args) error {
	p := NewArgParser(args.Raw)

	switch p.Subcommand() {
	case "", "list", "ls":
		return historyList(ctx, app.Store, args.JSON)
	case "show":
		conv, err := historyPick(ctx, app.Store, p.Positional(1), "domainchat history show N")
		if err != nil {
			return err
		}
		if args.JSON {
			return NewJSONResponse("history show", conv).Print()
		}
		fmt.Fprint(out, storage.ExportMarkdown(conv))
		return nil
	case "delete", "rm":
		return historyDelete(ctx, app, p.Positional(1), args.JSON)
	case "export":
		conv, err := historyPick(ctx, app.Store, p.Positional(1), "domainchat history export N [--format md|json] [--output FILE]")
		if err != nil {
			return err
		}
		return historyExport(conv, p.FlagOrDefault("format", "md"), p.Flag("output"))
	default:
		return &UsageError{
			Message: "unknown history subcommand: " + p.Subcommand(),
			Usage:   "domainchat history [list|show|delete|export]",
		}
	}
}

// loadSorted returns the stored conversations, newest first. A missing
// snapshot is an empty history.
func loadSorted(ctx context.Context, store *storage.HistoryStore) ([]model.Conversation, error) {
	convs, err := store.Load(ctx)
	if err != nil && !errors.Is(err, storage.ErrSnapshotNotFound) {
		return nil, err
	}
	return session.State{Conversations: convs}.Sorted(), nil
}

func historyPick(ctx context.Context, store *storage.HistoryStore, arg, usage string) (model.Conversation, error) {
	if arg == "" {
		return model.Conversation{}, ErrMissingArgument("N", usage)
	}
	n, err := ParseIntWithValidation(arg, "N")
	if err != nil {
		return model.Conversation{}, err
	}
	sorted, err := loadSorted(ctx, store)
	if err != nil {
		return model.Conversation{}, err
	}
	if n < 1 || n > len(sorted) {
		return model.Conversation{}, &NotFoundError{Resource: "conversation", ID: strconv.Itoa(n)}
	}
	return sorted[n-1], nil
}

func historyList(ctx context.Context, store *storage.HistoryStore, jsonMode bool) error {
	sorted, err := loadSorted(ctx, store)
	if err != nil {
		return err
	}

	entries := make([]HistoryEntry, len(sorted))
	for i, c := range sorted {
		entries[i] = HistoryEntry{
			Index:      i + 1,
			ID:         c.ID,
			Domain:     string(c.Domain),
			Preview:    c.Preview(),
			Messages:   c.MessageCount(),
			LastActive: c.LastActive(),
		}
	}
	if jsonMode {
		return NewJSONResponse("history list", entries).Print()
	}

	if len(entries) == 0 {
		fmt.Fprintln(out, DimStyle.Render("No chat history found."))
		return nil
	}
	fmt.Fprintln(out, TitleStyle.Render("Chat History"))
	width := GetTerminalWidth()
	for _, e := range entries {
		name := util.PadWidth(domain.NameOf(domain.ID(e.Domain), "Chat"), 7)
		line := fmt.Sprintf("%3d. %s  %s  %s", e.Index, name,
			e.LastActive.Local().Format("2006-01-02 15:04"), e.Preview)
		fmt.Fprintln(out, util.TruncateWidth(line, width))
	}
	return nil
}

func historyDelete(ctx context.Context, app *App, arg string, jsonMode bool) error {
	conv, err := historyPick(ctx, app.Store, arg, "domainchat history delete N")
	if err != nil {
		return err
	}

	// The engine applies the same reselection rules as the TUI.
	engine := app.Engine(nil)
	_ = engine.Start(ctx, false)
	if err := engine.Delete(ctx, conv.ID); err != nil {
		return err
	}

	if jsonMode {
		return NewJSONResponse("history delete", map[string]string{"deleted": conv.ID}).Print()
	}
	fmt.Fprintln(out, SuccessStyle.Render("Deleted ")+conv.Preview())
	return nil
}

func historyExport(conv model.Conversation, format, output string) error {
	var data []byte
	switch format {
	case "md", "markdown":
		data = []byte(storage.ExportMarkdown(conv))
	case "json":
		b, err := storage.ExportJSON(conv)
		if err != nil {
			return err
		}
		data = append(b, '\n')
	default:
		return &UsageError{Message: fmt.Sprintf("unknown export format %q", format), Usage: "--format md|json"}
	}

	if output == "" {
		_, err := out.Write(data)
		return err
	}
	if err := util.AtomicWriteFile(output, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", output, err)
	}
	fmt.Fprintln(os.Stderr, SuccessStyle.Render("Exported to ")+output)
	return nil
}
