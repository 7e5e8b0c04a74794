// domainchat - A terminal chat client for cars, anime, manga and bikes.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/jeranaias/domainchat/internal/cli"
	"github.com/jeranaias/domainchat/internal/storage"
	"github.com/jeranaias/domainchat/internal/ui/chat"
	"github.com/jeranaias/domainchat/internal/ui/styles"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func init() {
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	cmd, args := cli.Parse()

	var err error
	switch cmd {
	case cli.CmdTUI:
		err = runTUI(args)
	case cli.CmdPlain:
		err = cli.HandleChatCommand(args)
	case cli.CmdAsk:
		err = cli.HandleAsk(args)
	case cli.CmdHistory:
		err = cli.HandleHistory(args)
	case cli.CmdDomains:
		err = cli.HandleDomains(args)
	case cli.CmdConfig:
		err = cli.HandleConfig(args)
	case cli.CmdVersion:
		err = cli.HandleVersion(args)
	default:
		cli.HandleHelp()
	}

	if err != nil {
		cli.DisplayError(cmd.String(), err, args.JSON)
		os.Exit(cli.GetExitCode(err))
	}
}

// runTUI starts the Bubble Tea chat screen.
func runTUI(args cli.Args) error {
	if !cli.IsTTY() {
		return &cli.UsageError{
			Message: "the chat screen needs a terminal",
			Usage:   "domainchat plain, or domainchat ask for piped input",
		}
	}

	app, err := cli.OpenApp(args)
	if err != nil {
		return err
	}
	defer app.Close()

	provider, err := app.Provider()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := app.Config
	m := chat.New(chat.Options{
		Orchestrator:   app.Orchestrator(),
		Store:          app.Store,
		Provider:       provider,
		Logger:         app.Logger,
		Theme:          styles.NewTheme(cfg.UI.Theme),
		Model:          cfg.Provider.Model,
		StartFresh:     cfg.Chat.StartFresh,
		RenderMarkdown: cfg.UI.RenderMarkdown,
		Context:        ctx,
	})

	opts := []tea.ProgramOption{tea.WithContext(ctx)}
	if cfg.UI.AltScreen {
		opts = append(opts, tea.WithAltScreen())
	}
	p := tea.NewProgram(m, opts...)
	chat.SetProgram(p)
	defer chat.SetProgram(nil)

	if fb, ok := app.Backend.(*storage.FileBackend); ok && cfg.Storage.Watch {
		w, err := storage.NewWatcher(app.Store, fb, chat.NotifySnapshotChanged, app.Logger)
		if err != nil {
			app.Logger.Warn("history watcher disabled", zap.Error(err))
		} else {
			go w.Run(ctx)
			defer w.Close()
		}
	}

	app.Logger.Info("tui started",
		zap.String("provider", provider.Name()),
		zap.String("model", cfg.Provider.Model),
		zap.String("domain", cfg.Chat.DefaultDomain))

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}
