// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// app.go - Wiring of config, logging, storage and providers.
package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/jeranaias/domainchat/internal/cloud"
	"github.com/jeranaias/domainchat/internal/config"
	"github.com/jeranaias/domainchat/internal/domain"
	"github.com/jeranaias/domainchat/internal/llm"
	"github.com/jeranaias/domainchat/internal/logging"
	"github.com/jeranaias/domainchat/internal/ollama"
	"github.com/jeranaias/domainchat/internal/session"
	"github.com/jeranaias/domainchat/internal/storage"
)

// =============================================================================
// CONFIG
// =============================================================================

// LoadConfig loads the configuration and applies the global flags on top.
func LoadConfig(args Args) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if args.ConfigPath != "" {
		cfg, err = config.LoadFromPath(config.ExpandPath(args.ConfigPath))
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	if args.Provider != "" {
		cfg.SwitchProvider(args.Provider)
	}
	if args.Model != "" {
		cfg.Provider.Model = args.Model
	}
	if args.Domain != "" {
		id, err := domain.Parse(args.Domain)
		if err != nil {
			return nil, &UsageError{Message: err.Error()}
		}
		cfg.Chat.DefaultDomain = string(id)
	}
	if args.Fresh {
		cfg.Chat.StartFresh = true
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	config.SetGlobal(cfg)
	return cfg, nil
}

// =============================================================================
// FACTORIES
// =============================================================================

// OpenBackend opens the storage backend selected by cfg.
func OpenBackend(cfg config.StorageConfig) (storage.Backend, error) {
	switch cfg.Backend {
	case "sqlite":
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create history directory: %w", err)
		}
		b, err := storage.OpenSQLite(cfg.Path)
		if err != nil {
			return nil, err
		}
		return b, nil
	default:
		b, err := storage.NewFileBackend(cfg.Path)
		if err != nil {
			return nil, err
		}
		return b, nil
	}
}

// NewProvider builds the model service client selected by cfg, wrapped
// with the configured throttle and timeout.
func NewProvider(cfg config.ProviderConfig) (llm.Provider, error) {
	var p llm.Provider
	switch cfg.Kind {
	case "gemini":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("gemini: %w (set GEMINI_API_KEY)", cloud.ErrNotConfigured)
		}
		c := cloud.NewGeminiClient(cfg.APIKey).WithModel(cfg.Model)
		if cfg.BaseURL != "" {
			c = c.WithBaseURL(cfg.BaseURL)
		}
		p = c
	case "openai":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("openai: %w (set OPENAI_API_KEY)", cloud.ErrNotConfigured)
		}
		p = cloud.NewOpenAIClient(cfg.APIKey, cfg.BaseURL, cfg.Model)
	case "ollama":
		p = ollama.NewClientWithConfig(&ollama.ClientConfig{
			BaseURL:      cfg.BaseURL,
			Timeout:      cfg.Timeout(),
			DefaultModel: cfg.Model,
		})
	default:
		return nil, &UsageError{Message: fmt.Sprintf("unknown provider %q", cfg.Kind)}
	}

	p = llm.Throttled(p, llm.PerMinute(cfg.RequestsPerMinute, cfg.Burst))
	return llm.WithTimeout(p, cfg.Timeout()), nil
}

// =============================================================================
// APP
// =============================================================================

// App bundles what every command needs. The provider is built on demand so
// history commands work without an API key.
type App struct {
	Config  *config.Config
	Logger  *zap.Logger
	Backend storage.Backend
	Store   *storage.HistoryStore

	closeLog func() error
}

// OpenApp loads config, starts logging and opens storage.
func OpenApp(args Args) (*App, error) {
	cfg, err := LoadConfig(args)
	if err != nil {
		return nil, err
	}

	opts := logging.DefaultOptions(cfg.Logging.Path)
	opts.Level = cfg.Logging.Level
	logger, closeLog, err := logging.New(opts)
	if err != nil {
		return nil, err
	}

	backend, err := OpenBackend(cfg.Storage)
	if err != nil {
		_ = closeLog()
		return nil, fmt.Errorf("failed to open history: %w", err)
	}

	return &App{
		Config:   cfg,
		Logger:   logger,
		Backend:  backend,
		Store:    storage.NewHistoryStore(backend, logger),
		closeLog: closeLog,
	}, nil
}

// Provider builds the configured model service client.
func (a *App) Provider() (llm.Provider, error) {
	return NewProvider(a.Config.Provider)
}

// Orchestrator returns an orchestrator for the configured default domain.
func (a *App) Orchestrator() *session.Orchestrator {
	return session.NewOrchestrator(domain.ID(a.Config.Chat.DefaultDomain))
}

// Engine builds a headless engine around provider.
func (a *App) Engine(provider llm.Provider) *session.Engine {
	e := session.NewEngine(a.Orchestrator(), a.Store, provider, a.Logger)
	e.SetModel(a.Config.Provider.Model)
	return e
}

// Close releases storage and flushes the log.
func (a *App) Close() error {
	err := a.Backend.Close()
	if a.closeLog != nil {
		if cerr := a.closeLog(); err == nil {
			err = cerr
		}
	}
	return err
}
