// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/jeranaias/domainchat/internal/domain"
	"github.com/jeranaias/domainchat/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete domainchat configuration.
type Config struct {
	Provider ProviderConfig `toml:"provider"`
	Storage  StorageConfig  `toml:"storage"`
	Logging  LoggingConfig  `toml:"logging"`
	UI       UIConfig       `toml:"ui"`
	Chat     ChatConfig     `toml:"chat"`
}

// ProviderConfig selects and tunes the model service.
type ProviderConfig struct {
	// Kind is "gemini", "openai" or "ollama".
	Kind string `toml:"kind" validate:"oneof=gemini openai ollama"`

	// Model defaults per kind: gemini-2.5-flash, gpt-4o-mini, llama3.2.
	Model string `toml:"model" validate:"required"`

	// APIKey is usually supplied through the environment instead.
	APIKey string `toml:"api_key"`

	// BaseURL overrides the service endpoint.
	BaseURL string `toml:"base_url" validate:"omitempty,url"`

	// RequestsPerMinute throttles sends client-side; 0 disables.
	RequestsPerMinute int `toml:"requests_per_minute" validate:"gte=0,lte=10000"`
	Burst             int `toml:"burst" validate:"gte=0,lte=100"`

	// TimeoutSecs bounds one whole reply; 0 leaves it to the service.
	TimeoutSecs int `toml:"timeout_secs" validate:"gte=0,lte=3600"`
}

// Timeout returns TimeoutSecs as a duration.
func (p ProviderConfig) Timeout() time.Duration {
	return time.Duration(p.TimeoutSecs) * time.Second
}

// StorageConfig selects where history is kept.
type StorageConfig struct {
	// Backend is "file" (a JSON snapshot in a directory) or "sqlite".
	Backend string `toml:"backend" validate:"oneof=file sqlite"`

	// Path is the snapshot directory for "file" and the database file for
	// "sqlite".
	Path string `toml:"path" validate:"required"`

	// Watch reloads history when another process rewrites the snapshot.
	// Only the file backend supports it.
	Watch bool `toml:"watch"`
}

// LoggingConfig controls the log file.
type LoggingConfig struct {
	Path  string `toml:"path" validate:"required"`
	Level string `toml:"level" validate:"oneof=debug info warn error"`
}

// UIConfig controls the terminal UI.
type UIConfig struct {
	Theme          string `toml:"theme" validate:"oneof=auto dark light"`
	RenderMarkdown bool   `toml:"render_markdown"`
	AltScreen      bool   `toml:"alt_screen"`
}

// ChatConfig controls conversation defaults.
type ChatConfig struct {
	DefaultDomain string `toml:"default_domain" validate:"domain"`

	// StartFresh opens a new default-domain chat on startup instead of
	// resuming the most recent one.
	StartFresh bool `toml:"start_fresh"`
}

// =============================================================================
// DEFAULTS
// =============================================================================

// Default models per provider kind.
const (
	DefaultGeminiModel = "gemini-2.5-flash"
	DefaultOpenAIModel = "gpt-4o-mini"
	DefaultOllamaModel = "llama3.2"
)

// DefaultModelFor returns the default model of a provider kind.
func DefaultModelFor(kind string) string {
	switch kind {
	case "openai":
		return DefaultOpenAIModel
	case "ollama":
		return DefaultOllamaModel
	default:
		return DefaultGeminiModel
	}
}

// Default returns the built-in configuration.
func Default() *Config {
	dir, err := ConfigDir()
	if err != nil {
		dir = ".domainchat"
	}
	return &Config{
		Provider: ProviderConfig{
			Kind:        "gemini",
			Model:       DefaultGeminiModel,
			TimeoutSecs: 120,
		},
		Storage: StorageConfig{
			Backend: "file",
			Path:    filepath.Join(dir, "history"),
			Watch:   true,
		},
		Logging: LoggingConfig{
			Path:  filepath.Join(dir, "logs", "domainchat.log"),
			Level: "info",
		},
		UI: UIConfig{
			Theme:          "auto",
			RenderMarkdown: true,
			AltScreen:      true,
		},
		Chat: ChatConfig{
			DefaultDomain: string(domain.Default),
		},
	}
}

// SetDefaults fills empty fields.
func (c *Config) SetDefaults() {
	d := Default()

	if c.Provider.Kind == "" {
		c.Provider.Kind = d.Provider.Kind
	}
	c.Provider.Kind = strings.ToLower(c.Provider.Kind)
	if c.Provider.Model == "" {
		c.Provider.Model = DefaultModelFor(c.Provider.Kind)
	}

	if c.Storage.Backend == "" {
		c.Storage.Backend = d.Storage.Backend
	}
	if c.Storage.Path == "" {
		c.Storage.Path = d.Storage.Path
		if c.Storage.Backend == "sqlite" {
			c.Storage.Path = filepath.Join(filepath.Dir(d.Storage.Path), "history.db")
		}
	}
	c.Storage.Path = ExpandPath(c.Storage.Path)

	if c.Logging.Path == "" {
		c.Logging.Path = d.Logging.Path
	}
	c.Logging.Path = ExpandPath(c.Logging.Path)
	if c.Logging.Level == "" {
		c.Logging.Level = d.Logging.Level
	}
	c.Logging.Level = strings.ToLower(c.Logging.Level)

	if c.UI.Theme == "" {
		c.UI.Theme = d.UI.Theme
	}
	if c.Chat.DefaultDomain == "" {
		c.Chat.DefaultDomain = d.Chat.DefaultDomain
	}
	if id, err := domain.Parse(c.Chat.DefaultDomain); err == nil {
		c.Chat.DefaultDomain = string(id)
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the domainchat configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".domainchat"), nil
}

// ConfigPathTOML returns the path to the TOML config file.
func ConfigPathTOML() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// ExpandPath replaces a leading "~" with the home directory.
func ExpandPath(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load reads ~/.domainchat/config.toml when it exists and falls back to
// defaults otherwise. Environment overrides are applied last.
func Load() (*Config, error) {
	path, err := ConfigPathTOML()
	if err != nil {
		return finish(Default())
	}
	if _, statErr := os.Stat(path); errors.Is(statErr, fs.ErrNotExist) {
		return finish(Default())
	}
	return LoadFromPath(path)
}

// LoadFromPath loads configuration from a specific TOML file.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()
	if err := LoadTOML(cfg, path); err != nil {
		return nil, fmt.Errorf("failed to load TOML config from %s: %w", path, err)
	}
	return finish(cfg)
}

// LoadTOML decodes a TOML file over cfg.
func LoadTOML(cfg *Config, path string) error {
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	return nil
}

func finish(cfg *Config) (*Config, error) {
	if err := LoadDotEnv(".env"); err != nil {
		return nil, err
	}
	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadDotEnv exports the variables of a .env file that are not already
// set. A missing file is not an error.
func LoadDotEnv(path string) error {
	err := godotenv.Load(path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("failed to load %s: %w", path, err)
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// SaveTOML writes cfg to path with a comment header.
// SECURITY: The file is written with 0600 permissions since it may hold an
// API key.
func SaveTOML(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	var buf bytes.Buffer
	fmt.Fprintln(&buf, "# domainchat configuration file")
	fmt.Fprintln(&buf, "#")
	fmt.Fprintln(&buf, "# API keys are best left out of this file: set GEMINI_API_KEY,")
	fmt.Fprintln(&buf, "# OPENAI_API_KEY or DOMAINCHAT_API_KEY in the environment or a .env file.")
	fmt.Fprintln(&buf, "")

	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFile(path, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	msgs := make([]string, 0, len(e))
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("toml"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		_ = v.RegisterValidation("domain", func(fl validator.FieldLevel) bool {
			return domain.Valid(domain.ID(fl.Field().String()))
		})
		validate = v
	})
	return validate
}

// Validate checks the configuration and returns ValidateErrors listing
// every problem.
func (c *Config) Validate() error {
	err := getValidator().Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	errs := make(ValidateErrors, 0, len(verrs))
	for _, fe := range verrs {
		errs = append(errs, ValidationError{
			Field:   strings.TrimPrefix(fe.Namespace(), "Config."),
			Message: describe(fe),
		})
	}
	return errs
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "oneof":
		return fmt.Sprintf("must be one of [%s], got %q", fe.Param(), fe.Value())
	case "required":
		return "is required"
	case "url":
		return fmt.Sprintf("must be a URL, got %q", fe.Value())
	case "gte":
		return "must be at least " + fe.Param()
	case "lte":
		return "must be at most " + fe.Param()
	case "domain":
		return fmt.Sprintf("must be one of [%s], got %q", strings.Join(domain.IDs(), " "), fe.Value())
	default:
		return "failed " + fe.Tag() + " check"
	}
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides:
//   - DOMAINCHAT_PROVIDER: overrides provider.kind
//   - DOMAINCHAT_MODEL: overrides provider.model
//   - DOMAINCHAT_API_KEY: overrides provider.api_key
//   - GEMINI_API_KEY, API_KEY, OPENAI_API_KEY: fill provider.api_key when it
//     is still empty, by provider kind
//   - DOMAINCHAT_BASE_URL: overrides provider.base_url
//   - DOMAINCHAT_STORAGE: overrides storage.backend
//   - DOMAINCHAT_HISTORY_PATH: overrides storage.path
//   - DOMAINCHAT_LOG_LEVEL: overrides logging.level
//   - DOMAINCHAT_DOMAIN: overrides chat.default_domain
func (c *Config) ApplyEnvOverrides() {
	if kind := os.Getenv("DOMAINCHAT_PROVIDER"); kind != "" {
		if !strings.EqualFold(kind, c.Provider.Kind) {
			// The file's model belongs to the old provider.
			c.Provider.Model = ""
		}
		c.Provider.Kind = strings.ToLower(kind)
	}
	if m := os.Getenv("DOMAINCHAT_MODEL"); m != "" {
		c.Provider.Model = m
	}

	if key := os.Getenv("DOMAINCHAT_API_KEY"); key != "" {
		c.Provider.APIKey = key
	}
	if c.Provider.APIKey == "" {
		for _, name := range apiKeyVars(c.Provider.Kind) {
			if key := os.Getenv(name); key != "" {
				c.Provider.APIKey = key
				break
			}
		}
	}

	if u := os.Getenv("DOMAINCHAT_BASE_URL"); u != "" {
		c.Provider.BaseURL = u
	}
	if b := os.Getenv("DOMAINCHAT_STORAGE"); b != "" {
		c.Storage.Backend = strings.ToLower(b)
	}
	if p := os.Getenv("DOMAINCHAT_HISTORY_PATH"); p != "" {
		c.Storage.Path = p
	}
	if lvl := os.Getenv("DOMAINCHAT_LOG_LEVEL"); lvl != "" {
		c.Logging.Level = lvl
	}
	if d := os.Getenv("DOMAINCHAT_DOMAIN"); d != "" {
		c.Chat.DefaultDomain = d
	}
}

// SwitchProvider changes the provider kind, as the --provider flag does.
// The model falls back to the kind's default and the key is re-read from
// the kind's variables unless DOMAINCHAT_API_KEY pins it.
func (c *Config) SwitchProvider(kind string) {
	kind = strings.ToLower(strings.TrimSpace(kind))
	if kind == "" || kind == c.Provider.Kind {
		return
	}
	c.Provider.Kind = kind
	c.Provider.Model = DefaultModelFor(kind)
	if os.Getenv("DOMAINCHAT_API_KEY") != "" {
		return
	}
	c.Provider.APIKey = ""
	for _, name := range apiKeyVars(kind) {
		if key := os.Getenv(name); key != "" {
			c.Provider.APIKey = key
			break
		}
	}
}

// apiKeyVars lists the provider-specific key variables in priority order.
func apiKeyVars(kind string) []string {
	switch strings.ToLower(kind) {
	case "openai":
		return []string{"OPENAI_API_KEY"}
	case "ollama":
		return nil
	default:
		return []string{"GEMINI_API_KEY", "API_KEY"}
	}
}

// =============================================================================
// DISPLAY
// =============================================================================

// Clone returns a copy of the config.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// String renders the config as TOML with the API key redacted.
func (c *Config) String() string {
	safe := c.Clone()
	if safe.Provider.APIKey != "" {
		safe.Provider.APIKey = "[REDACTED]"
	}
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(safe); err != nil {
		return fmt.Sprintf("<config: %v>", err)
	}
	return buf.String()
}

// =============================================================================
// SINGLETON PATTERN (THREAD-SAFE)
// =============================================================================

var (
	globalConfig     *Config
	globalConfigOnce sync.Once
	globalConfigMu   sync.RWMutex
)

// Global returns the global configuration instance.
// Loads configuration on first access and falls back to defaults when
// loading fails. Thread-safe.
func Global() *Config {
	globalConfigOnce.Do(func() {
		cfg, err := Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
			cfg = Default()
		}
		globalConfigMu.Lock()
		if globalConfig == nil {
			globalConfig = cfg
		}
		globalConfigMu.Unlock()
	})

	globalConfigMu.RLock()
	defer globalConfigMu.RUnlock()
	return globalConfig
}

// ReloadGlobal reloads the global configuration from disk. Thread-safe.
func ReloadGlobal() error {
	cfg, err := Load()
	if err != nil {
		return err
	}
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = cfg
	return nil
}

// SetGlobal sets the global configuration instance. Thread-safe.
func SetGlobal(cfg *Config) {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = cfg
}

// ResetGlobalForTesting resets the global config state for testing.
func ResetGlobalForTesting() {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = nil
	globalConfigOnce = sync.Once{}
}
