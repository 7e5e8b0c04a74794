// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// config_cmd.go - Configuration commands.
//
// Command: config [subcommand]
//
// Subcommands:
//   show (default)   Show the effective configuration
//   init [--force]   Write the default config file
//   path             Print the config file path
package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/jeranaias/domainchat/internal/cloud"
	"github.com/jeranaias/domainchat/internal/config"
)

// HandleConfig dispatches the config subcommands.
func HandleConfig(args Args) error {
	p := NewArgParser(args.Raw, "force")

	switch p.Subcommand() {
	case "", "show":
		return configShow(args)
	case "init":
		return configInit(args, p.BoolFlag("force"))
	case "path":
		path, err := configPath(args)
		if err != nil {
			return err
		}
		if args.JSON {
			return NewJSONResponse("config path", map[string]string{"path": path}).Print()
		}
		fmt.Fprintln(out, path)
		return nil
	default:
		return &UsageError{
			Message: "unknown config subcommand: " + p.Subcommand(),
			Usage:   "domainchat config [show|init|path]",
		}
	}
}

func configPath(args Args) (string, error) {
	if args.ConfigPath != "" {
		return config.ExpandPath(args.ConfigPath), nil
	}
	return config.ConfigPathTOML()
}

func configShow(args Args) error {
	cfg, err := LoadConfig(args)
	if err != nil {
		return err
	}

	if args.JSON {
		safe := cfg.Clone()
		safe.Provider.APIKey = cloud.MaskKey(cfg.Provider.APIKey)
		return NewJSONResponse("config show", safe).Print()
	}

	path, _ := configPath(args)
	fmt.Fprintln(out, TitleStyle.Render("Configuration"))
	fmt.Fprintln(out, RenderLabel("File", path))
	fmt.Fprintln(out, RenderLabel("Provider", cfg.Provider.Kind))
	fmt.Fprintln(out, RenderLabel("Model", cfg.Provider.Model))
	fmt.Fprintln(out, RenderLabel("API key", cloud.MaskKey(cfg.Provider.APIKey)))
	fmt.Fprintln(out, RenderLabel("History", cfg.Storage.Backend+" "+cfg.Storage.Path))
	fmt.Fprintln(out, RenderLabel("Log", cfg.Logging.Path))
	fmt.Fprintln(out, RenderSeparator(GetTerminalWidth()))
	fmt.Fprint(out, cfg.String())
	return nil
}

func configInit(args Args, force bool) error {
	path, err := configPath(args)
	if err != nil {
		return err
	}
	if _, statErr := os.Stat(path); statErr == nil && !force {
		return &UsageError{
			Message: "config file already exists: " + path,
			Usage:   "domainchat config init --force",
		}
	} else if statErr != nil && !errors.Is(statErr, fs.ErrNotExist) {
		return statErr
	}

	cfg := config.Default()
	if err := config.SaveTOML(cfg, path); err != nil {
		return err
	}
	if args.JSON {
		return NewJSONResponse("config init", map[string]string{"path": path}).Print()
	}
	fmt.Fprintln(out, SuccessStyle.Render("Wrote ")+path)
	return nil
}
