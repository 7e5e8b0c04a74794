// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// cli.go - Command-line parsing for domainchat.
package cli

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// out receives command output. Tests swap it for a buffer.
var out io.Writer = os.Stdout

// Command represents the CLI command to execute.
type Command int

const (
	CmdTUI Command = iota
	CmdPlain
	CmdAsk
	CmdHistory
	CmdDomains
	CmdConfig
	CmdVersion
	CmdHelp
)

// String returns the command name as typed.
func (c Command) String() string {
	switch c {
	case CmdTUI:
		return "tui"
	case CmdPlain:
		return "plain"
	case CmdAsk:
		return "ask"
	case CmdHistory:
		return "history"
	case CmdDomains:
		return "domains"
	case CmdConfig:
		return "config"
	case CmdVersion:
		return "version"
	case CmdHelp:
		return "help"
	default:
		return "unknown"
	}
}

// Args holds parsed CLI arguments.
type Args struct {
	// Global flags
	ConfigPath string
	Domain     string
	Model      string
	Provider   string
	Fresh      bool
	JSON       bool

	// Command-specific
	Subcommand string
	Query      string

	// Raw args after the command name
	Raw []string
}

const usageText = `domainchat - chat about cars, anime, manga and bikes

Usage:
  domainchat                       Start the TUI (default)
  domainchat plain                 Line-based chat in the terminal
  domainchat ask [--domain D] TEXT Ask one question and print the reply
  domainchat history list          List saved conversations
  domainchat history show N        Print conversation N
  domainchat history delete N      Delete conversation N
  domainchat history export N      Export conversation N
    --format md|json               Export format (default: md)
    --output FILE                  Write to FILE instead of stdout
  domainchat domains               List chat domains
  domainchat config init           Write the default config file
    --force                        Overwrite an existing file
  domainchat config show           Show the effective configuration
  domainchat version               Show version information
  domainchat help                  Show this help

Global flags:
  --config PATH      Config file (default: ~/.domainchat/config.toml)
  --domain D         Domain for new chats (cars, anime, manga, bikes)
  --model NAME       Model name (overrides config)
  --provider KIND    gemini, openai or ollama (overrides config)
  --fresh            Open a new chat instead of resuming the last one
  --json             JSON output for history, domains, config and version

N is the position shown by "history list", newest first, starting at 1.

Keys (TUI):
  enter send, tab/shift+tab switch domain, ctrl+n new chat,
  ctrl+h history, alt+1..4 quick replies, ctrl+c quit

Environment:
  GEMINI_API_KEY, OPENAI_API_KEY, DOMAINCHAT_API_KEY   API keys
  DOMAINCHAT_PROVIDER, DOMAINCHAT_MODEL, DOMAINCHAT_DOMAIN ...
  A .env file in the working directory is read as well.

Version: %s
`

// PrintUsage prints the usage/help text.
func PrintUsage() {
	fmt.Fprintf(out, usageText, Version)
}

// Parse parses os.Args.
func Parse() (Command, Args) {
	return ParseArgs(os.Args[1:])
}

// ParseArgs parses command-line arguments and returns the command and
// args. Unknown commands fall through to help.
func ParseArgs(argv []string) (Command, Args) {
	remaining, args := parseGlobalFlags(argv)

	if len(remaining) == 0 {
		return CmdTUI, args
	}

	cmd := strings.ToLower(remaining[0])
	remaining = remaining[1:]
	args.Raw = remaining
	if len(remaining) > 0 {
		args.Subcommand = strings.ToLower(remaining[0])
	}

	switch cmd {
	case "tui":
		return CmdTUI, args
	case "plain", "chat":
		return CmdPlain, args
	case "ask":
		args.Subcommand = ""
		args.Query = strings.TrimSpace(strings.Join(remaining, " "))
		return CmdAsk, args
	case "history", "h":
		return CmdHistory, args
	case "domains":
		return CmdDomains, args
	case "config":
		return CmdConfig, args
	case "version", "--version", "-V":
		return CmdVersion, args
	case "help", "--help", "-h":
		return CmdHelp, args
	default:
		return CmdHelp, args
	}
}

// parseGlobalFlags extracts global flags from args and returns remaining
// args. Global flags may appear anywhere on the line.
func parseGlobalFlags(argv []string) ([]string, Args) {
	var remaining []string
	var args Args

	value := func(i *int, name string) string {
		if *i+1 < len(argv) {
			*i++
			return argv[*i]
		}
		return ""
	}

	for i := 0; i < len(argv); i++ {
		arg := argv[i]
		name, val, hasVal := strings.Cut(arg, "=")

		switch name {
		case "--config":
			if !hasVal {
				val = value(&i, name)
			}
			args.ConfigPath = val
		case "--domain", "-d":
			if !hasVal {
				val = value(&i, name)
			}
			args.Domain = val
		case "--model", "-m":
			if !hasVal {
				val = value(&i, name)
			}
			args.Model = val
		case "--provider", "-p":
			if !hasVal {
				val = value(&i, name)
			}
			args.Provider = val
		case "--fresh":
			args.Fresh = !hasVal || val == "true"
		case "--json":
			args.JSON = !hasVal || val == "true"
		default:
			remaining = append(remaining, arg)
		}
	}
	return remaining, args
}

// =============================================================================
// VERSION AND HELP
// =============================================================================

// VersionInfo is the JSON form of the version command.
type VersionInfo struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

// HandleVersion prints version information.
func HandleVersion(args Args) error {
	info := VersionInfo{
		Version:   Version,
		GitCommit: GitCommit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
	if args.JSON {
		return NewJSONResponse("version", info).Print()
	}
	fmt.Fprintf(out, "domainchat version %s\n", info.Version)
	fmt.Fprintf(out, "  Git commit: %s\n", info.GitCommit)
	fmt.Fprintf(out, "  Build date: %s\n", info.BuildDate)
	fmt.Fprintf(out, "  Go:         %s (%s)\n", info.GoVersion, info.Platform)
	return nil
}

// HandleHelp prints the usage text.
func HandleHelp() {
	PrintUsage()
}
