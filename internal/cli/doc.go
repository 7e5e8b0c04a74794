// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the non-TUI commands of domainchat.
//
// # Commands
//
//   - plain: line-editing REPL over the same conversation engine as the TUI
//   - ask: one-shot question, reading stdin when it is piped
//   - history: list, show, delete and export saved conversations
//   - domains: list the chat domains and their quick replies
//   - config: write the default file or show the effective settings
//   - version, help
//
// # Usage
//
//	cmd, args := cli.Parse()
//	switch cmd {
//	case cli.CmdAsk:
//	    err = cli.HandleAsk(args)
//	}
//
// Every handler returns an error; main maps it to an exit code with
// GetExitCode.
package cli
