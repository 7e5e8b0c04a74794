// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session holds the chat state machine.
//
// Application state is the State value. Every Orchestrator transition takes
// a State and returns a new one; the input is never modified, so a caller
// can keep the previous value around (the TUI does, for rendering diffs).
//
// # Key Types
//
//   - State: conversation list, active id, phase and busy flag
//   - Orchestrator: pure transitions (select, new chat, change domain,
//     delete, send, fragment application)
//   - Consumer: drives one provider stream and reports ordered Updates
//   - Engine: a mutex-guarded driver that persists after every mutation,
//     used by the line-mode REPL and one-shot commands
//
// # Phases
//
//	NoActive --Bootstrap--> Idle --BeginSend--> Sending --Finish/Fail--> Idle
//
// Only one send is in flight at a time. Fragments are applied to the
// conversation captured when the send began, which need not be the active
// one by the time they arrive.
package session
