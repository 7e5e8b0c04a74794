// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import "errors"

// Sentinel errors returned by transitions.
var (
	// ErrBusy is returned when a send is attempted while another is in flight.
	ErrBusy = errors.New("a reply is still streaming")

	// ErrEmptyMessage is returned for blank input.
	ErrEmptyMessage = errors.New("message is empty")

	// ErrNoActive is returned when no conversation is selected.
	ErrNoActive = errors.New("no active conversation")

	// ErrNotIdle is returned by transitions that are only valid while idle.
	ErrNotIdle = errors.New("not idle")

	// ErrUnknownConversation is returned for ids not in the store.
	ErrUnknownConversation = errors.New("unknown conversation")

	// ErrUnknownDomain is returned for unrecognized domain ids.
	ErrUnknownDomain = errors.New("unknown domain")
)
