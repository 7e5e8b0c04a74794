// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
//
// Conversations are plain values. Methods that change a conversation return
// a modified copy (WithMessage, WithLast), so a previous application state
// never observes later edits.
//
// # Key Types
//
//   - Conversation: id, domain, ordered messages and last-activity timestamp
//   - Message: role, content and the greeting flag
//   - Role: user or model
//
// # Usage
//
//	conv := model.NewConversation(model.NewConversationID(), domain.Cars, time.Now())
//	conv = conv.WithMessage(model.NewUserMessage("Best family SUVs for safety?"))
//	fmt.Println(conv.Preview())
package model
