// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ollama provides the HTTP client for a local Ollama server.
//
// The client streams chat completions from /api/chat, which answers with
// newline-delimited JSON objects, and implements llm.Provider so a local
// model can stand in for the hosted ones.
//
// # Usage
//
//	client := ollama.NewClientWithConfig(&ollama.ClientConfig{DefaultModel: "llama3.2"})
//	err := client.StreamChat(ctx, llm.Request{Utterance: "Hello"}, func(s string) error {
//	    fmt.Print(s)
//	    return nil
//	})
package ollama
