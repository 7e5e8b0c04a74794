// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cloud provides the hosted model providers.
//
// # Key Types
//
//   - GeminiClient: Gemini streamGenerateContent over Server-Sent Events
//   - OpenAIClient: any OpenAI-compatible chat completions endpoint
//   - APIError: non-2xx answers from either service
//
// Both clients implement llm.Provider.
//
// # Usage
//
//	client := cloud.NewGeminiClient(apiKey).WithModel("gemini-2.5-flash")
//	err := client.StreamChat(ctx, req, func(fragment string) error {
//	    fmt.Print(fragment)
//	    return nil
//	})
//
// # Security
//
// API keys are never logged. Use KeyFingerprint to identify a key in
// diagnostics.
package cloud
