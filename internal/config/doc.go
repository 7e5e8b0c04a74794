// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for
// domainchat.
//
// # Key Types
//
//   - Config: main configuration structure
//   - ProviderConfig: which model service to call and how
//   - StorageConfig: where chat history is kept
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (DOMAINCHAT_*, GEMINI_API_KEY, API_KEY,
//     OPENAI_API_KEY), including those set by a .env file in the working
//     directory
//   - ~/.domainchat/config.toml, or the file given with --config
//   - Built-in defaults
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Provider.Model)
package config
