// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// errors.go - Error types and exit codes for CLI commands.
//
// Handlers always return errors and never exit; main prints the error and
// exits with GetExitCode.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/jeranaias/domainchat/internal/cloud"
	"github.com/jeranaias/domainchat/internal/config"
	"github.com/jeranaias/domainchat/internal/ollama"
)

// =============================================================================
// EXIT CODES
// =============================================================================

const (
	ExitSuccess       = 0
	ExitGeneralError  = 1
	ExitUsageError    = 2
	ExitConfigError   = 3
	ExitAuthError     = 4
	ExitNetworkError  = 5
	ExitNotFoundError = 7
	ExitTimeoutError  = 8
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// UsageError reports invalid arguments.
type UsageError struct {
	Message string
	Usage   string
}

func (e *UsageError) Error() string {
	if e.Usage != "" {
		return e.Message + "\nUsage: " + e.Usage
	}
	return e.Message
}

// NotFoundError reports a missing resource.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ErrMissingArgument builds a UsageError for a missing argument.
func ErrMissingArgument(argName, usage string) error {
	return &UsageError{Message: "missing required argument: " + argName, Usage: usage}
}

// =============================================================================
// EXIT CODE MAPPING
// =============================================================================

// GetExitCode maps an error to a process exit code.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var usageErr *UsageError
	if errors.As(err, &usageErr) {
		return ExitUsageError
	}
	var notFound *NotFoundError
	if errors.As(err, &notFound) {
		return ExitNotFoundError
	}
	var cfgErrs config.ValidateErrors
	if errors.As(err, &cfgErrs) || errors.Is(err, cloud.ErrNotConfigured) {
		return ExitConfigError
	}

	switch {
	case errors.Is(err, cloud.ErrAuthFailed):
		return ExitAuthError
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, ollama.ErrTimeout):
		return ExitTimeoutError
	case errors.Is(err, ollama.ErrNotRunning):
		return ExitNetworkError
	case errors.Is(err, cloud.ErrModelNotFound), errors.Is(err, ollama.ErrModelNotFound):
		return ExitNotFoundError
	}
	return ExitGeneralError
}

// DisplayError prints err to stderr, or a JSON error response to stdout in
// JSON mode.
func DisplayError(command string, err error, jsonMode bool) {
	if jsonMode {
		_ = NewJSONErrorResponse(command, err).Print()
		return
	}
	fmt.Fprintln(os.Stderr, ErrorStyle.Render("Error: ")+err.Error())
}
