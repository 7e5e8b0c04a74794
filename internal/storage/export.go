// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jeranaias/domainchat/internal/domain"
	"github.com/jeranaias/domainchat/internal/model"
)

// =============================================================================
// EXPORT
// =============================================================================

// ExportMarkdown renders a conversation as a Markdown transcript.
// Greetings are included so the export reads like the chat did.
func ExportMarkdown(conv model.Conversation) string {
	var sb strings.Builder

	name := domain.NameOf(conv.Domain, "Chat")
	sb.WriteString("# " + name + " chat\n\n")
	sb.WriteString("- ID: `" + conv.ID + "`\n")
	sb.WriteString("- Last active: " + conv.LastActive().UTC().Format(time.RFC3339) + "\n")
	sb.WriteString(fmt.Sprintf("- Messages: %d\n", len(conv.Messages)))
	sb.WriteString("\n---\n")

	for _, m := range conv.Messages {
		sb.WriteString("\n**" + m.Role.DisplayName() + ":**\n\n")
		content := m.Content
		if content == "" {
			content = "_(no reply)_"
		}
		sb.WriteString(content + "\n")
	}
	return sb.String()
}

// ExportJSON renders a single conversation in the snapshot record format.
func ExportJSON(conv model.Conversation) ([]byte, error) {
	return json.MarshalIndent(conv, "", "  ")
}
