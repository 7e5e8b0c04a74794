// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cloud

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/jeranaias/domainchat/internal/llm"
	"github.com/jeranaias/domainchat/internal/model"
)

// Configuration constants for the Gemini API.
const (
	// DefaultGeminiURL is the base URL for the Generative Language API.
	DefaultGeminiURL = "https://generativelanguage.googleapis.com"

	// DefaultGeminiModel is used when neither the client nor the request
	// names a model.
	DefaultGeminiModel = "gemini-2.5-flash"

	// MaxErrorBodySize bounds how much of an error response is read.
	MaxErrorBodySize = 64 * 1024
)

// =============================================================================
// WIRE TYPES
// =============================================================================

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

// GeminiRequest is the streamGenerateContent request body.
type GeminiRequest struct {
	Contents          []geminiContent `json:"contents"`
	SystemInstruction *geminiContent  `json:"systemInstruction,omitempty"`
}

// geminiChunk is one SSE payload.
type geminiChunk struct {
	Candidates []struct {
		Content      geminiContent `json:"content"`
		FinishReason string        `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// text concatenates the text parts of the first candidate.
func (c *geminiChunk) text() string {
	if len(c.Candidates) == 0 {
		return ""
	}
	var sb strings.Builder
	for _, p := range c.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	return sb.String()
}

// BuildGeminiRequest converts a chat request to the Gemini wire format.
// The utterance is the final user turn.
func BuildGeminiRequest(req llm.Request) GeminiRequest {
	contents := make([]geminiContent, 0, len(req.History)+1)
	for _, t := range req.History {
		role := "user"
		if t.Role == model.RoleModel {
			role = "model"
		}
		contents = append(contents, geminiContent{Role: role, Parts: []geminiPart{{Text: t.Content}}})
	}
	contents = append(contents, geminiContent{Role: "user", Parts: []geminiPart{{Text: req.Utterance}}})

	out := GeminiRequest{Contents: contents}
	if req.SystemInstruction != "" {
		out.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: req.SystemInstruction}}}
	}
	return out
}

// =============================================================================
// CLIENT
// =============================================================================

// GeminiClient streams chat completions from the Gemini API.
type GeminiClient struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
}

var _ llm.Provider = (*GeminiClient)(nil)

// NewGeminiClient creates a client with the default endpoint and model.
func NewGeminiClient(apiKey string) *GeminiClient {
	return &GeminiClient{
		apiKey:  apiKey,
		baseURL: DefaultGeminiURL,
		model:   DefaultGeminiModel,
		// No timeout for streaming; controlled via context.
		httpClient: &http.Client{},
	}
}

// WithBaseURL overrides the API endpoint.
func (c *GeminiClient) WithBaseURL(u string) *GeminiClient {
	if u != "" {
		c.baseURL = strings.TrimRight(u, "/")
	}
	return c
}

// WithModel sets the default model.
func (c *GeminiClient) WithModel(m string) *GeminiClient {
	if m != "" {
		c.model = m
	}
	return c
}

// WithHTTPClient replaces the HTTP client.
func (c *GeminiClient) WithHTTPClient(hc *http.Client) *GeminiClient {
	if hc != nil {
		c.httpClient = hc
	}
	return c
}

// Name implements llm.Provider.
func (c *GeminiClient) Name() string { return "gemini" }

// Model returns the default model.
func (c *GeminiClient) Model() string { return c.model }

// IsConfigured reports whether an API key is set.
func (c *GeminiClient) IsConfigured() bool { return c.apiKey != "" }

// StreamChat implements llm.Provider.
func (c *GeminiClient) StreamChat(ctx context.Context, req llm.Request, onFragment llm.FragmentFunc) error {
	if !c.IsConfigured() {
		return ErrNotConfigured
	}

	modelName := req.Model
	if modelName == "" {
		modelName = c.model
	}

	body, err := json.Marshal(BuildGeminiRequest(req))
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:streamGenerateContent?alt=sse",
		c.baseURL, url.PathEscape(modelName))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")
	httpReq.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, MaxErrorBodySize))
		return newAPIError(c.Name(), resp.StatusCode, data)
	}

	return c.processStream(ctx, resp.Body, onFragment)
}

// processStream reads SSE events until the body ends.
func (c *GeminiClient) processStream(ctx context.Context, body io.Reader, onFragment llm.FragmentFunc) error {
	reader := NewSSEReader(body)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		_, data, err := reader.ReadEvent()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read stream: %w", err)
		}

		if len(bytes.TrimSpace(data)) == 0 {
			continue
		}

		var chunk geminiChunk
		if err := json.Unmarshal(data, &chunk); err != nil {
			return fmt.Errorf("%s: malformed stream chunk: %w", c.Name(), err)
		}

		if chunk.Error != nil {
			return &APIError{Provider: c.Name(), StatusCode: chunk.Error.Code, Message: chunk.Error.Message}
		}
		if chunk.PromptFeedback != nil && chunk.PromptFeedback.BlockReason != "" {
			return fmt.Errorf("%w: %s", ErrBlocked, chunk.PromptFeedback.BlockReason)
		}

		if text := chunk.text(); text != "" {
			if err := onFragment(text); err != nil {
				return err
			}
		}
	}
}
