// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cloud

import (
	"context"
	"errors"
	"fmt"
	"io"

	openaiapi "github.com/sashabaranov/go-openai"

	"github.com/jeranaias/domainchat/internal/llm"
	"github.com/jeranaias/domainchat/internal/model"
)

// DefaultOpenAIModel is used when neither the client nor the request names
// a model.
const DefaultOpenAIModel = openaiapi.GPT4oMini

// OpenAIClient streams chat completions from an OpenAI-compatible endpoint.
type OpenAIClient struct {
	apiKey string
	model  string
	client *openaiapi.Client
}

var _ llm.Provider = (*OpenAIClient)(nil)

// NewOpenAIClient creates a client. An empty baseURL selects the OpenAI
// API; any other value targets a compatible server.
func NewOpenAIClient(apiKey, baseURL, modelName string) *OpenAIClient {
	cfg := openaiapi.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if modelName == "" {
		modelName = DefaultOpenAIModel
	}
	return &OpenAIClient{
		apiKey: apiKey,
		model:  modelName,
		client: openaiapi.NewClientWithConfig(cfg),
	}
}

// Name implements llm.Provider.
func (c *OpenAIClient) Name() string { return "openai" }

// Model returns the default model.
func (c *OpenAIClient) Model() string { return c.model }

// ChatMessagesFor converts a chat request to the OpenAI message list.
func ChatMessagesFor(req llm.Request) []openaiapi.ChatCompletionMessage {
	msgs := make([]openaiapi.ChatCompletionMessage, 0, len(req.History)+2)
	if req.SystemInstruction != "" {
		msgs = append(msgs, openaiapi.ChatCompletionMessage{
			Role:    openaiapi.ChatMessageRoleSystem,
			Content: req.SystemInstruction,
		})
	}
	for _, t := range req.History {
		role := openaiapi.ChatMessageRoleUser
		if t.Role == model.RoleModel {
			role = openaiapi.ChatMessageRoleAssistant
		}
		msgs = append(msgs, openaiapi.ChatCompletionMessage{Role: role, Content: t.Content})
	}
	return append(msgs, openaiapi.ChatCompletionMessage{
		Role:    openaiapi.ChatMessageRoleUser,
		Content: req.Utterance,
	})
}

// StreamChat implements llm.Provider.
func (c *OpenAIClient) StreamChat(ctx context.Context, req llm.Request, onFragment llm.FragmentFunc) error {
	if c.apiKey == "" {
		return ErrNotConfigured
	}

	modelName := req.Model
	if modelName == "" {
		modelName = c.model
	}

	stream, err := c.client.CreateChatCompletionStream(ctx, openaiapi.ChatCompletionRequest{
		Model:    modelName,
		Messages: ChatMessagesFor(req),
		Stream:   true,
	})
	if err != nil {
		return c.translateError(err)
	}
	defer stream.Close()

	for {
		resp, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return c.translateError(err)
		}
		if len(resp.Choices) == 0 {
			continue
		}
		if text := resp.Choices[0].Delta.Content; text != "" {
			if err := onFragment(text); err != nil {
				return err
			}
		}
	}
}

// translateError converts go-openai errors into APIError.
func (c *OpenAIClient) translateError(err error) error {
	var apiErr *openaiapi.APIError
	if errors.As(err, &apiErr) {
		return &APIError{Provider: c.Name(), StatusCode: apiErr.HTTPStatusCode, Message: apiErr.Message}
	}
	var reqErr *openaiapi.RequestError
	if errors.As(err, &reqErr) {
		return &APIError{Provider: c.Name(), StatusCode: reqErr.HTTPStatusCode, Message: reqErr.Error()}
	}
	return fmt.Errorf("%s stream: %w", c.Name(), err)
}
