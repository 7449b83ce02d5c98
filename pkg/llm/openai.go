// Copyright 2026 © The LeadScout Authors
// SPDX-License-Identifier: Apache-2.0

package llm

import (
	"context"
	stderrors "errors"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/leadscout-ai/leadscout/pkg/errors"
)

// OpenAIProvider implements Provider for the OpenAI API.
type OpenAIProvider struct {
	client openai.Client
	model  string
}

// OpenAIOption configures the OpenAIProvider.
type OpenAIOption func(*openAIConfig)

type openAIConfig struct {
	apiKey  string
	baseURL string
	model   string
}

// WithOpenAIModel sets the default model.
func WithOpenAIModel(model string) OpenAIOption {
	return func(c *openAIConfig) { c.model = model }
}

// WithOpenAIBaseURL sets a custom base URL (for Azure OpenAI or proxies).
func WithOpenAIBaseURL(url string) OpenAIOption {
	return func(c *openAIConfig) { c.baseURL = url }
}

// WithOpenAIAPIKey sets the API key. When unset the client falls back to the
// OPENAI_API_KEY environment variable.
func WithOpenAIAPIKey(apiKey string) OpenAIOption {
	return func(c *openAIConfig) { c.apiKey = apiKey }
}

// NewOpenAI creates a new OpenAI provider.
func NewOpenAI(opts ...OpenAIOption) *OpenAIProvider {
	cfg := openAIConfig{model: "gpt-4o-mini"}
	for _, opt := range opts {
		opt(&cfg)
	}

	var clientOpts []option.RequestOption
	if cfg.apiKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(cfg.apiKey))
	}
	if cfg.baseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(cfg.baseURL))
	}

	return &OpenAIProvider{
		client: openai.NewClient(clientOpts...),
		model:  cfg.model,
	}
}

// Chat implements Provider.
func (p *OpenAIProvider) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	model := req.Model
	if model == "" {
		model = p.model
	}

	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Messages))
	for _, msg := range req.Messages {
		switch msg.Role {
		case RoleSystem:
			messages = append(messages, openai.SystemMessage(msg.Content))
		case RoleAssistant:
			messages = append(messages, openai.AssistantMessage(msg.Content))
		default:
			messages = append(messages, openai.UserMessage(msg.Content))
		}
	}

	params := openai.ChatCompletionNewParams{
		Model:    model,
		Messages: messages,
	}
	if req.Temperature > 0 {
		params.Temperature = openai.Float(req.Temperature)
	}

	completion, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, classifyOpenAIError(err)
	}

	resp := &ChatResponse{
		Usage: Usage{
			PromptTokens:     int(completion.Usage.PromptTokens),
			CompletionTokens: int(completion.Usage.CompletionTokens),
			TotalTokens:      int(completion.Usage.TotalTokens),
		},
	}
	if len(completion.Choices) > 0 {
		resp.Content = completion.Choices[0].Message.Content
	}
	return resp, nil
}

// classifyOpenAIError maps API errors onto the LeadScout error taxonomy so
// retry logic can distinguish transient failures from configuration defects.
func classifyOpenAIError(err error) error {
	var apierr *openai.Error
	if stderrors.As(err, &apierr) {
		switch apierr.StatusCode {
		case 401, 403:
			return errors.New(errors.CodeUnauthorized, "openai rejected the API key", err)
		case 429:
			return errors.New(errors.CodeRateLimit, "openai rate limited", err).
				WithRecoverable(true)
		}
		if apierr.StatusCode >= 500 {
			return errors.New(errors.CodeLLMError, "openai server error", err).
				WithRecoverable(true)
		}
	}
	return errors.New(errors.CodeLLMError, "openai chat completion failed", err)
}
