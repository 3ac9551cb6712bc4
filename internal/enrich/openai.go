package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	openai "github.com/sashabaranov/go-openai"

	"github.com/aivira/grantdna/internal/model"
)

// OpenAIClient enriches via a direct OpenAI-compatible chat completion,
// bypassing the edge function. Used for self-hosted deployments.
type OpenAIClient struct {
	api   *openai.Client
	model string
}

// NewOpenAIClient creates a client for an OpenAI-compatible endpoint.
func NewOpenAIClient(baseURL, apiKey, modelName string) *OpenAIClient {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return &OpenAIClient{
		api:   openai.NewClientWithConfig(config),
		model: modelName,
	}
}

// Enrich asks the model for three implementation suggestions as JSON.
func (c *OpenAIClient) Enrich(ctx context.Context, a model.Answers, program model.Program) (model.Enrichment, error) {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: BuildPrompt(a, program)},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Temperature: 0.3,
	})
	if err != nil {
		return model.Enrichment{}, fmt.Errorf("enrichment API call: %w", err)
	}
	if len(resp.Choices) == 0 {
		return model.Enrichment{}, fmt.Errorf("enrichment returned no choices")
	}

	raw := resp.Choices[0].Message.Content
	slog.Debug("enrichment response", "raw", raw)

	var e model.Enrichment
	if err := json.Unmarshal([]byte(raw), &e); err != nil {
		return model.Enrichment{}, fmt.Errorf("parse enrichment response: %w (raw: %s)", err, raw)
	}
	if len(e.Suggestions) == 0 {
		return model.Enrichment{}, fmt.Errorf("enrichment response had no suggestions")
	}
	return e, nil
}
