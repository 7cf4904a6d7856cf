package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pavelanni/chemquiz/internal/llm/prompts"

	openai "github.com/sashabaranov/go-openai"
)

// Explanation is the tutor's feedback on one answered quiz item.
type Explanation struct {
	Explanation string `json:"explanation"`
	Tip         string `json:"tip"`
}

// Client wraps an OpenAI-compatible API client.
type Client struct {
	api     *openai.Client
	model   string
	variant prompts.PromptVariant
}

// New creates a new LLM client using the standard explanation variant.
func New(baseURL, apiKey, modelName string) *Client {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return &Client{
		api:     openai.NewClientWithConfig(config),
		model:   modelName,
		variant: prompts.PromptStandard,
	}
}

// SetVariant selects the explanation prompt variant. Unknown names are ignored.
func (c *Client) SetVariant(v string) {
	if prompts.IsValidVariant(v) {
		c.variant = prompts.PromptVariant(v)
	}
}

// Variant returns the active explanation prompt variant.
func (c *Client) Variant() prompts.PromptVariant {
	return c.variant
}

// Explain asks the LLM to explain why the selected option is or is not the
// correct answer.
func (c *Client) Explain(ctx context.Context, in prompts.ExplainInput) (*Explanation, error) {
	systemPrompt, err := prompts.BuildExplainPrompt(c.variant, in)
	if err != nil {
		return nil, fmt.Errorf("build prompt: %w", err)
	}

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: "Explain my answer."},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Temperature: 0.3,
	})
	if err != nil {
		return nil, fmt.Errorf("LLM API call: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("LLM returned no choices")
	}

	raw := resp.Choices[0].Message.Content
	slog.Debug("LLM response", "raw", raw)

	return parseExplanation(raw)
}

func parseExplanation(raw string) (*Explanation, error) {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")

	var result Explanation
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return nil, fmt.Errorf("parse LLM response: %w (raw: %s)", err, raw)
	}
	result.Explanation = strings.TrimSpace(result.Explanation)
	result.Tip = strings.TrimSpace(result.Tip)
	if result.Explanation == "" {
		return nil, fmt.Errorf("LLM response has no explanation (raw: %s)", raw)
	}
	return &result, nil
}
