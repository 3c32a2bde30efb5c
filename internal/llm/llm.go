package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pavelanni/revisor/internal/llm/prompts"
	"github.com/pavelanni/revisor/internal/model"

	openai "github.com/sashabaranov/go-openai"
)

// ErrMissingQuestions is returned when the response has no "questions" field.
var ErrMissingQuestions = errors.New("response has no questions field")

// GeneratedQuestion is one question as returned by the generative service.
type GeneratedQuestion struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correctAnswer"`
	Explanation   string   `json:"explanation"`
}

type questionSet struct {
	Questions *[]GeneratedQuestion `json:"questions"`
}

// Client wraps an OpenAI-compatible API client.
type Client struct {
	api   *openai.Client
	model string
}

// New creates a new LLM client.
func New(baseURL, apiKey, modelName string) *Client {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return &Client{
		api:   openai.NewClientWithConfig(config),
		model: modelName,
	}
}

// Ping checks that the endpoint answers by listing its models.
func (c *Client) Ping(ctx context.Context) error {
	if _, err := c.api.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}

// GenerateQuestions asks the service for conceptual multiple-choice questions about a topic.
// It makes a single attempt; the caller owns the deadline through ctx.
func (c *Client) GenerateQuestions(ctx context.Context, req model.TestRequest) ([]GeneratedQuestion, error) {
	prompt, err := prompts.BuildQuestionsPrompt(req)
	if err != nil {
		return nil, err
	}

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Temperature: 0.7,
	})
	if err != nil {
		return nil, fmt.Errorf("LLM API call: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("LLM returned no choices")
	}

	raw := resp.Choices[0].Message.Content
	slog.Debug("LLM response", "topic", req.Topic, "raw", raw)

	return ParseQuestions(raw)
}

// ParseQuestions decodes a {"questions": [...]} payload.
func ParseQuestions(raw string) ([]GeneratedQuestion, error) {
	var set questionSet
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &set); err != nil {
		return nil, fmt.Errorf("parse LLM response: %w (raw: %s)", err, raw)
	}
	if set.Questions == nil {
		return nil, ErrMissingQuestions
	}
	return *set.Questions, nil
}
