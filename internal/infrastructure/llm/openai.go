package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"NewsFetcher/internal/ports"
)

const defaultSystemPrompt = "You rewrite trucking and logistics news into a short, neutral post for an industry channel. " +
	"Keep the facts, drop marketing language, and end with the source name and link."

// Config describes how to reach an OpenAI-compatible chat endpoint.
type Config struct {
	APIKey       string
	BaseURL      string
	Model        string
	SystemPrompt string
	Timeout      time.Duration
	MaxTokens    int
}

// Formatter turns accepted candidates into publication text with a chat model.
type Formatter struct {
	client       *openai.Client
	model        string
	systemPrompt string
	timeout      time.Duration
	maxTokens    int
}

var _ ports.Formatter = (*Formatter)(nil)

// NewFormatter builds a formatter; an empty API key is rejected.
func NewFormatter(cfg Config) (*Formatter, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("openai api key is required")
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	model := cfg.Model
	if model == "" {
		model = openai.GPT4oMini
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 600
	}

	return &Formatter{
		client:       openai.NewClientWithConfig(clientConfig),
		model:        model,
		systemPrompt: safePrompt(cfg.SystemPrompt),
		timeout:      timeout,
		maxTokens:    maxTokens,
	}, nil
}

// FormatForPublication asks the model for post text. Callers fall back to a basic format on error.
func (f *Formatter) FormatForPublication(ctx context.Context, title, body, url, sourceName string) (string, error) {
	if f == nil || f.client == nil {
		return "", errors.New("openai formatter is nil")
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	resp, err := f.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: f.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: f.systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userMessage(title, body, url, sourceName)},
		},
		MaxTokens:   f.maxTokens,
		Temperature: 0.3,
	})
	if err != nil {
		return "", fmt.Errorf("openai chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai returned no choices")
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", errors.New("openai returned empty text")
	}
	return text, nil
}

func userMessage(title, body, url, sourceName string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Title: %s\n", title)
	if sourceName != "" {
		fmt.Fprintf(&b, "Source: %s\n", sourceName)
	}
	if url != "" {
		fmt.Fprintf(&b, "Link: %s\n", url)
	}
	if body = strings.TrimSpace(body); body != "" {
		fmt.Fprintf(&b, "\n%s\n", body)
	}
	return b.String()
}

func safePrompt(prompt string) string {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return defaultSystemPrompt
	}
	return prompt
}
