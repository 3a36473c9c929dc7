package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"budgetbot/internal/core"
)

// Roles used in conversation history.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Message struct {
	Role    string
	Content string
}

// Generator produces a free-form reply for a conversation.
type Generator interface {
	Complete(ctx context.Context, messages []Message) (string, error)
}

type Config struct {
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

// Client talks to an OpenAI-compatible chat completion endpoint.
type Client struct {
	model       llms.Model
	temperature float64
	maxTokens   int
	timeout     time.Duration
}

var _ Generator = (*Client)(nil)

func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("missing LLM API key")
	}
	opts := []openai.Option{
		openai.WithToken(cfg.APIKey),
		openai.WithModel(cfg.Model),
		openai.WithCallback(LogCallbackHandler{}),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}
	model, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("create LLM client: %w", err)
	}
	return NewWithModel(model, cfg), nil
}

// NewWithModel wraps an already constructed langchaingo model.
func NewWithModel(model llms.Model, cfg Config) *Client {
	return &Client{
		model:       model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		timeout:     cfg.Timeout,
	}
}

// Complete sends the conversation and returns the first choice. Every failure
// wraps core.ErrGeneration.
func (c *Client) Complete(ctx context.Context, messages []Message) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	opts := []llms.CallOption{llms.WithTemperature(c.temperature)}
	if c.maxTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(c.maxTokens))
	}

	resp, err := c.model.GenerateContent(ctx, toContent(messages), opts...)
	if err != nil {
		return "", fmt.Errorf("%w: %w", core.ErrGeneration, err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: empty response", core.ErrGeneration)
	}
	return resp.Choices[0].Content, nil
}

func toContent(messages []Message) []llms.MessageContent {
	out := make([]llms.MessageContent, 0, len(messages))
	for _, m := range messages {
		out = append(out, llms.TextParts(roleType(m.Role), m.Content))
	}
	return out
}

func roleType(role string) llms.ChatMessageType {
	switch role {
	case RoleSystem:
		return llms.ChatMessageTypeSystem
	case RoleAssistant:
		return llms.ChatMessageTypeAI
	default:
		return llms.ChatMessageTypeHuman
	}
}

// Disabled is used when no API key is configured.
type Disabled struct{}

func (Disabled) Complete(context.Context, []Message) (string, error) {
	return "", fmt.Errorf("%w: no language model configured", core.ErrGeneration)
}
