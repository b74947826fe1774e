// Package anthropic adapts the Anthropic Messages API to the text-completion oracle.
package anthropic

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"go.uber.org/zap"

	"github.com/spigell/soto-lp/internal/logger"
)

const (
	defaultModel     = "claude-3-5-haiku-latest"
	defaultMaxTokens = 2048
)

type messageCreator interface {
	New(ctx context.Context, params anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error)
}

type Client struct {
	messages  messageCreator
	model     string
	maxTokens int64
	logger    *zap.Logger
}

// New creates a Client. The SDK retries rate limits and server errors up to maxRetries times.
func New(apiKey, model string, maxRetries int, log *zap.Logger) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("anthropic api key is required")
	}

	if model = strings.TrimSpace(model); model == "" {
		model = defaultModel
	}

	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if maxRetries > 0 {
		opts = append(opts, option.WithMaxRetries(maxRetries))
	}
	client := anthropic.NewClient(opts...)

	return &Client{
		messages:  &client.Messages,
		model:     model,
		maxTokens: defaultMaxTokens,
		logger:    logger.OrNop(log),
	}, nil
}

// GenerateContent sends message with the system instruction and returns the first text block.
func (c *Client) GenerateContent(ctx context.Context, system, message string) (string, error) {
	if c == nil || c.messages == nil {
		return "", errors.New("anthropic client is not initialized")
	}

	message = strings.TrimSpace(message)
	if message == "" {
		return "", errors.New("message must not be empty")
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: c.maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(message)),
		},
	}
	if system = strings.TrimSpace(system); system != "" {
		params.System = []anthropic.TextBlockParam{
			{Text: system, CacheControl: anthropic.NewCacheControlEphemeralParam()},
		}
	}

	resp, err := c.messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("create anthropic message: %w", err)
	}

	c.logger.Debug("anthropic response",
		zap.Int64("input_tokens", resp.Usage.InputTokens),
		zap.Int64("output_tokens", resp.Usage.OutputTokens),
	)

	for _, block := range resp.Content {
		if block.Type == "text" && strings.TrimSpace(block.Text) != "" {
			return strings.TrimSpace(block.Text), nil
		}
	}

	return "", errors.New("no text content in anthropic response")
}

func (c *Client) Model() string {
	if c == nil {
		return ""
	}
	return c.model
}
