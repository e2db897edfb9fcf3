// Package inference wraps the hosted chat-completion API.
//
// One Client is built at startup from immutable Options and shared by every
// request. Each Complete call sends exactly one request with a single
// user-role message: no retries, no streaming.
package inference

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/sakif/codefixer/internal/apperror"
)

const (
	DefaultModel       = "gpt-4o-mini"
	DefaultTemperature = float32(0.2)
	DefaultMaxTokens   = 1000
)

// Completer turns a prompt into generated text.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Options configures a Client. Zero values fall back to the defaults above;
// a zero Timeout leaves the transport default in place.
type Options struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	MaxTokens   int
	Timeout     time.Duration
}

// Client is the Completer backed by an OpenAI-compatible endpoint.
type Client struct {
	api         *openai.Client
	model       string
	temperature float32
	maxTokens   int
}

var _ Completer = (*Client)(nil)

// New builds a Client. It fails only when no API key is configured.
func New(opts Options) (*Client, error) {
	key := strings.TrimSpace(opts.APIKey)
	if key == "" {
		return nil, errors.New("inference: API key is required")
	}

	cfg := openai.DefaultConfig(key)
	if base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/"); base != "" {
		cfg.BaseURL = base
	}
	if opts.Timeout > 0 {
		cfg.HTTPClient = &http.Client{Timeout: opts.Timeout}
	}

	c := &Client{
		api:         openai.NewClientWithConfig(cfg),
		model:       strings.TrimSpace(opts.Model),
		temperature: opts.Temperature,
		maxTokens:   opts.MaxTokens,
	}
	if c.model == "" {
		c.model = DefaultModel
	}
	if c.temperature <= 0 {
		c.temperature = DefaultTemperature
	}
	if c.maxTokens <= 0 {
		c.maxTokens = DefaultMaxTokens
	}
	return c, nil
}

// Model returns the configured model identifier.
func (c *Client) Model() string { return c.model }

// Complete sends prompt and returns the trimmed text of the first choice.
// An empty first choice is a valid (empty) answer. Every failure (transport,
// auth, provider, a response with no choices) comes back as an
// apperror.ErrUpstream whose message is the underlying failure text.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	})
	if err != nil {
		return "", apperror.Upstream("inference", err)
	}

	if len(resp.Choices) == 0 {
		return "", apperror.Upstream("inference", fmt.Errorf("inference: response has no choices"))
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
