// Package gemini generates replies with the Google Gemini API.
package gemini

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"voice-agent/internal/usecase/chat"
)

var _ chat.Client = (*Client)(nil)

const defaultModel = "gemini-2.5-flash"

type Client struct {
	client *genai.Client
	model  string
}

type Option func(*genai.ClientConfig, *Client)

// WithModel sets the model used when a request names none.
func WithModel(model string) Option {
	return func(_ *genai.ClientConfig, c *Client) {
		if model != "" {
			c.model = model
		}
	}
}

// WithBaseURL points the client at another API root.
func WithBaseURL(url string) Option {
	return func(cfg *genai.ClientConfig, _ *Client) { cfg.HTTPOptions.BaseURL = url }
}

func New(ctx context.Context, apiKey string, opts ...Option) (*Client, error) {
	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	c := &Client{model: defaultModel}
	for _, o := range opts {
		o(cfg, c)
	}

	gc, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("gemini: %w", err)
	}
	c.client = gc
	return c, nil
}

// Generate sends prompt as a single user turn and returns the text parts of
// the first candidate.
func (c *Client) Generate(ctx context.Context, prompt, model string) (string, error) {
	if model == "" {
		model = c.model
	}
	resp, err := c.client.Models.GenerateContent(ctx, model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("gemini: %w", err)
	}
	return resp.Text(), nil
}
