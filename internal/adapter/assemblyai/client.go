// Package assemblyai transcribes uploads with the AssemblyAI API.
package assemblyai

import (
	"context"
	"errors"
	"fmt"
	"os"

	aai "github.com/AssemblyAI/assemblyai-go-sdk"

	"voice-agent/internal/usecase/stt"
)

var _ stt.Client = (*Client)(nil)

type Client struct {
	api   *aai.Client
	model aai.SpeechModel
}

type Option func(*[]aai.ClientOption, *Client)

// WithBaseURL points the client at another API root.
func WithBaseURL(url string) Option {
	return func(opts *[]aai.ClientOption, _ *Client) {
		*opts = append(*opts, aai.WithBaseURL(url))
	}
}

// WithSpeechModel sets the speech model. Default is "best".
func WithSpeechModel(model string) Option {
	return func(_ *[]aai.ClientOption, c *Client) {
		if model != "" {
			c.model = aai.SpeechModel(model)
		}
	}
}

func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{model: aai.SpeechModelBest}
	clientOpts := []aai.ClientOption{aai.WithAPIKey(apiKey)}
	for _, o := range opts {
		o(&clientOpts, c)
	}
	c.api = aai.NewClientWithOptions(clientOpts...)
	return c
}

// Transcribe uploads the file at path and waits for its transcript.
func (c *Client) Transcribe(ctx context.Context, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	transcript, err := c.api.Transcripts.TranscribeFromReader(ctx, f, &aai.TranscriptOptionalParams{
		SpeechModel: c.model,
	})
	if err != nil {
		return "", fmt.Errorf("assemblyai: %w", err)
	}
	return transcriptText(transcript)
}

// transcriptText returns the text of a finished transcript, or its error
// when AssemblyAI marked it failed.
func transcriptText(t aai.Transcript) (string, error) {
	if t.Status == aai.TranscriptStatusError {
		if msg := deref(t.Error); msg != "" {
			return "", errors.New(msg)
		}
		return "", errors.New("transcript failed")
	}
	return deref(t.Text), nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
