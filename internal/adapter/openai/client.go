// Package openai implements every pipeline stage on the OpenAI API: chat
// completions for generation, Whisper for transcription and the speech
// endpoint for synthesis.
package openai

import (
	"context"
	"errors"
	"log/slog"
	"time"

	openaiapi "github.com/sashabaranov/go-openai"

	"voice-agent/internal/usecase/chat"
	"voice-agent/internal/usecase/stt"
	"voice-agent/internal/usecase/tts"
)

var (
	_ chat.Client = (*Client)(nil)
	_ stt.Client  = (*Client)(nil)
	_ tts.Client  = (*Client)(nil)
)

const defaultChatModel = "gpt-4o-mini"

// SpeechOptions selects the rendering used by Synthesize.
type SpeechOptions struct {
	Model  string
	Voice  string
	Format string
}

type options struct {
	baseURL    string
	transcribe string
	speech     SpeechOptions
	audioDir   string
	retention  time.Duration
}

type Option func(*options)

// WithBaseURL points the client at another API root, e.g. a proxy.
func WithBaseURL(url string) Option {
	return func(o *options) { o.baseURL = url }
}

// WithTranscriptionModel sets the Whisper model. Default is whisper-1.
func WithTranscriptionModel(model string) Option {
	return func(o *options) {
		if model != "" {
			o.transcribe = model
		}
	}
}

// WithSpeech overrides the non-empty fields of the speech defaults.
func WithSpeech(s SpeechOptions) Option {
	return func(o *options) {
		if s.Model != "" {
			o.speech.Model = s.Model
		}
		if s.Voice != "" {
			o.speech.Voice = s.Voice
		}
		if s.Format != "" {
			o.speech.Format = s.Format
		}
	}
}

// WithAudioDir sets where synthesized files are written.
func WithAudioDir(dir string) Option {
	return func(o *options) {
		if dir != "" {
			o.audioDir = dir
		}
	}
}

// WithRetention removes synthesized files older than d whenever a new one
// is written. Zero keeps files forever.
func WithRetention(d time.Duration) Option {
	return func(o *options) { o.retention = d }
}

type Client struct {
	api        *openaiapi.Client
	transcribe string
	speech     SpeechOptions
	audioDir   string
	retention  time.Duration
	newName    func() string
	now        func() time.Time
	logger     *slog.Logger
}

func NewClient(token string, opts ...Option) *Client {
	o := options{
		transcribe: openaiapi.Whisper1,
		speech: SpeechOptions{
			Model:  "gpt-4o-mini-tts",
			Voice:  string(openaiapi.VoiceAlloy),
			Format: string(openaiapi.SpeechResponseFormatMp3),
		},
		audioDir: "audio",
	}
	for _, opt := range opts {
		opt(&o)
	}

	cfg := openaiapi.DefaultConfig(token)
	if o.baseURL != "" {
		cfg.BaseURL = o.baseURL
	}
	return &Client{
		api:        openaiapi.NewClientWithConfig(cfg),
		transcribe: o.transcribe,
		speech:     o.speech,
		audioDir:   o.audioDir,
		retention:  o.retention,
		newName:    newFileName,
		now:        time.Now,
		logger:     slog.Default(),
	}
}

// Generate sends prompt as a single user message.
func (c *Client) Generate(ctx context.Context, prompt, model string) (string, error) {
	if model == "" {
		model = defaultChatModel
	}
	resp, err := c.api.CreateChatCompletion(ctx, openaiapi.ChatCompletionRequest{
		Model: model,
		Messages: []openaiapi.ChatCompletionMessage{
			{Role: openaiapi.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai returned empty response")
	}
	return resp.Choices[0].Message.Content, nil
}
