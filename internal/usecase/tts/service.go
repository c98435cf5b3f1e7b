package tts

import (
	"context"
	"errors"
	"strings"

	"voice-agent/internal/config"
	"voice-agent/internal/domain"
)

var ErrEmptyText = errors.New("Text cannot be empty")

// Client renders text as speech and returns a reference to the audio.
type Client interface {
	Synthesize(ctx context.Context, text, voice string) (string, error)
}

// Bypass replaces real synthesis with a fixed audio reference. It is
// resolved once from configuration.
type Bypass struct {
	Enabled  bool
	AudioURL string
}

// Speech is the outcome of one synthesis.
type Speech struct {
	AudioURL string
	Voice    string
	Bypassed bool
}

type Service struct {
	client       Client
	bypass       Bypass
	defaultVoice string
	credential   string
}

func NewService(client Client, cfg config.Config) *Service {
	return &Service{
		client: client,
		bypass: Bypass{
			Enabled:  cfg.SynthesisBypass(),
			AudioURL: config.PlaceholderAudioURL,
		},
		defaultVoice: cfg.DefaultVoice,
		credential:   cfg.SynthesizerCredential(),
	}
}

// Check reports a ConfigError when neither a synthesizer nor bypass mode is
// available.
func (s *Service) Check() error {
	if s.client == nil && !s.bypass.Enabled {
		return &domain.ConfigError{Credential: s.credential}
	}
	return nil
}

// Bypassed reports whether synthesis calls are being replaced.
func (s *Service) Bypassed() bool {
	return s.bypass.Enabled
}

// Voice returns voice, or the configured default when voice is blank.
func (s *Service) Voice(voice string) string {
	if v := strings.TrimSpace(voice); v != "" {
		return v
	}
	return s.defaultVoice
}

func (s *Service) Synthesize(ctx context.Context, text, voice string) (Speech, error) {
	if err := s.Check(); err != nil {
		return Speech{}, err
	}
	if strings.TrimSpace(text) == "" {
		return Speech{}, domain.NewStageError(domain.StageSynthesis, ErrEmptyText)
	}
	voice = s.Voice(voice)

	if s.bypass.Enabled {
		return Speech{AudioURL: s.bypass.AudioURL, Voice: voice, Bypassed: true}, nil
	}

	url, err := s.client.Synthesize(ctx, text, voice)
	if err != nil {
		return Speech{}, domain.NewStageError(domain.StageSynthesis, err)
	}
	if strings.TrimSpace(url) == "" {
		return Speech{}, domain.NewStageError(domain.StageSynthesis, domain.ErrNoAudioURL)
	}
	return Speech{AudioURL: url, Voice: voice}, nil
}
