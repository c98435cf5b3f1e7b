package stt

import (
	"context"
	"strings"

	"voice-agent/internal/config"
	"voice-agent/internal/domain"
)

// Client turns an audio file on disk into text.
type Client interface {
	Transcribe(ctx context.Context, path string) (string, error)
}

type Service struct {
	client     Client
	credential string
}

// NewService wraps client. A nil client means the transcription credential
// is missing.
func NewService(client Client, cfg config.Config) *Service {
	return &Service{
		client:     client,
		credential: cfg.TranscriberCredential(),
	}
}

// Check reports a ConfigError when no transcriber is configured.
func (s *Service) Check() error {
	if s.client == nil {
		return &domain.ConfigError{Credential: s.credential}
	}
	return nil
}

// Transcribe returns the trimmed transcription of the file at path.
func (s *Service) Transcribe(ctx context.Context, path string) (string, error) {
	if err := s.Check(); err != nil {
		return "", err
	}
	text, err := s.client.Transcribe(ctx, path)
	if err != nil {
		return "", domain.NewStageError(domain.StageTranscription, err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", domain.NewStageError(domain.StageTranscription, domain.ErrEmptyTranscription)
	}
	return text, nil
}
