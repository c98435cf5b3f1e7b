package chat

import (
	"context"
	"strings"

	"voice-agent/internal/config"
	"voice-agent/internal/domain"
)

// Client produces text for a single prompt. model may be empty, in which
// case the client's default applies.
type Client interface {
	Generate(ctx context.Context, prompt, model string) (string, error)
}

type Service struct {
	store      domain.SessionStore
	client     Client
	model      string
	window     int
	credential string
}

func NewService(store domain.SessionStore, client Client, cfg config.Config) *Service {
	window := cfg.ContextLimit
	if window <= 0 {
		window = domain.DefaultContextWindow
	}
	return &Service{
		store:      store,
		client:     client,
		model:      cfg.LLMModel,
		window:     window,
		credential: cfg.GeneratorCredential(),
	}
}

// Check reports a ConfigError when no generator is configured.
func (s *Service) Check() error {
	if s.client == nil {
		return &domain.ConfigError{Credential: s.credential}
	}
	return nil
}

// Ask runs one generation for prompt and returns the truncated answer.
func (s *Service) Ask(ctx context.Context, prompt string) (string, error) {
	text, err := s.Complete(ctx, prompt)
	if err != nil {
		return "", err
	}
	return Truncate(text, MaxResponseChars), nil
}

// Complete runs one generation for prompt and returns the whole answer.
func (s *Service) Complete(ctx context.Context, prompt string) (string, error) {
	if err := s.Check(); err != nil {
		return "", err
	}
	text, err := s.client.Generate(ctx, prompt, s.model)
	if err != nil {
		return "", domain.NewStageError(domain.StageGeneration, err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", domain.NewStageError(domain.StageGeneration, domain.ErrEmptyResponse)
	}
	return text, nil
}

// AskAbout answers a single utterance without any conversation history.
func (s *Service) AskAbout(ctx context.Context, utterance string) (string, error) {
	return s.Ask(ctx, QueryPrompt(utterance))
}

// Reply records utterance in the session, answers it with the recent
// history as context and records the answer. A failed generation leaves the
// user message in place.
func (s *Service) Reply(ctx context.Context, sessionID, utterance string) (string, error) {
	if err := s.Check(); err != nil {
		return "", err
	}
	if _, err := s.store.Ensure(ctx, sessionID); err != nil {
		return "", domain.NewStageError(domain.StageSession, err)
	}
	if _, err := s.store.Append(ctx, sessionID, domain.RoleUser, utterance); err != nil {
		return "", domain.NewStageError(domain.StageSession, err)
	}

	window, err := s.store.Recent(ctx, sessionID, s.window)
	if err != nil {
		return "", domain.NewStageError(domain.StageSession, err)
	}

	answer, err := s.Ask(ctx, ConversationPrompt(window, utterance))
	if err != nil {
		return "", err
	}

	if _, err := s.store.Append(ctx, sessionID, domain.RoleAssistant, answer); err != nil {
		return answer, domain.NewStageError(domain.StageSession, err)
	}
	return answer, nil
}

// NewSession creates an empty conversation.
func (s *Service) NewSession(ctx context.Context) (string, error) {
	return s.store.Create(ctx)
}

// History returns the full conversation for sessionID.
func (s *Service) History(ctx context.Context, sessionID string) (domain.History, error) {
	msgs, exists, err := s.store.History(ctx, sessionID)
	if err != nil {
		return domain.History{}, err
	}
	return domain.History{
		SessionID: sessionID,
		Exists:    exists,
		Messages:  msgs,
	}, nil
}
