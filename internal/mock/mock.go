// Package mock provides test doubles for the stage clients and the session
// store using function fields.
package mock

import (
	"context"

	"voice-agent/internal/domain"
	"voice-agent/internal/usecase/chat"
	"voice-agent/internal/usecase/stt"
	"voice-agent/internal/usecase/tts"
)

var (
	_ stt.Client          = (*Transcriber)(nil)
	_ chat.Client         = (*Generator)(nil)
	_ tts.Client          = (*Synthesizer)(nil)
	_ domain.SessionStore = (*SessionStore)(nil)
)

// Transcriber is a test double for stt.Client.
type Transcriber struct {
	TranscribeFn func(ctx context.Context, path string) (string, error)
}

func (t *Transcriber) Transcribe(ctx context.Context, path string) (string, error) {
	return t.TranscribeFn(ctx, path)
}

// Generator is a test double for chat.Client.
type Generator struct {
	GenerateFn func(ctx context.Context, prompt, model string) (string, error)
}

func (g *Generator) Generate(ctx context.Context, prompt, model string) (string, error) {
	return g.GenerateFn(ctx, prompt, model)
}

// Synthesizer is a test double for tts.Client.
type Synthesizer struct {
	SynthesizeFn func(ctx context.Context, text, voice string) (string, error)
}

func (s *Synthesizer) Synthesize(ctx context.Context, text, voice string) (string, error) {
	return s.SynthesizeFn(ctx, text, voice)
}

// SessionStore is a test double for domain.SessionStore.
type SessionStore struct {
	CreateFn  func(ctx context.Context) (string, error)
	EnsureFn  func(ctx context.Context, id string) (domain.Session, error)
	AppendFn  func(ctx context.Context, id string, role domain.Role, content string) (domain.Message, error)
	RecentFn  func(ctx context.Context, id string, limit int) ([]domain.Message, error)
	HistoryFn func(ctx context.Context, id string) ([]domain.Message, bool, error)
}

func (s *SessionStore) Create(ctx context.Context) (string, error) {
	return s.CreateFn(ctx)
}

func (s *SessionStore) Ensure(ctx context.Context, id string) (domain.Session, error) {
	return s.EnsureFn(ctx, id)
}

func (s *SessionStore) Append(ctx context.Context, id string, role domain.Role, content string) (domain.Message, error) {
	return s.AppendFn(ctx, id, role, content)
}

func (s *SessionStore) Recent(ctx context.Context, id string, limit int) ([]domain.Message, error) {
	return s.RecentFn(ctx, id, limit)
}

func (s *SessionStore) History(ctx context.Context, id string) ([]domain.Message, bool, error) {
	return s.HistoryFn(ctx, id)
}
