// Package agent runs the voice pipelines: it sequences transcription,
// generation and synthesis, records conversation turns and reports every
// outcome as a domain.Result.
package agent

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"voice-agent/internal/config"
	"voice-agent/internal/domain"
	"voice-agent/internal/usecase/chat"
	"voice-agent/internal/usecase/stt"
	"voice-agent/internal/usecase/tts"
)

var (
	ErrMissingAudio   = errors.New("audio payload is required")
	ErrMissingSession = errors.New("session id is required")
)

// Audio is an uploaded recording. Filename is only used for its extension.
type Audio struct {
	Filename string
	Body     io.Reader
}

// Status reports which stages can run.
type Status struct {
	Transcriber bool `json:"transcriber"`
	Generator   bool `json:"generator"`
	Synthesizer bool `json:"synthesizer"`
	Bypass      bool `json:"synthesis_bypass"`
}

type Service struct {
	stt       *stt.Service
	chat      *chat.Service
	tts       *tts.Service
	uploadDir string
	logger    *slog.Logger
}

func NewService(sttSvc *stt.Service, chatSvc *chat.Service, ttsSvc *tts.Service, cfg config.Config, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		stt:       sttSvc,
		chat:      chatSvc,
		tts:       ttsSvc,
		uploadDir: cfg.UploadDir,
		logger:    logger,
	}
}

func (s *Service) Status() Status {
	return Status{
		Transcriber: s.stt.Check() == nil,
		Generator:   s.chat.Check() == nil,
		Synthesizer: s.tts.Check() == nil,
		Bypass:      s.tts.Bypassed(),
	}
}

// Echo transcribes audio and speaks the transcription back.
func (s *Service) Echo(ctx context.Context, audio Audio, voice string) domain.Result {
	r := &run{name: "echo", voice: voice}
	return s.execute(ctx, r, &audio,
		[]func() error{s.stt.Check, s.tts.Check},
		s.transcribe,
		s.speak(fromTranscription, func(_ *run, sp tts.Speech) string {
			if sp.Bypassed {
				return fmt.Sprintf("Mock echo with voice %s", sp.Voice)
			}
			return fmt.Sprintf("Echo complete with %s", sp.Voice)
		}),
	)
}

// VoiceQuery answers a single spoken question without history.
func (s *Service) VoiceQuery(ctx context.Context, audio Audio, voice string) domain.Result {
	r := &run{name: "voice-query", voice: voice}
	return s.execute(ctx, r, &audio,
		[]func() error{s.stt.Check, s.chat.Check, s.tts.Check},
		s.transcribe,
		s.answer,
		s.speak(fromResponse, func(_ *run, sp tts.Speech) string {
			if sp.Bypassed {
				return fmt.Sprintf("Mock voice LLM with voice %s", sp.Voice)
			}
			return fmt.Sprintf("Voice LLM complete with %s", sp.Voice)
		}),
	)
}

// Chat runs one conversational turn in sessionID. The user turn is recorded
// after transcription and the assistant turn after generation, so a later
// failure never erases them.
func (s *Service) Chat(ctx context.Context, sessionID string, audio Audio, voice string) domain.Result {
	r := &run{name: "chat", voice: voice}
	r.res.SessionID = sessionID
	return s.execute(ctx, r, &audio,
		[]func() error{requireSession(sessionID), s.stt.Check, s.chat.Check, s.tts.Check},
		s.transcribe,
		s.reply,
		s.speak(fromResponse, func(r *run, sp tts.Speech) string {
			if sp.Bypassed {
				return fmt.Sprintf("Mock chat agent for session %s, voice %s", r.res.SessionID, sp.Voice)
			}
			return fmt.Sprintf("Chat response complete! Session: %s, Voice: %s", r.res.SessionID, sp.Voice)
		}),
	)
}

// Transcribe only transcribes audio.
func (s *Service) Transcribe(ctx context.Context, audio Audio) domain.Result {
	r := &run{name: "transcribe"}
	r.res.Filename = audio.Filename
	return s.execute(ctx, r, &audio, []func() error{s.stt.Check}, s.transcribe)
}

// Speak synthesizes text directly.
func (s *Service) Speak(ctx context.Context, text, voice string) domain.Result {
	r := &run{name: "speak", voice: voice}
	return s.execute(ctx, r, nil,
		[]func() error{s.tts.Check},
		func(_ context.Context, _ *run) error {
			if strings.TrimSpace(text) == "" {
				return tts.ErrEmptyText
			}
			return nil
		},
		s.speak(func(*run) string { return strings.TrimSpace(text) }, func(_ *run, sp tts.Speech) string {
			if sp.Bypassed {
				return fmt.Sprintf("Mock TTS for voice %s", sp.Voice)
			}
			return fmt.Sprintf("Voice: %s", sp.Voice)
		}),
	)
}

// Ask sends text to the generator as is. The answer is not truncated.
func (s *Service) Ask(ctx context.Context, text string) (string, error) {
	return s.chat.Complete(ctx, text)
}

func (s *Service) NewSession(ctx context.Context) (string, error) {
	return s.chat.NewSession(ctx)
}

func (s *Service) History(ctx context.Context, sessionID string) (domain.History, error) {
	return s.chat.History(ctx, sessionID)
}

func requireSession(id string) func() error {
	return func() error {
		if strings.TrimSpace(id) == "" {
			return ErrMissingSession
		}
		return nil
	}
}
