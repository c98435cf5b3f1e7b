package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"voice-agent/internal/adapter/assemblyai"
	"voice-agent/internal/adapter/gemini"
	"voice-agent/internal/adapter/memory"
	"voice-agent/internal/adapter/murf"
	"voice-agent/internal/adapter/openai"
	"voice-agent/internal/adapter/redis"
	"voice-agent/internal/adapter/sqlstore"
	"voice-agent/internal/config"
	"voice-agent/internal/domain"
	"voice-agent/internal/usecase/agent"
	"voice-agent/internal/usecase/chat"
	"voice-agent/internal/usecase/stt"
	"voice-agent/internal/usecase/tts"
)

// app is the wired process: configuration, logger and pipelines.
type app struct {
	cfg     config.Config
	logger  *slog.Logger
	agent   *agent.Service
	closers []func() error
}

func (a *app) Close() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}

func build(ctx context.Context, flags *globalFlags, logOut io.Writer) (*app, error) {
	cfg, err := config.Load(flags.envPath, flags.configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger := newLogger(cfg, logOut)
	slog.SetDefault(logger)

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	stages, err := newStages(ctx, cfg)
	if err != nil {
		_ = closeStore()
		return nil, err
	}

	svc := agent.NewService(
		stt.NewService(stages.transcriber, cfg),
		chat.NewService(store, stages.generator, cfg),
		tts.NewService(stages.synthesizer, cfg),
		cfg,
		logger,
	)
	logger.Info("pipelines ready",
		"session_store", cfg.SessionStore,
		"stt", cfg.STTProvider,
		"llm", cfg.LLMProvider,
		"tts", cfg.TTSProvider,
		"status", svc.Status(),
	)
	return &app{cfg: cfg, logger: logger, agent: svc, closers: []func() error{closeStore}}, nil
}

func newLogger(cfg config.Config, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func openStore(ctx context.Context, cfg config.Config) (domain.SessionStore, func() error, error) {
	switch cfg.SessionStore {
	case config.StoreRedis:
		s, err := redis.Open(ctx, redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("open redis store: %w", err)
		}
		return s, s.Close, nil
	case config.StoreSQL:
		s, err := sqlstore.Open(cfg.SQL.Driver, cfg.SQL.DSN)
		if err != nil {
			return nil, nil, fmt.Errorf("open sql store: %w", err)
		}
		return s, s.Close, nil
	default:
		return memory.NewStore(), func() error { return nil }, nil
	}
}

// stageClients holds the provider clients. A field stays a nil interface
// when its credential is missing, which the services report as a
// configuration error.
type stageClients struct {
	transcriber stt.Client
	generator   chat.Client
	synthesizer tts.Client
}

func newStages(ctx context.Context, cfg config.Config) (stageClients, error) {
	var out stageClients

	var oa *openai.Client
	openAI := func() *openai.Client {
		if oa == nil {
			oa = openai.NewClient(cfg.OpenAIKey,
				openai.WithTranscriptionModel(cfg.STTModel),
				openai.WithAudioDir(cfg.AudioDir),
				openai.WithRetention(cfg.AudioRetention),
				openai.WithSpeech(openai.SpeechOptions{
					Model:  cfg.TTSModel,
					Voice:  cfg.TTSVoice,
					Format: cfg.TTSFormat,
				}),
			)
		}
		return oa
	}

	if cfg.TranscriberKey() != "" {
		switch cfg.STTProvider {
		case config.ProviderOpenAI:
			out.transcriber = openAI()
		default:
			out.transcriber = assemblyai.NewClient(cfg.AssemblyAIKey, assemblyai.WithSpeechModel(cfg.STTModel))
		}
	}

	if cfg.GeneratorKey() != "" {
		switch cfg.LLMProvider {
		case config.ProviderOpenAI:
			out.generator = openAI()
		default:
			g, err := gemini.New(ctx, cfg.GeminiKey, gemini.WithModel(cfg.LLMModel))
			if err != nil {
				return out, err
			}
			out.generator = g
		}
	}

	// In bypass mode the synthesizer is never called.
	if cfg.SynthesizerKey() != "" && !cfg.SynthesisBypass() {
		switch cfg.TTSProvider {
		case config.ProviderOpenAI:
			out.synthesizer = openAI()
		default:
			out.synthesizer = murf.NewClient(cfg.MurfKey)
		}
	}
	return out, nil
}
