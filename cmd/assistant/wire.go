package main

import (
	"fmt"
	"log/slog"

	"kebbi/config"
	"kebbi/internal/application"
	"kebbi/internal/domain"
	"kebbi/internal/infra/anthropic"
	"kebbi/internal/infra/audio"
	"kebbi/internal/infra/gemini"
	"kebbi/internal/infra/metrics"
	"kebbi/internal/infra/openai"
	"kebbi/internal/infra/pushover"
	"kebbi/internal/infra/yandex"
	"kebbi/internal/store"
)

// app holds the explicitly constructed dependencies shared by every command.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	metrics *metrics.Metrics
	backend store.Backend
	service *application.Service
	stt     application.SpeechToText
}

func newApp(cfg *config.Config, logger *slog.Logger) (*app, error) {
	backend, err := store.Open(store.Options{
		Backend:       cfg.Storage.Backend,
		Dir:           cfg.Storage.Dir,
		SQLitePath:    cfg.Storage.SQLitePath,
		RedisAddr:     cfg.Storage.Redis.Addr,
		RedisPassword: cfg.Storage.Redis.Password,
		RedisDB:       cfg.Storage.Redis.DB,
		RedisPrefix:   cfg.Storage.Redis.Prefix,
	})
	if err != nil {
		return nil, fmt.Errorf("opening storage: %w", err)
	}

	m := metrics.New()

	gen, err := newGenerator(cfg)
	if err != nil {
		backend.Close()
		return nil, err
	}

	timeout, err := cfg.GenerationTimeout()
	if err != nil {
		backend.Close()
		return nil, err
	}

	gateway := application.NewGateway(m.InstrumentGenerator(gen, cfg.Generation.Provider), timeout, logger)
	service := application.NewService(gateway, application.Logs{
		Chats:     store.NewCollection[domain.ChatLogEntry](backend, store.ChatHistory, logger),
		Items:     store.NewCollection[domain.ItemRecord](backend, store.Items, logger),
		Schedules: store.NewCollection[domain.ScheduleRecord](backend, store.Schedules, logger),
	}, m, logger)

	var stt application.SpeechToText = &application.NoopSTT{}
	if cfg.STT.APIKey != "" || cfg.STT.BaseURL != "" {
		stt = openai.NewWhisperClientWithURL(cfg.STT.APIKey, cfg.STT.Language, cfg.STT.BaseURL)
	}

	logger.Info("assistant configured",
		"provider", cfg.Generation.Provider,
		"storage", cfg.Storage.Backend,
		"stt", cfg.STT.APIKey != "" || cfg.STT.BaseURL != "",
	)

	return &app{
		cfg:     cfg,
		logger:  logger,
		metrics: m,
		backend: backend,
		service: service,
		stt:     stt,
	}, nil
}

func (a *app) Close() error {
	return a.backend.Close()
}

func newGenerator(cfg *config.Config) (application.Generator, error) {
	attempts := cfg.Generation.MaxAttempts

	switch cfg.Generation.Provider {
	case "gemini":
		if cfg.Gemini.BaseURL != "" {
			return gemini.NewClientWithURL(cfg.Gemini.APIKey, cfg.Gemini.Model, cfg.Gemini.BaseURL, attempts), nil
		}
		return gemini.NewClient(cfg.Gemini.APIKey, cfg.Gemini.Model, attempts), nil
	case "anthropic":
		if cfg.Anthropic.BaseURL != "" {
			return anthropic.NewClaudeClientWithURL(cfg.Anthropic.APIKey, cfg.Anthropic.Model, cfg.Anthropic.BaseURL, attempts), nil
		}
		return anthropic.NewClaudeClient(cfg.Anthropic.APIKey, cfg.Anthropic.Model, attempts), nil
	case "openai":
		return openai.NewChatClient(openai.ChatOptions{
			APIKey:   cfg.OpenAI.APIKey,
			BaseURL:  cfg.OpenAI.BaseURL,
			Model:    cfg.OpenAI.Model,
			Referrer: cfg.OpenAI.Referrer,
			Title:    cfg.OpenAI.Title,
			Attempts: attempts,
		}), nil
	case "yandex":
		client, err := yandex.NewClient(cfg.Yandex.OAuthToken, cfg.Yandex.FolderID, attempts)
		if err != nil {
			return nil, fmt.Errorf("creating yandex client: %w", err)
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unknown generation provider: %s", cfg.Generation.Provider)
	}
}

func createAudioSource(cfg config.AudioConfig, logger *slog.Logger) application.AudioSource {
	switch cfg.Source {
	case "file":
		return audio.NewFileSource(cfg.FileDir, logger)
	case "microphone":
		return audio.NewMicrophoneSource(audio.MicrophoneConfig{
			SampleRate:       cfg.SampleRate,
			SilenceThreshold: cfg.SilenceThreshold,
			SilenceSeconds:   cfg.SilenceSeconds,
			MaxSeconds:       cfg.MaxSeconds,
		}, logger)
	default:
		return nil
	}
}

func createNotifiers(cfg *config.Config) application.Notifiers {
	var ns application.Notifiers
	if cfg.Pushover.Enabled {
		ns = append(ns, pushover.NewClient(cfg.Pushover.Token, cfg.Pushover.UserKey, cfg.Pushover.Title))
	}
	return ns
}
