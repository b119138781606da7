package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"kebbi/internal/domain"
)

// Assistant is the hands-free loop: it pulls audio or text commands from a
// source, handles them and delivers the reply through the notifier.
type Assistant struct {
	audio    AudioSource
	stt      SpeechToText
	service  *Service
	notifier Notifier
	logger   *slog.Logger
}

func NewAssistant(
	audio AudioSource,
	stt SpeechToText,
	service *Service,
	notifier Notifier,
	logger *slog.Logger,
) *Assistant {
	return &Assistant{
		audio:    audio,
		stt:      stt,
		service:  service,
		notifier: notifier,
		logger:   logger,
	}
}

func (a *Assistant) Run(ctx context.Context) error {
	a.logger.Info("starting audio source", "source", a.audio.Name())
	if err := a.audio.Start(ctx); err != nil {
		return fmt.Errorf("starting audio: %w", err)
	}
	defer a.audio.Stop()

	a.logger.Info("assistant ready, listening for commands")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			if err := a.processOneCommand(ctx); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				a.logger.Error("processing command", "error", err)
			}
		}
	}
}

func (a *Assistant) processOneCommand(ctx context.Context) error {
	audioData, err := a.audio.NextCommand(ctx)
	if err != nil {
		return fmt.Errorf("getting audio: %w", err)
	}

	if len(audioData) == 0 {
		return nil
	}

	var u domain.Utterance

	if directText, isText := IsTextCommand(audioData); isText {
		a.logger.Info("received text command directly", "text", directText)
		u = domain.NewTextUtterance(strings.TrimSpace(directText))
	} else {
		a.logger.Info("received audio", "bytes", len(audioData))

		text, err := a.stt.Transcribe(ctx, audioData)
		if err != nil {
			return fmt.Errorf("transcribing: %w", err)
		}

		a.logger.Info("transcribed", "text", text)
		u = domain.NewSpeechUtterance(text)
	}

	reply := a.service.Handle(ctx, u)
	if reply.Text == "" {
		a.logger.Warn("no reply for command", "intent", reply.Intent.Kind)
		return nil
	}

	if err := a.notifier.Notify(ctx, reply.Text); err != nil {
		a.logger.Error("notifying reply", "error", err)
	}

	return nil
}

// IsTextCommand reports whether a payload carries TextCommandPrefix and
// returns the text after it.
func IsTextCommand(data []byte) (string, bool) {
	if len(data) > len(domain.TextCommandPrefix) && string(data[:len(domain.TextCommandPrefix)]) == domain.TextCommandPrefix {
		return string(data[len(domain.TextCommandPrefix):]), true
	}
	return "", false
}
