package application

import (
	"context"
	"errors"
)

// ErrSTTNotConfigured is returned by NoopSTT.
var ErrSTTNotConfigured = errors.New("speech-to-text not configured: set stt.api_key or openai.api_key")

type SpeechToText interface {
	Transcribe(ctx context.Context, audio []byte) (string, error)
}

// NoopSTT stands in when no transcription backend is configured. Text
// commands still work; audio is rejected.
type NoopSTT struct{}

func (n *NoopSTT) Transcribe(_ context.Context, _ []byte) (string, error) {
	return "", ErrSTTNotConfigured
}
