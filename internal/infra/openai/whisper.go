package openai

import (
	"bytes"
	"context"
	"fmt"

	goopenai "github.com/sashabaranov/go-openai"

	"kebbi/internal/infra"
)

type WhisperClient struct {
	client   *goopenai.Client
	model    string
	language string
}

func NewWhisperClient(apiKey, language string) *WhisperClient {
	return NewWhisperClientWithURL(apiKey, language, "")
}

// NewWhisperClientWithURL targets a self-hosted OpenAI-compatible
// transcription server when baseURL is set.
func NewWhisperClientWithURL(apiKey, language, baseURL string) *WhisperClient {
	config := goopenai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return &WhisperClient{
		client:   goopenai.NewClientWithConfig(config),
		model:    goopenai.Whisper1,
		language: language,
	}
}

func (c *WhisperClient) Transcribe(ctx context.Context, audio []byte) (string, error) {
	if len(audio) == 0 {
		return "", fmt.Errorf("empty audio")
	}

	var result goopenai.AudioResponse
	retryErr := infra.WithRetry(ctx, infra.DefaultRetryConfig(), func() error {
		var err error
		result, err = c.client.CreateTranscription(ctx, goopenai.AudioRequest{
			Model:    c.model,
			FilePath: "audio.wav",
			Reader:   bytes.NewReader(audio),
			Language: c.language,
		})
		if err != nil {
			return fmt.Errorf("whisper transcription: %w", err)
		}
		return nil
	})

	if retryErr != nil {
		return "", retryErr
	}

	return result.Text, nil
}
