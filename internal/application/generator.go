package application

import (
	"context"
	"log/slog"
	"strings"
	"time"
)

// Generator is the external text-generation service.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Gateway is the single narrow path to the generation service. Failures are
// logged and reported as "no result" instead of errors.
type Gateway struct {
	gen     Generator
	timeout time.Duration
	logger  *slog.Logger
}

func NewGateway(gen Generator, timeout time.Duration, logger *slog.Logger) *Gateway {
	return &Gateway{
		gen:     gen,
		timeout: timeout,
		logger:  logger,
	}
}

// Generate returns the trimmed reply and true, or "" and false when the call
// failed or produced no text.
func (g *Gateway) Generate(ctx context.Context, prompt string) (string, bool) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	text, err := g.gen.Generate(ctx, prompt)
	if err != nil {
		g.logger.Warn("generation unavailable", "error", err)
		return "", false
	}

	text = strings.TrimSpace(text)
	if text == "" {
		g.logger.Warn("generation returned empty text")
		return "", false
	}
	return text, true
}
