package application

import (
	"context"
	"log/slog"

	"kebbi/internal/domain"
	"kebbi/internal/prompt"
)

type Router struct {
	gateway *Gateway
	logger  *slog.Logger
}

func NewRouter(gateway *Gateway, logger *slog.Logger) *Router {
	return &Router{gateway: gateway, logger: logger}
}

// Classify asks the generation service for one of the three intent labels.
// A failed call or an answer outside the label set is IntentUnrecognized.
func (r *Router) Classify(ctx context.Context, text string) domain.Intent {
	answer, ok := r.gateway.Generate(ctx, prompt.Intent(text))
	if !ok {
		return domain.Intent{Kind: domain.IntentUnrecognized}
	}

	intent := domain.ParseIntent(answer)
	if !intent.Recognized() {
		r.logger.Warn("classifier answered outside label set", "answer", answer)
	}
	return intent
}
