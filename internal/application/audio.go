package application

import "context"

// AudioSource yields raw audio, or text prefixed with
// domain.TextCommandPrefix, one command at a time.
type AudioSource interface {
	Start(ctx context.Context) error
	Stop() error
	NextCommand(ctx context.Context) ([]byte, error)
	Name() string
}
