package application

import (
	"context"

	"kebbi/internal/domain"
)

// Log is an append-only record collection.
type Log[T any] interface {
	Load(ctx context.Context) []T
	Recent(ctx context.Context, n int) []T
	Append(ctx context.Context, record T) error
}

type Logs struct {
	Chats     Log[domain.ChatLogEntry]
	Items     Log[domain.ItemRecord]
	Schedules Log[domain.ScheduleRecord]
}
