package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kebbi/internal/application"
	"kebbi/internal/domain"
	"kebbi/internal/store"
)

type recordingNotifier struct {
	messages []string
	err      error
}

func (n *recordingNotifier) Notify(_ context.Context, message string) error {
	n.messages = append(n.messages, message)
	return n.err
}

type unavailable struct{}

func (unavailable) Generate(context.Context, string) (string, error) {
	return "", errors.New("unavailable")
}

func newTestScheduler(t *testing.T, spec string) (*Scheduler, *recordingNotifier, *store.Collection[domain.ItemRecord]) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	backend, err := store.NewFileBackend(t.TempDir())
	require.NoError(t, err)

	items := store.NewCollection[domain.ItemRecord](backend, store.Items, logger)
	service := application.NewService(application.NewGateway(unavailable{}, time.Second, logger), application.Logs{
		Chats:     store.NewCollection[domain.ChatLogEntry](backend, store.ChatHistory, logger),
		Items:     items,
		Schedules: store.NewCollection[domain.ScheduleRecord](backend, store.Schedules, logger),
	}, nil, logger)

	n := &recordingNotifier{}
	s := New(service, n, spec, time.UTC, logger)
	s.now = func() time.Time { return time.Date(2025, 5, 1, 21, 0, 0, 0, time.Local) }
	return s, n, items
}

func TestSendDigest(t *testing.T) {
	s, n, items := newTestScheduler(t, "")
	ctx := context.Background()

	require.NoError(t, s.SendDigest(ctx))
	assert.Empty(t, n.messages, "empty days are skipped")

	require.NoError(t, items.Append(ctx, domain.ItemRecord{Item: "鑰匙", Location: "玄關", Owner: "我", Timestamp: "2025-05-01 09:00:00"}))
	require.NoError(t, items.Append(ctx, domain.ItemRecord{Item: "雨傘", Location: "門口", Owner: "我", Timestamp: "2025-04-30 09:00:00"}))

	require.NoError(t, s.SendDigest(ctx))
	require.Len(t, n.messages, 1)
	assert.Contains(t, n.messages[0], "2025-05-01")
	assert.Contains(t, n.messages[0], "我的鑰匙在玄關")
	assert.NotContains(t, n.messages[0], "雨傘")
}

func TestSendDigest_NotifierError(t *testing.T) {
	s, n, items := newTestScheduler(t, "")
	n.err = errors.New("pushover down")

	require.NoError(t, items.Append(context.Background(), domain.ItemRecord{Item: "鑰匙", Location: "玄關", Owner: "我", Timestamp: "2025-05-01 09:00:00"}))

	assert.ErrorContains(t, s.SendDigest(context.Background()), "pushover down")
}

func TestStart_InvalidSpec(t *testing.T) {
	s, _, _ := newTestScheduler(t, "not a cron spec")
	assert.Error(t, s.Start())
}

func TestStartStop(t *testing.T) {
	s, _, _ := newTestScheduler(t, DefaultSpec)
	require.NoError(t, s.Start())
	assert.Len(t, s.cron.Entries(), 1)
	s.Stop()
}
