package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kebbi/internal/domain"
)

func TestSQLiteBackend_AppendThenLoad(t *testing.T) {
	backend, err := NewSQLiteBackend(filepath.Join(t.TempDir(), "kebbi.db"))
	require.NoError(t, err)
	defer backend.Close()

	ctx := context.Background()
	schedules := NewCollection[domain.ScheduleRecord](backend, Schedules, discardLogger())
	items := NewCollection[domain.ItemRecord](backend, Items, discardLogger())

	assert.Empty(t, schedules.Load(ctx))

	first := domain.ScheduleRecord{Task: "開會", Time: "明天三點", Timestamp: "2025-05-01 10:00:00"}
	second := domain.ScheduleRecord{Task: "看牙醫", Place: "診所", Timestamp: "2025-05-01 11:00:00"}
	require.NoError(t, schedules.Append(ctx, first))
	require.NoError(t, schedules.Append(ctx, second))
	require.NoError(t, items.Append(ctx, domain.ItemRecord{Item: "傘"}))

	got := schedules.Load(ctx)
	require.Len(t, got, 2)
	assert.Equal(t, first, got[0])
	assert.Equal(t, second, got[1])

	assert.Len(t, items.Load(ctx), 1)
}

func TestSQLiteBackend_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kebbi.db")
	ctx := context.Background()

	backend, err := NewSQLiteBackend(path)
	require.NoError(t, err)
	chats := NewCollection[domain.ChatLogEntry](backend, ChatHistory, discardLogger())
	require.NoError(t, chats.Append(ctx, domain.ChatLogEntry{User: "今天好累", Response: "辛苦了"}))
	require.NoError(t, backend.Close())

	reopened, err := NewSQLiteBackend(path)
	require.NoError(t, err)
	defer reopened.Close()

	got := NewCollection[domain.ChatLogEntry](reopened, ChatHistory, discardLogger()).Load(ctx)
	require.Len(t, got, 1)
	assert.Equal(t, "辛苦了", got[0].Response)
}
