package application_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kebbi/internal/domain"
)

func TestService_BuildDigest(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	require.NoError(t, f.items.Append(ctx, domain.ItemRecord{Item: "鑰匙", Location: "玄關", Owner: "我", Timestamp: "2025-05-01 09:00:00"}))
	require.NoError(t, f.items.Append(ctx, domain.ItemRecord{Item: "護照", Location: "抽屜", Owner: "我", Timestamp: "2025-04-30 09:00:00"}))
	require.NoError(t, f.schedules.Append(ctx, domain.ScheduleRecord{Task: "開會", Place: "公司", Time: "明天三點", Person: "老闆", Timestamp: "2025-05-01 10:00:00"}))
	require.NoError(t, f.chats.Append(ctx, domain.ChatLogEntry{Timestamp: "2025-05-01 11:00:00", User: "嗨", Response: "嗨"}))
	require.NoError(t, f.chats.Append(ctx, domain.ChatLogEntry{Timestamp: "2025-05-01 12:00:00", User: "餓了", Response: "去吃飯吧"}))

	d := f.service.BuildDigest(ctx, time.Date(2025, 5, 1, 21, 0, 0, 0, time.Local))

	assert.Equal(t, "2025-05-01", d.Date)
	assert.Len(t, d.Items, 1)
	assert.Len(t, d.Schedules, 1)
	assert.Equal(t, 2, d.Chats)
	assert.False(t, d.Empty())

	summary := d.Summary()
	assert.Contains(t, summary, "聊天 2 則，物品 1 筆，行程 1 筆")
	assert.Contains(t, summary, "我的鑰匙在玄關")
	assert.Contains(t, summary, "明天三點 開會（公司），和老闆")
	assert.NotContains(t, summary, "護照")
}

func TestService_BuildDigest_Empty(t *testing.T) {
	f := newFixture(t, nil)

	d := f.service.BuildDigest(context.Background(), fixedNow)
	assert.True(t, d.Empty())
	assert.Contains(t, d.Summary(), "聊天 0 則")
}
