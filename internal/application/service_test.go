package application_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kebbi/internal/application"
	"kebbi/internal/domain"
)

func TestService_LogItem_Scenario(t *testing.T) {
	f := newFixture(t, map[promptKind]scriptedReply{
		kindItem: {text: `{"item":"鑰匙","location":"玄關","owner":"我"}`},
	})

	rec, ok := f.service.LogItem(context.Background(), domain.NewTextUtterance("我的鑰匙放在玄關"))
	require.True(t, ok)

	want := domain.ItemRecord{Item: "鑰匙", Location: "玄關", Owner: "我", Timestamp: "2025-05-01 15:04:05"}
	assert.Equal(t, want, rec)

	stored := f.items.Load(context.Background())
	require.Len(t, stored, 1)
	assert.Equal(t, want, stored[0])
	assert.Contains(t, f.gen.promptsFor(kindItem)[0], "我的鑰匙放在玄關")
	assert.Equal(t, []string{application.CollectionItems}, f.observer.stored)
}

func TestService_LogItem_FencedReplyWithDefaultOwner(t *testing.T) {
	f := newFixture(t, map[promptKind]scriptedReply{
		kindItem: {text: "```json\n{\"item\":\"雨傘\",\"location\":\"門口\",\"owner\":\"\"}\n```"},
	})

	rec, ok := f.service.LogItem(context.Background(), domain.NewTextUtterance("雨傘在門口"))
	require.True(t, ok)
	assert.Equal(t, "雨傘", rec.Item)
	assert.Equal(t, domain.DefaultOwner, rec.Owner)
}

func TestService_LogItem_MalformedReplyIsDropped(t *testing.T) {
	f := newFixture(t, map[promptKind]scriptedReply{
		kindItem: {text: "I'm not sure"},
	})

	_, ok := f.service.LogItem(context.Background(), domain.NewTextUtterance("我的鑰匙放在玄關"))
	assert.False(t, ok)
	assert.Empty(t, f.items.Load(context.Background()))
	assert.Equal(t, []string{"items:" + application.DropMalformed}, f.observer.dropped)
}

func TestService_LogItem_GenerationFailure(t *testing.T) {
	f := newFixture(t, map[promptKind]scriptedReply{
		kindItem: {err: errUnavailable},
	})

	_, ok := f.service.LogItem(context.Background(), domain.NewTextUtterance("我的鑰匙放在玄關"))
	assert.False(t, ok)
	assert.Empty(t, f.items.Load(context.Background()))
	assert.Equal(t, []string{"items:" + application.DropGeneration}, f.observer.dropped)
}

func TestService_LogItem_NormalizesSpeech(t *testing.T) {
	f := newFixture(t, map[promptKind]scriptedReply{
		kindItem: {text: `{"item":"錢包","location":"桌上","owner":"我"}`},
	})

	_, ok := f.service.LogItem(context.Background(), domain.NewSpeechUtterance(" 錢包😀放在桌上~ "))
	require.True(t, ok)
	assert.Contains(t, f.gen.promptsFor(kindItem)[0], "「錢包放在桌上」")
}

func TestService_LogSchedule(t *testing.T) {
	f := newFixture(t, map[promptKind]scriptedReply{
		kindSchedule: {text: `{"task":"開會","location":"台北","place":"公司","time":"明天三點","person":"老闆"}`},
	})

	rec, ok := f.service.LogSchedule(context.Background(), domain.NewTextUtterance("明天三點要在公司和老闆開會"))
	require.True(t, ok)

	want := domain.ScheduleRecord{
		Task: "開會", Location: "台北", Place: "公司", Time: "明天三點", Person: "老闆",
		Timestamp: "2025-05-01 15:04:05",
	}
	assert.Equal(t, want, rec)
	assert.Equal(t, []domain.ScheduleRecord{want}, f.schedules.Load(context.Background()))
}

func TestService_LogSchedule_UnknownKeyIsDropped(t *testing.T) {
	f := newFixture(t, map[promptKind]scriptedReply{
		kindSchedule: {text: `{"task":"開會","date":"明天"}`},
	})

	_, ok := f.service.LogSchedule(context.Background(), domain.NewTextUtterance("明天開會"))
	assert.False(t, ok)
	assert.Empty(t, f.schedules.Load(context.Background()))
}

func TestService_Chat_LogsExchange(t *testing.T) {
	f := newFixture(t, map[promptKind]scriptedReply{
		kindEmotion: {text: "快樂"},
		kindChat:    {text: "  太好了，恭喜你！ \n"},
	})

	reply, ok := f.service.Chat(context.Background(), domain.NewTextUtterance("我考試過了"))
	require.True(t, ok)
	assert.Equal(t, "太好了，恭喜你！", reply)

	history := f.chats.Load(context.Background())
	require.Len(t, history, 1)
	assert.Equal(t, domain.ChatLogEntry{Timestamp: "2025-05-01 15:04:05", User: "我考試過了", Response: "太好了，恭喜你！"}, history[0])
	assert.Contains(t, f.gen.promptsFor(kindChat)[0], "開朗活潑")
}

func TestService_Chat_GenerationFailureLogsNothing(t *testing.T) {
	f := newFixture(t, map[promptKind]scriptedReply{
		kindEmotion: {text: "中性"},
		kindChat:    {err: errUnavailable},
	})

	reply, ok := f.service.Chat(context.Background(), domain.NewTextUtterance("你好"))
	assert.False(t, ok)
	assert.Empty(t, reply)
	assert.Empty(t, f.chats.Load(context.Background()))
}

func TestService_Chat_EmptyReplyIsNoResult(t *testing.T) {
	f := newFixture(t, map[promptKind]scriptedReply{
		kindEmotion: {text: "中性"},
		kindChat:    {text: "   "},
	})

	_, ok := f.service.Chat(context.Background(), domain.NewTextUtterance("你好"))
	assert.False(t, ok)
	assert.Empty(t, f.chats.Load(context.Background()))
}

func TestService_Chat_SadUsesComfortingToneAndRecentHistory(t *testing.T) {
	f := newFixture(t, map[promptKind]scriptedReply{
		kindEmotion: {text: "悲傷"},
		kindChat:    {text: "辛苦了，早點休息吧"},
	})
	ctx := context.Background()

	for _, e := range []domain.ChatLogEntry{
		{Timestamp: "t", User: "早安", Response: "早安呀"},
		{Timestamp: "t", User: "今天要加班", Response: "加油"},
		{Timestamp: "t", User: "老闆好兇", Response: "別太在意"},
		{Timestamp: "t", User: "終於下班了", Response: "辛苦了"},
	} {
		require.NoError(t, f.chats.Append(ctx, e))
	}

	_, ok := f.service.Chat(ctx, domain.NewTextUtterance("今天好累"))
	require.True(t, ok)

	chatPrompt := f.gen.promptsFor(kindChat)[0]
	assert.Contains(t, chatPrompt, "溫柔安慰")
	assert.NotContains(t, chatPrompt, "早安呀")
	assert.Contains(t, chatPrompt, "今天要加班")
	assert.Contains(t, chatPrompt, "終於下班了")
	assert.Contains(t, chatPrompt, "使用者：今天好累")
}

func TestService_Chat_EmotionFailureFallsBackToNeutral(t *testing.T) {
	f := newFixture(t, map[promptKind]scriptedReply{
		kindEmotion: {err: errUnavailable},
		kindChat:    {text: "嗯嗯"},
	})

	_, ok := f.service.Chat(context.Background(), domain.NewTextUtterance("隨便聊聊"))
	require.True(t, ok)
	assert.Contains(t, f.gen.promptsFor(kindChat)[0], "請用自然的語氣回應")
}

func TestService_Classify_ReturnsScheduleLabel(t *testing.T) {
	f := newFixture(t, map[promptKind]scriptedReply{
		kindIntent: {text: "安排時程"},
	})

	intent := f.service.Classify(context.Background(), domain.NewTextUtterance("明天三點要開會"))
	assert.Equal(t, domain.IntentSchedule, intent.Kind)
	assert.Equal(t, "安排時程", intent.Label())
	assert.Contains(t, f.gen.promptsFor(kindIntent)[0], "明天三點要開會")
	assert.Equal(t, []domain.IntentKind{domain.IntentSchedule}, f.observer.intents)
}

func TestService_Classify_GenerationFailure(t *testing.T) {
	f := newFixture(t, map[promptKind]scriptedReply{
		kindIntent: {err: errUnavailable},
	})

	intent := f.service.Classify(context.Background(), domain.NewTextUtterance("明天三點要開會"))
	assert.False(t, intent.Recognized())
}

func TestService_Handle_Dispatch(t *testing.T) {
	tests := []struct {
		name       string
		intent     string
		wantKind   domain.IntentKind
		wantText   string
		wantItems  int
		wantScheds int
		wantChats  int
	}{
		{name: "item", intent: "記錄物品", wantKind: domain.IntentItem, wantText: application.AckItem, wantItems: 1},
		{name: "schedule", intent: "安排時程", wantKind: domain.IntentSchedule, wantText: application.AckSchedule, wantScheds: 1},
		{name: "chat", intent: "聊天", wantKind: domain.IntentChat, wantText: "好喔", wantChats: 1},
		{name: "unrecognized falls back to chat", intent: "我不確定", wantKind: domain.IntentUnrecognized, wantText: "好喔", wantChats: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, map[promptKind]scriptedReply{
				kindIntent:   {text: tt.intent},
				kindEmotion:  {text: "中性"},
				kindChat:     {text: "好喔"},
				kindItem:     {text: `{"item":"鑰匙","location":"玄關","owner":"我"}`},
				kindSchedule: {text: `{"task":"開會","location":"","place":"","time":"明天三點","person":""}`},
			})
			ctx := context.Background()

			reply := f.service.Handle(ctx, domain.NewTextUtterance("隨便一句話"))
			assert.Equal(t, tt.wantKind, reply.Intent.Kind)
			assert.Equal(t, tt.wantText, reply.Text)
			assert.True(t, reply.OK)
			assert.Len(t, f.items.Load(ctx), tt.wantItems)
			assert.Len(t, f.schedules.Load(ctx), tt.wantScheds)
			assert.Len(t, f.chats.Load(ctx), tt.wantChats)
		})
	}
}

func TestService_Handle_ItemAckEvenWhenDropped(t *testing.T) {
	f := newFixture(t, map[promptKind]scriptedReply{
		kindIntent: {text: "記錄物品"},
		kindItem:   {text: "抱歉，我不知道"},
	})

	reply := f.service.Handle(context.Background(), domain.NewTextUtterance("東西放好了"))
	assert.Equal(t, application.AckItem, reply.Text)
	assert.False(t, reply.OK)
	assert.Empty(t, f.items.Load(context.Background()))
}

func TestService_Handle_EmptySpeechSkipsGeneration(t *testing.T) {
	f := newFixture(t, map[promptKind]scriptedReply{})

	reply := f.service.Handle(context.Background(), domain.NewSpeechUtterance("🎵🎵"))
	assert.False(t, reply.OK)
	assert.Empty(t, f.gen.promptsFor(kindIntent))
}
