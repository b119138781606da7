package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"kebbi/internal/domain"
)

func TestParseIntent(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want domain.IntentKind
	}{
		{name: "item", raw: "記錄物品", want: domain.IntentItem},
		{name: "schedule", raw: "安排時程", want: domain.IntentSchedule},
		{name: "chat", raw: "聊天", want: domain.IntentChat},
		{name: "trailing newline", raw: "安排時程\n", want: domain.IntentSchedule},
		{name: "list dash", raw: "- 記錄物品", want: domain.IntentItem},
		{name: "quoted", raw: "「聊天」", want: domain.IntentChat},
		{name: "trailing period", raw: "安排時程。", want: domain.IntentSchedule},
		{name: "free text", raw: "我覺得是聊天吧", want: domain.IntentUnrecognized},
		{name: "empty", raw: "", want: domain.IntentUnrecognized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := domain.ParseIntent(tt.raw)
			assert.Equal(t, tt.want, got.Kind)
			assert.Equal(t, tt.raw, got.Raw)
		})
	}
}

func TestIntent_Label(t *testing.T) {
	assert.Equal(t, domain.LabelSchedule, domain.ParseIntent(" 安排時程 ").Label())

	unknown := domain.ParseIntent("不知道")
	assert.False(t, unknown.Recognized())
	assert.Equal(t, "不知道", unknown.Label())
}

func TestParseEmotion(t *testing.T) {
	assert.Equal(t, domain.EmotionSad, domain.ParseEmotion("悲傷"))
	assert.Equal(t, domain.EmotionHappy, domain.ParseEmotion(" 快樂。"))
	assert.Equal(t, domain.EmotionNeutral, domain.ParseEmotion("有點累"))
	assert.Equal(t, domain.EmotionNeutral, domain.ParseEmotion(""))
}
