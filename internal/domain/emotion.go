package domain

import "strings"

type Emotion string

const (
	EmotionHappy   Emotion = "快樂"
	EmotionSad     Emotion = "悲傷"
	EmotionAngry   Emotion = "生氣"
	EmotionNeutral Emotion = "中性"
)

// ParseEmotion falls back to neutral for anything outside the four labels.
func ParseEmotion(raw string) Emotion {
	label := strings.Trim(strings.TrimSpace(raw), "「」\"'。.")
	switch e := Emotion(label); e {
	case EmotionHappy, EmotionSad, EmotionAngry, EmotionNeutral:
		return e
	default:
		return EmotionNeutral
	}
}
