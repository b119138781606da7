// Package prompt builds the prompts sent to the generation service. Every
// builder is a pure function of its inputs.
package prompt

import (
	"fmt"
	"strings"

	"kebbi/internal/domain"
)

// ContextWindow is how many past exchanges the chat prompt carries.
const ContextWindow = 3

var tones = map[domain.Emotion]string{
	domain.EmotionHappy:   "開朗活潑",
	domain.EmotionSad:     "溫柔安慰",
	domain.EmotionAngry:   "穩定理性",
	domain.EmotionNeutral: "自然",
}

// Tone returns the tone directive for an emotion, neutral for unknown ones.
func Tone(e domain.Emotion) string {
	if t, ok := tones[e]; ok {
		return t
	}
	return tones[domain.EmotionNeutral]
}

func Intent(text string) string {
	return fmt.Sprintf(`請根據句子判斷使用者想做什麼動作，只回傳以下其中一項（不得自由發揮）：
- %s
- %s
- %s
句子：「%s」`, domain.LabelItem, domain.LabelSchedule, domain.LabelChat, text)
}

func Emotion(text string) string {
	return fmt.Sprintf(`你是一個情緒分析助手，請從以下句子中判斷使用者的情緒，並只回覆「%s」、「%s」、「%s」或「%s」其中一種。
句子：「%s」`, domain.EmotionHappy, domain.EmotionSad, domain.EmotionAngry, domain.EmotionNeutral, text)
}

// Chat renders the last ContextWindow exchanges of history followed by the new
// utterance and the reply instructions.
func Chat(history []domain.ChatLogEntry, text string, emotion domain.Emotion) string {
	if len(history) > ContextWindow {
		history = history[len(history)-ContextWindow:]
	}

	var b strings.Builder
	for _, h := range history {
		fmt.Fprintf(&b, "使用者：%s\nAI：%s\n", h.User, h.Response)
	}
	fmt.Fprintf(&b, "使用者：%s\n", text)
	b.WriteString("你是一個親切自然、會說口語中文的朋友型機器人，請根據上面的對話與語氣，給出一段自然的中文回應。\n")
	b.WriteString("請避免列點、格式化、過於正式的用詞，不要教學語氣，也不要問太多問題，只需回一句自然的回答即可。\n")
	fmt.Fprintf(&b, "請用%s的語氣回應，直接說中文：", Tone(emotion))
	return b.String()
}

func ItemExtraction(text string) string {
	return fmt.Sprintf(`請從下面這句話中擷取出下列資訊，只回覆一個 JSON 物件，不要加任何說明：
- item：物品名稱
- location：放置位置
- owner：誰的（如果沒提到就填「%s」）
JSON 只能包含 item、location、owner 三個字串欄位。
句子：「%s」`, domain.DefaultOwner, text)
}

func ScheduleExtraction(text string) string {
	return fmt.Sprintf(`請從下列句子中擷取資訊，只回覆一個 JSON 物件，不要加任何說明：
- task：要做的事
- location：地區或城市
- place：地點
- time：時間
- person：相關的人
JSON 只能包含 task、location、place、time、person 五個字串欄位，沒提到的欄位填空字串。
句子：「%s」`, text)
}
