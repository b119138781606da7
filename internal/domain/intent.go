package domain

import "strings"

type IntentKind string

const (
	IntentItem         IntentKind = "item"
	IntentSchedule     IntentKind = "schedule"
	IntentChat         IntentKind = "chat"
	IntentUnrecognized IntentKind = "unrecognized"
)

// Labels the classifier is asked to answer with.
const (
	LabelItem     = "記錄物品"
	LabelSchedule = "安排時程"
	LabelChat     = "聊天"
)

var intentLabels = map[string]IntentKind{
	LabelItem:     IntentItem,
	LabelSchedule: IntentSchedule,
	LabelChat:     IntentChat,
}

// Intent is the classified purpose of an utterance. Raw holds the model's
// answer as received.
type Intent struct {
	Kind IntentKind
	Raw  string
}

// ParseIntent maps a classifier answer onto the closed intent set. Decoration
// the model tends to add (list dashes, quotes, trailing punctuation) is
// ignored; any other answer is IntentUnrecognized.
func ParseIntent(raw string) Intent {
	label := strings.TrimSpace(raw)
	label = strings.TrimLeft(label, "-*• ")
	label = strings.Trim(label, " \t\r\n「」『』\"'`“”")
	label = strings.TrimRight(label, "。.!！?？")
	label = strings.TrimSpace(label)

	if kind, ok := intentLabels[label]; ok {
		return Intent{Kind: kind, Raw: raw}
	}
	return Intent{Kind: IntentUnrecognized, Raw: raw}
}

func (i Intent) Recognized() bool {
	return i.Kind != IntentUnrecognized
}

// Label returns the canonical label for recognized intents and the raw
// answer otherwise.
func (i Intent) Label() string {
	switch i.Kind {
	case IntentItem:
		return LabelItem
	case IntentSchedule:
		return LabelSchedule
	case IntentChat:
		return LabelChat
	default:
		return strings.TrimSpace(i.Raw)
	}
}
