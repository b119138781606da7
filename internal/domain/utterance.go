package domain

import "time"

type Source string

const (
	SourceText   Source = "text"
	SourceSpeech Source = "speech"
)

// TextCommandPrefix is the marker used to indicate text commands (vs audio)
const TextCommandPrefix = "__TEXT__:"

// TimestampLayout is the format of every persisted timestamp, in local time.
const TimestampLayout = "2006-01-02 15:04:05"

type Utterance struct {
	Text       string
	Source     Source
	ReceivedAt time.Time
}

func NewTextUtterance(text string) Utterance {
	return Utterance{Text: text, Source: SourceText, ReceivedAt: time.Now()}
}

func NewSpeechUtterance(text string) Utterance {
	return Utterance{Text: text, Source: SourceSpeech, ReceivedAt: time.Now()}
}

func (u Utterance) FromSpeech() bool {
	return u.Source == SourceSpeech
}
