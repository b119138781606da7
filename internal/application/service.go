package application

import (
	"context"
	"log/slog"
	"time"

	"kebbi/internal/domain"
	"kebbi/internal/prompt"
	"kebbi/internal/textnorm"
)

// Acknowledgements returned for logging requests whatever the outcome.
const (
	AckItem     = "已記錄物品"
	AckSchedule = "已安排時程"
)

// Reply is the outcome of handling one utterance. OK is false when nothing
// was generated or stored; Text may still carry an acknowledgement.
type Reply struct {
	Intent domain.Intent
	Text   string
	OK     bool
}

// Service runs the chat, item and schedule handlers. Generation and parse
// failures never escape it: they are logged and the record is dropped.
type Service struct {
	gateway  *Gateway
	router   *Router
	logs     Logs
	observer Observer
	logger   *slog.Logger
	now      func() time.Time
}

func NewService(gateway *Gateway, logs Logs, observer Observer, logger *slog.Logger) *Service {
	if observer == nil {
		observer = NoopObserver{}
	}
	return &Service{
		gateway:  gateway,
		router:   NewRouter(gateway, logger),
		logs:     logs,
		observer: observer,
		logger:   logger,
		now:      time.Now,
	}
}

// SetClock replaces the time source used for record timestamps.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

func (s *Service) timestamp() string {
	return s.now().Format(domain.TimestampLayout)
}

// textOf normalizes speech-sourced text; typed text is used as is.
func (s *Service) textOf(u domain.Utterance) string {
	if u.FromSpeech() {
		return textnorm.Normalize(u.Text)
	}
	return u.Text
}

func (s *Service) Classify(ctx context.Context, u domain.Utterance) domain.Intent {
	intent := s.router.Classify(ctx, s.textOf(u))
	s.observer.IntentClassified(intent.Kind)
	return intent
}

// Handle classifies the utterance and dispatches it. Unrecognized intents
// are answered as chat.
func (s *Service) Handle(ctx context.Context, u domain.Utterance) Reply {
	text := s.textOf(u)
	if text == "" {
		s.logger.Info("ignoring empty utterance", "source", u.Source)
		return Reply{Intent: domain.Intent{Kind: domain.IntentUnrecognized}}
	}

	intent := s.router.Classify(ctx, text)
	s.observer.IntentClassified(intent.Kind)
	s.logger.Info("classified utterance", "intent", intent.Kind, "label", intent.Label())

	switch intent.Kind {
	case domain.IntentItem:
		_, ok := s.logItem(ctx, text)
		return Reply{Intent: intent, Text: AckItem, OK: ok}
	case domain.IntentSchedule:
		_, ok := s.logSchedule(ctx, text)
		return Reply{Intent: intent, Text: AckSchedule, OK: ok}
	case domain.IntentChat:
		reply, ok := s.chat(ctx, text)
		return Reply{Intent: intent, Text: reply, OK: ok}
	default:
		s.logger.Warn("unrecognized intent, answering as chat", "raw", intent.Raw)
		reply, ok := s.chat(ctx, text)
		return Reply{Intent: intent, Text: reply, OK: ok}
	}
}

// Chat answers the utterance in the tone matching its detected emotion.
// It returns false, and logs nothing, when generation fails.
func (s *Service) Chat(ctx context.Context, u domain.Utterance) (string, bool) {
	text := s.textOf(u)
	if text == "" {
		return "", false
	}
	return s.chat(ctx, text)
}

func (s *Service) chat(ctx context.Context, text string) (string, bool) {
	emotion := s.DetectEmotion(ctx, text)
	history := s.logs.Chats.Recent(ctx, prompt.ContextWindow)

	reply, ok := s.gateway.Generate(ctx, prompt.Chat(history, text, emotion))
	if !ok {
		s.observer.RecordDropped(CollectionChats, DropGeneration)
		return "", false
	}

	entry := domain.ChatLogEntry{
		Timestamp: s.timestamp(),
		User:      text,
		Response:  reply,
	}
	if err := s.logs.Chats.Append(ctx, entry); err != nil {
		s.logger.Error("storing chat entry", "error", err)
		s.observer.RecordDropped(CollectionChats, DropStorage)
	} else {
		s.observer.RecordStored(CollectionChats)
	}
	return reply, true
}

func (s *Service) DetectEmotion(ctx context.Context, text string) domain.Emotion {
	answer, ok := s.gateway.Generate(ctx, prompt.Emotion(text))
	if !ok {
		return domain.EmotionNeutral
	}
	return domain.ParseEmotion(answer)
}

// LogItem extracts and stores an item location. The bool reports whether a
// record was persisted.
func (s *Service) LogItem(ctx context.Context, u domain.Utterance) (domain.ItemRecord, bool) {
	text := s.textOf(u)
	if text == "" {
		return domain.ItemRecord{}, false
	}
	return s.logItem(ctx, text)
}

func (s *Service) logItem(ctx context.Context, text string) (domain.ItemRecord, bool) {
	reply, ok := s.gateway.Generate(ctx, prompt.ItemExtraction(text))
	if !ok {
		s.observer.RecordDropped(CollectionItems, DropGeneration)
		return domain.ItemRecord{}, false
	}

	rec, err := parseItem(reply)
	if err != nil {
		s.logger.Warn("could not parse item extraction", "reply", reply, "error", err)
		s.observer.RecordDropped(CollectionItems, DropMalformed)
		return domain.ItemRecord{}, false
	}
	rec.Timestamp = s.timestamp()

	if err := s.logs.Items.Append(ctx, rec); err != nil {
		s.logger.Error("storing item record", "error", err)
		s.observer.RecordDropped(CollectionItems, DropStorage)
		return rec, false
	}
	s.observer.RecordStored(CollectionItems)
	s.logger.Info("item logged", "item", rec.Item, "location", rec.Location, "owner", rec.Owner)
	return rec, true
}

// LogSchedule extracts and stores a schedule entry.
func (s *Service) LogSchedule(ctx context.Context, u domain.Utterance) (domain.ScheduleRecord, bool) {
	text := s.textOf(u)
	if text == "" {
		return domain.ScheduleRecord{}, false
	}
	return s.logSchedule(ctx, text)
}

func (s *Service) logSchedule(ctx context.Context, text string) (domain.ScheduleRecord, bool) {
	reply, ok := s.gateway.Generate(ctx, prompt.ScheduleExtraction(text))
	if !ok {
		s.observer.RecordDropped(CollectionSchedules, DropGeneration)
		return domain.ScheduleRecord{}, false
	}

	rec, err := parseSchedule(reply)
	if err != nil {
		s.logger.Warn("could not parse schedule extraction", "reply", reply, "error", err)
		s.observer.RecordDropped(CollectionSchedules, DropMalformed)
		return domain.ScheduleRecord{}, false
	}
	rec.Timestamp = s.timestamp()

	if err := s.logs.Schedules.Append(ctx, rec); err != nil {
		s.logger.Error("storing schedule record", "error", err)
		s.observer.RecordDropped(CollectionSchedules, DropStorage)
		return rec, false
	}
	s.observer.RecordStored(CollectionSchedules)
	s.logger.Info("schedule logged", "task", rec.Task, "time", rec.Time)
	return rec, true
}

func (s *Service) ChatHistory(ctx context.Context) []domain.ChatLogEntry {
	return s.logs.Chats.Load(ctx)
}

func (s *Service) Items(ctx context.Context) []domain.ItemRecord {
	return s.logs.Items.Load(ctx)
}

func (s *Service) Schedules(ctx context.Context) []domain.ScheduleRecord {
	return s.logs.Schedules.Load(ctx)
}
