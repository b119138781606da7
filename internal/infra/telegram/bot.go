// Package telegram lets the assistant be used from a Telegram chat and
// delivers notifications there.
package telegram

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"kebbi/internal/application"
	"kebbi/internal/domain"
)

const (
	maxVoiceBytes = 20 << 20
	listLimit     = 10
)

type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type fileLocator interface {
	GetFileDirectURL(fileID string) (string, error)
}

type Options struct {
	Token string
	// APIEndpoint overrides the Bot API endpoint format, e.g. for a local
	// Bot API server.
	APIEndpoint  string
	AllowedChats []int64
	NotifyChat   int64
}

type Bot struct {
	api     *tgbotapi.BotAPI
	s       sender
	files   fileLocator
	service *application.Service
	stt     application.SpeechToText
	allowed map[int64]bool
	notify  int64
	http    *http.Client
	logger  *slog.Logger
}

func New(opts Options, service *application.Service, stt application.SpeechToText, logger *slog.Logger) (*Bot, error) {
	var (
		api *tgbotapi.BotAPI
		err error
	)
	if opts.APIEndpoint != "" {
		api, err = tgbotapi.NewBotAPIWithAPIEndpoint(opts.Token, opts.APIEndpoint)
	} else {
		api, err = tgbotapi.NewBotAPI(opts.Token)
	}
	if err != nil {
		return nil, fmt.Errorf("connecting to telegram: %w", err)
	}

	b := newBot(api, api, service, stt, opts, logger)
	b.api = api
	logger.Info("telegram bot authorized", "username", api.Self.UserName)
	return b, nil
}

func newBot(s sender, files fileLocator, service *application.Service, stt application.SpeechToText, opts Options, logger *slog.Logger) *Bot {
	allowed := make(map[int64]bool, len(opts.AllowedChats))
	for _, id := range opts.AllowedChats {
		allowed[id] = true
	}
	return &Bot{
		s:       s,
		files:   files,
		service: service,
		stt:     stt,
		allowed: allowed,
		notify:  opts.NotifyChat,
		http:    &http.Client{Timeout: 30 * time.Second},
		logger:  logger,
	}
}

func (b *Bot) Name() string {
	return "telegram"
}

// Run long-polls for updates until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	defer b.api.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return fmt.Errorf("telegram updates channel closed")
			}
			if update.Message != nil {
				b.handleMessage(ctx, update.Message)
			}
		}
	}
}

// Notify sends message to the configured notification chat. Without one it
// does nothing.
func (b *Bot) Notify(_ context.Context, message string) error {
	if b.notify == 0 {
		return nil
	}
	if _, err := b.s.Send(tgbotapi.NewMessage(b.notify, message)); err != nil {
		return fmt.Errorf("sending telegram notification: %w", err)
	}
	return nil
}

func (b *Bot) isAllowed(chatID int64) bool {
	return len(b.allowed) == 0 || b.allowed[chatID]
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.Chat == nil {
		return
	}
	chatID := msg.Chat.ID

	if !b.isAllowed(chatID) {
		b.logger.Warn("telegram message from unknown chat", "chat_id", chatID)
		b.sendMessage(chatID, "抱歉，這個聊天室沒有使用權限。")
		return
	}

	if msg.IsCommand() {
		b.handleCommand(ctx, chatID, msg.Command())
		return
	}

	var u domain.Utterance
	switch {
	case msg.Voice != nil:
		text, err := b.transcribeVoice(ctx, msg.Voice)
		if err != nil {
			b.logger.Error("transcribing telegram voice", "chat_id", chatID, "error", err)
			b.sendMessage(chatID, "抱歉，我聽不清楚，可以再說一次嗎？")
			return
		}
		b.logger.Info("transcribed telegram voice", "chat_id", chatID, "text", text)
		u = domain.NewSpeechUtterance(text)
	case strings.TrimSpace(msg.Text) != "":
		u = domain.NewTextUtterance(strings.TrimSpace(msg.Text))
	default:
		return
	}

	reply := b.service.Handle(ctx, u)
	if reply.Text == "" {
		b.sendMessage(chatID, "抱歉，我現在沒辦法回答。")
		return
	}
	b.sendMessage(chatID, reply.Text)
}

func (b *Bot) handleCommand(ctx context.Context, chatID int64, command string) {
	switch command {
	case "start", "help":
		b.sendMessage(chatID, "嗨！直接跟我聊天，或告訴我東西放在哪裡、要安排什麼行程。\n/items 最近記錄的物品\n/schedules 最近的行程\n/digest 今天的整理")
	case "items":
		items := b.service.Items(ctx)
		if len(items) == 0 {
			b.sendMessage(chatID, "還沒有記錄任何物品。")
			return
		}
		b.sendMessage(chatID, formatItems(tail(items, listLimit)))
	case "schedules":
		schedules := b.service.Schedules(ctx)
		if len(schedules) == 0 {
			b.sendMessage(chatID, "還沒有安排任何行程。")
			return
		}
		b.sendMessage(chatID, formatSchedules(tail(schedules, listLimit)))
	case "digest":
		b.sendMessage(chatID, b.service.BuildDigest(ctx, time.Now()).Summary())
	default:
		b.sendMessage(chatID, "不認識的指令，輸入 /help 看看可以做什麼。")
	}
}

func (b *Bot) transcribeVoice(ctx context.Context, voice *tgbotapi.Voice) (string, error) {
	url, err := b.files.GetFileDirectURL(voice.FileID)
	if err != nil {
		return "", fmt.Errorf("resolving voice file: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}

	resp, err := b.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("downloading voice: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("downloading voice: %s", resp.Status)
	}

	audio, err := io.ReadAll(io.LimitReader(resp.Body, maxVoiceBytes))
	if err != nil {
		return "", fmt.Errorf("reading voice: %w", err)
	}

	return b.stt.Transcribe(ctx, audio)
}

func (b *Bot) sendMessage(chatID int64, text string) {
	if _, err := b.s.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		b.logger.Error("sending telegram message", "chat_id", chatID, "error", err)
	}
}

func tail[T any](records []T, n int) []T {
	if len(records) > n {
		return records[len(records)-n:]
	}
	return records
}

func formatItems(items []domain.ItemRecord) string {
	var sb strings.Builder
	sb.WriteString("最近記錄的物品：")
	for _, it := range items {
		fmt.Fprintf(&sb, "\n- %s的%s在%s（%s）", it.Owner, it.Item, it.Location, it.Timestamp)
	}
	return sb.String()
}

func formatSchedules(schedules []domain.ScheduleRecord) string {
	var sb strings.Builder
	sb.WriteString("最近的行程：")
	for _, sc := range schedules {
		line := sc.Task
		if sc.Time != "" {
			line = sc.Time + " " + line
		}
		if sc.Place != "" {
			line += "（" + sc.Place + "）"
		}
		fmt.Fprintf(&sb, "\n- %s", line)
	}
	return sb.String()
}
