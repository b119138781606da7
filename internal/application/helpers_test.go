package application_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"kebbi/internal/application"
	"kebbi/internal/domain"
	"kebbi/internal/store"
)

type promptKind string

const (
	kindIntent   promptKind = "intent"
	kindEmotion  promptKind = "emotion"
	kindItem     promptKind = "item"
	kindSchedule promptKind = "schedule"
	kindChat     promptKind = "chat"
)

var errUnavailable = errors.New("quota exceeded")

func kindOf(prompt string) promptKind {
	switch {
	case strings.Contains(prompt, "只回傳以下其中一項"):
		return kindIntent
	case strings.Contains(prompt, "情緒分析助手"):
		return kindEmotion
	case strings.Contains(prompt, "item：物品名稱"):
		return kindItem
	case strings.Contains(prompt, "task：要做的事"):
		return kindSchedule
	default:
		return kindChat
	}
}

type scriptedReply struct {
	text string
	err  error
}

// scriptedGenerator answers by prompt kind and records every prompt it saw.
type scriptedGenerator struct {
	mu      sync.Mutex
	replies map[promptKind]scriptedReply
	prompts map[promptKind][]string
}

func newScriptedGenerator(replies map[promptKind]scriptedReply) *scriptedGenerator {
	return &scriptedGenerator{
		replies: replies,
		prompts: make(map[promptKind][]string),
	}
}

func (g *scriptedGenerator) Generate(_ context.Context, prompt string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	kind := kindOf(prompt)
	g.prompts[kind] = append(g.prompts[kind], prompt)

	r, ok := g.replies[kind]
	if !ok {
		return "", errUnavailable
	}
	return r.text, r.err
}

func (g *scriptedGenerator) promptsFor(kind promptKind) []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.prompts[kind]...)
}

type recordingObserver struct {
	mu      sync.Mutex
	intents []domain.IntentKind
	stored  []string
	dropped []string
}

func (o *recordingObserver) IntentClassified(kind domain.IntentKind) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.intents = append(o.intents, kind)
}

func (o *recordingObserver) RecordStored(collection string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.stored = append(o.stored, collection)
}

func (o *recordingObserver) RecordDropped(collection, reason string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.dropped = append(o.dropped, collection+":"+reason)
}

type fixture struct {
	gen       *scriptedGenerator
	observer  *recordingObserver
	service   *application.Service
	chats     *store.Collection[domain.ChatLogEntry]
	items     *store.Collection[domain.ItemRecord]
	schedules *store.Collection[domain.ScheduleRecord]
}

var fixedNow = time.Date(2025, 5, 1, 15, 4, 5, 0, time.Local)

func newFixture(t *testing.T, replies map[promptKind]scriptedReply) *fixture {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	backend, err := store.NewFileBackend(t.TempDir())
	require.NoError(t, err)

	f := &fixture{
		gen:       newScriptedGenerator(replies),
		observer:  &recordingObserver{},
		chats:     store.NewCollection[domain.ChatLogEntry](backend, store.ChatHistory, logger),
		items:     store.NewCollection[domain.ItemRecord](backend, store.Items, logger),
		schedules: store.NewCollection[domain.ScheduleRecord](backend, store.Schedules, logger),
	}

	gateway := application.NewGateway(f.gen, time.Second, logger)
	f.service = application.NewService(gateway, application.Logs{
		Chats:     f.chats,
		Items:     f.items,
		Schedules: f.schedules,
	}, f.observer, logger)
	f.service.SetClock(func() time.Time { return fixedNow })

	return f
}
