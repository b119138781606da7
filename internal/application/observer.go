package application

import "kebbi/internal/domain"

// Collection labels reported to the Observer.
const (
	CollectionChats     = "chat_history"
	CollectionItems     = "items"
	CollectionSchedules = "schedules"
)

// Reasons a record was not stored.
const (
	DropGeneration = "generation_unavailable"
	DropMalformed  = "malformed_extraction"
	DropStorage    = "storage_error"
)

type Observer interface {
	IntentClassified(kind domain.IntentKind)
	RecordStored(collection string)
	RecordDropped(collection, reason string)
}

type NoopObserver struct{}

func (NoopObserver) IntentClassified(domain.IntentKind) {}
func (NoopObserver) RecordStored(string)                {}
func (NoopObserver) RecordDropped(string, string)       {}
