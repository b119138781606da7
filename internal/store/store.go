// Package store persists the assistant's append-only logs: chat history,
// logged items and logged schedules.
package store

import (
	"context"
	"encoding/json"
	"fmt"
)

type Name string

const (
	ChatHistory Name = "chat_history"
	Items       Name = "items"
	Schedules   Name = "schedules"
)

// Backend stores ordered sequences of JSON records, one per collection name.
// Load returns records in append order.
type Backend interface {
	Load(ctx context.Context, name Name) ([]json.RawMessage, error)
	Append(ctx context.Context, name Name, record json.RawMessage) error
	Close() error
}

// Options selects and configures a backend.
type Options struct {
	Backend       string
	Dir           string
	SQLitePath    string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string
}

func Open(opts Options) (Backend, error) {
	switch opts.Backend {
	case "", "file":
		return NewFileBackend(opts.Dir)
	case "sqlite":
		return NewSQLiteBackend(opts.SQLitePath)
	case "redis":
		return NewRedisBackend(RedisConfig{
			Addr:     opts.RedisAddr,
			Password: opts.RedisPassword,
			DB:       opts.RedisDB,
			Prefix:   opts.RedisPrefix,
		})
	default:
		return nil, fmt.Errorf("unknown storage backend: %s", opts.Backend)
	}
}
