package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
)

// Collection is a typed view over one backend collection.
type Collection[T any] struct {
	backend Backend
	name    Name
	logger  *slog.Logger
}

func NewCollection[T any](backend Backend, name Name, logger *slog.Logger) *Collection[T] {
	return &Collection[T]{
		backend: backend,
		name:    name,
		logger:  logger,
	}
}

func (c *Collection[T]) Name() Name {
	return c.name
}

// Load returns every record in append order. An unreadable collection is
// logged and treated as empty; records that no longer decode are skipped.
func (c *Collection[T]) Load(ctx context.Context) []T {
	raw, err := c.backend.Load(ctx, c.name)
	if err != nil {
		c.logger.Warn("collection unreadable, treating as empty", "collection", c.name, "error", err)
		return []T{}
	}

	out := make([]T, 0, len(raw))
	for i, r := range raw {
		var v T
		if err := json.Unmarshal(r, &v); err != nil {
			c.logger.Warn("skipping undecodable record", "collection", c.name, "index", i, "error", err)
			continue
		}
		out = append(out, v)
	}
	return out
}

// Recent returns at most n of the newest records, oldest first.
func (c *Collection[T]) Recent(ctx context.Context, n int) []T {
	all := c.Load(ctx)
	if n <= 0 {
		return []T{}
	}
	if len(all) > n {
		all = all[len(all)-n:]
	}
	return all
}

func (c *Collection[T]) Append(ctx context.Context, record T) error {
	raw, err := marshalRecord(record)
	if err != nil {
		return fmt.Errorf("encode %s record: %w", c.name, err)
	}
	if err := c.backend.Append(ctx, c.name, raw); err != nil {
		return fmt.Errorf("append to %s: %w", c.name, err)
	}
	return nil
}

// marshalRecord encodes without HTML escaping so stored text stays as typed.
func marshalRecord(v any) (json.RawMessage, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return json.RawMessage(bytes.TrimRight(buf.Bytes(), "\n")), nil
}
