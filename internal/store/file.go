package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileBackend keeps each collection as one indented JSON array on disk.
// Writes to a collection are serialized; a save replaces the whole file via
// rename so readers see either the old or the new document.
type FileBackend struct {
	dir string

	mu    sync.Mutex
	locks map[Name]*sync.Mutex
}

func NewFileBackend(dir string) (*FileBackend, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure data dir: %w", err)
	}
	return &FileBackend{
		dir:   dir,
		locks: make(map[Name]*sync.Mutex),
	}, nil
}

func (b *FileBackend) Path(name Name) string {
	return filepath.Join(b.dir, string(name)+".json")
}

// Load never fails on a missing, unreadable or malformed file; the collection
// is simply treated as empty.
func (b *FileBackend) Load(_ context.Context, name Name) ([]json.RawMessage, error) {
	return b.load(name), nil
}

func (b *FileBackend) Save(_ context.Context, name Name, records []json.RawMessage) error {
	lock := b.lockFor(name)
	lock.Lock()
	defer lock.Unlock()
	return b.save(name, records)
}

func (b *FileBackend) Append(_ context.Context, name Name, record json.RawMessage) error {
	lock := b.lockFor(name)
	lock.Lock()
	defer lock.Unlock()

	records := b.load(name)
	records = append(records, record)
	return b.save(name, records)
}

func (b *FileBackend) Close() error {
	return nil
}

func (b *FileBackend) lockFor(name Name) *sync.Mutex {
	b.mu.Lock()
	defer b.mu.Unlock()
	l, ok := b.locks[name]
	if !ok {
		l = &sync.Mutex{}
		b.locks[name] = l
	}
	return l
}

func (b *FileBackend) load(name Name) []json.RawMessage {
	data, err := os.ReadFile(b.Path(name))
	if err != nil {
		return []json.RawMessage{}
	}
	var records []json.RawMessage
	if err := json.Unmarshal(data, &records); err != nil {
		// empty or malformed -> start fresh
		return []json.RawMessage{}
	}
	if records == nil {
		return []json.RawMessage{}
	}
	return records
}

func (b *FileBackend) save(name Name, records []json.RawMessage) error {
	if records == nil {
		records = []json.RawMessage{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}

	path := b.Path(name)
	tmp, err := os.CreateTemp(b.dir, "."+string(name)+"-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", name, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("replace %s: %w", name, err)
	}
	return nil
}
