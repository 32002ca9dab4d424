// Package backend holds the key-value contract the collaborative state is
// persisted through, and its client-side implementations.
//
// A backend stores one JSON document per record kind. Load returns a nil
// document (and no error) when nothing has been saved yet.
package backend

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/localnerve/chapterviewer/internal/types"
)

// ErrUnavailable marks failures talking to the backend. Callers degrade to
// cached or empty state on it.
var ErrUnavailable = errors.New("backend unavailable")

// KeyValue is the persistence contract of the collaborative state store.
type KeyValue interface {
	Load(ctx context.Context, kind types.Kind) (json.RawMessage, error)
	Save(ctx context.Context, kind types.Kind, data json.RawMessage) error
}

// Memory is an in-process KeyValue used offline and in tests.
type Memory struct {
	mu   sync.RWMutex
	docs map[types.Kind]json.RawMessage
}

// NewMemory returns an empty Memory backend.
func NewMemory() *Memory {
	return &Memory{docs: make(map[types.Kind]json.RawMessage)}
}

// Load implements KeyValue.
func (m *Memory) Load(ctx context.Context, kind types.Kind) (json.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	doc, ok := m.docs[kind]
	if !ok {
		return nil, nil
	}
	return append(json.RawMessage(nil), doc...), nil
}

// Save implements KeyValue.
func (m *Memory) Save(ctx context.Context, kind types.Kind, data json.RawMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[kind] = append(json.RawMessage(nil), data...)
	return nil
}
