package storage

import (
	"context"
	"fmt"
	"sync"

	"github.com/ctbkit/ctbkit/pkg/token/types"
)

// MemoryStore implements in-memory token record storage.
// This store is ephemeral and the record is lost when the process exits.
// It holds the encoded record so Load exercises the same decode path as
// the persistent backends.
type MemoryStore struct {
	mu     sync.RWMutex
	record string
	set    bool
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Save saves the token record to memory.
func (m *MemoryStore) Save(ctx context.Context, token *types.Token) error {
	if token == nil {
		return fmt.Errorf("token is nil")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.record = EncodeRecord(token)
	m.set = true
	return nil
}

// Load loads the token record from memory.
func (m *MemoryStore) Load(ctx context.Context) (*types.Token, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.set {
		return nil, ErrNotFound
	}

	return DecodeRecord(m.record)
}

// Delete deletes the token record from memory.
func (m *MemoryStore) Delete(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.record = ""
	m.set = false
	return nil
}

// SetRaw injects an encoded record directly, bypassing Save. It exists so
// callers can exercise recovery from records written by other producers.
func (m *MemoryStore) SetRaw(record string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.record = record
	m.set = true
}
