package stores

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/BagasRo/predictions"
)

// MemoryStore implements predictions.DocumentStore in-memory (for testing/dev).
// Documents are stored as encoded JSON so callers never share state with the
// store. See decodeDocument for how numbers come back.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string][]byte)}
}

func (m *MemoryStore) Set(ctx context.Context, id string, data predictions.Document) error {
	encoded, err := json.Marshal(data)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[id] = encoded
	return nil
}

func (m *MemoryStore) Get(ctx context.Context, id string) (predictions.Document, error) {
	m.mu.RLock()
	encoded, ok := m.docs[id]
	m.mu.RUnlock()
	if !ok {
		return nil, predictions.ErrNotFound
	}
	return decodeDocument(encoded)
}

func (m *MemoryStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.docs, id)
	return nil
}

// Len returns the number of stored documents.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.docs)
}

func (m *MemoryStore) Close() error {
	return nil
}

var _ predictions.DocumentStore = (*MemoryStore)(nil)
