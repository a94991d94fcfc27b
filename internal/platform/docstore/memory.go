package docstore

import (
	"context"
	"maps"
	"sync"

	"github.com/google/uuid"
)

// Memory is the in-process store used by tests and local development. It
// shares the snapshot hub with the Postgres implementation, so subscription
// behavior is identical.
type Memory struct {
	mu          sync.RWMutex
	collections map[string]map[string]map[string]any
	hub         *hub
}

func NewMemory() *Memory {
	m := &Memory{collections: make(map[string]map[string]map[string]any)}
	m.hub = newHub(m.loadCollection)
	return m
}

func (m *Memory) GetOne(_ context.Context, collection, id string) (Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.collections[collection][id]
	if !ok {
		return Document{}, ErrNotFound
	}
	return Document{ID: id, Data: maps.Clone(data)}, nil
}

func (m *Memory) CreateOrReplace(_ context.Context, collection, id string, data map[string]any) error {
	m.mu.Lock()
	if m.collections[collection] == nil {
		m.collections[collection] = make(map[string]map[string]any)
	}
	m.collections[collection][id] = maps.Clone(data)
	m.mu.Unlock()

	m.hub.notify(collection)
	return nil
}

func (m *Memory) Update(_ context.Context, collection, id string, patch map[string]any) error {
	m.mu.Lock()
	existing, ok := m.collections[collection][id]
	if !ok {
		m.mu.Unlock()
		return ErrNotFound
	}
	for k, v := range patch {
		existing[k] = v
	}
	m.mu.Unlock()

	m.hub.notify(collection)
	return nil
}

func (m *Memory) Delete(_ context.Context, collection, id string) error {
	m.mu.Lock()
	delete(m.collections[collection], id)
	m.mu.Unlock()

	m.hub.notify(collection)
	return nil
}

func (m *Memory) Add(ctx context.Context, collection string, data map[string]any) (string, error) {
	id := uuid.NewString()
	if err := m.CreateOrReplace(ctx, collection, id, data); err != nil {
		return "", err
	}
	return id, nil
}

func (m *Memory) Subscribe(q Query) *Subscription {
	return m.hub.subscribe(q)
}

func (m *Memory) Rebroadcast() {
	m.hub.rebroadcast()
}

func (m *Memory) loadCollection(_ context.Context, collection string) ([]Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	docs := make([]Document, 0, len(m.collections[collection]))
	for id, data := range m.collections[collection] {
		docs = append(docs, Document{ID: id, Data: maps.Clone(data)})
	}
	return docs, nil
}
