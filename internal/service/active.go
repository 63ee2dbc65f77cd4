package service

import (
	"context"
	"sync"

	"github.com/PoluyanbIch/quizbot/internal/storage"
)

// ActiveStore holds at most one active question per chat.
type ActiveStore interface {
	Get(ctx context.Context, chatID int64) (storage.ActiveQuestion, bool, error)
	Put(ctx context.Context, chatID int64, q storage.ActiveQuestion) error
	Delete(ctx context.Context, chatID int64) error
}

// MemoryActiveStore keeps active questions in process memory; they are lost
// on restart.
type MemoryActiveStore struct {
	mu     sync.RWMutex
	active map[int64]storage.ActiveQuestion
}

func NewMemoryActiveStore() *MemoryActiveStore {
	return &MemoryActiveStore{active: make(map[int64]storage.ActiveQuestion)}
}

func (m *MemoryActiveStore) Get(_ context.Context, chatID int64) (storage.ActiveQuestion, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	q, ok := m.active[chatID]
	return q, ok, nil
}

func (m *MemoryActiveStore) Put(_ context.Context, chatID int64, q storage.ActiveQuestion) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.active[chatID] = q
	return nil
}

func (m *MemoryActiveStore) Delete(_ context.Context, chatID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.active, chatID)
	return nil
}
