package sessions

import (
	"context"
	"sync"
	"time"
)

// MemoryRepository keeps sessions in process memory when neither Redis nor MongoDB is configured.
type MemoryRepository struct {
	mu     sync.Mutex
	byHash map[string]Session
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{byHash: make(map[string]Session)}
}

func (m *MemoryRepository) Create(ctx context.Context, s *Session) error {
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byHash[s.TokenHash] = *s
	return nil
}

func (m *MemoryRepository) GetByHash(ctx context.Context, hash string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.byHash[hash]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (m *MemoryRepository) Take(ctx context.Context, hash string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.byHash[hash]
	if !ok {
		return nil, nil
	}
	delete(m.byHash, hash)
	return &s, nil
}

func (m *MemoryRepository) DeleteByHash(ctx context.Context, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.byHash, hash)
	return nil
}

// DeleteByUser drops every session of userID.
func (m *MemoryRepository) DeleteByUser(ctx context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, s := range m.byHash {
		if s.UserID == userID {
			delete(m.byHash, k)
		}
	}
	return nil
}
