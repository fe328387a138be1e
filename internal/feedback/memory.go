package feedback

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

type MemoryRepository struct {
	mu    sync.RWMutex
	store map[string]*Feedback
}

var _ Repository = (*MemoryRepository)(nil)

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{store: make(map[string]*Feedback)}
}

func (m *MemoryRepository) Create(ctx context.Context, f *Feedback) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	if f.CreatedAt.IsZero() {
		f.CreatedAt = time.Now().UTC()
	}
	m.store[f.ID] = f.clone()
	return nil
}

func (m *MemoryRepository) Get(ctx context.Context, id string) (*Feedback, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	f, ok := m.store[id]
	if !ok {
		return nil, ErrNotFound
	}
	return f.clone(), nil
}

func (m *MemoryRepository) Update(ctx context.Context, f *Feedback) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.store[f.ID]; !ok {
		return ErrNotFound
	}
	m.store[f.ID] = f.clone()
	return nil
}

func (m *MemoryRepository) ListForUser(ctx context.Context, userID string) ([]*Feedback, error) {
	return m.filter(func(f *Feedback) bool { return f.SenderID == userID || f.ReceiverID == userID }), nil
}

func (m *MemoryRepository) ListUnread(ctx context.Context, receiverID string) ([]*Feedback, error) {
	return m.filter(func(f *Feedback) bool { return f.ReceiverID == receiverID && !f.Read }), nil
}

func (m *MemoryRepository) filter(keep func(*Feedback) bool) []*Feedback {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []*Feedback{}
	for _, f := range m.store {
		if keep(f) {
			out = append(out, f.clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}
