package repository

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/abodd44/hashdocker-document-hub/internal/document"
)

var (
	ErrNotFound  = errors.New("document not found")
	ErrDuplicate = errors.New("document already exists")
	// ErrConflict means the document changed since it was read.
	ErrConflict = errors.New("document was modified concurrently")
)

// Repository persists documents. List returns newest first.
type Repository interface {
	Create(ctx context.Context, d *document.Document) error
	Get(ctx context.Context, id string) (*document.Document, error)
	List(ctx context.Context, f document.Filter) ([]*document.Document, error)
	// Update writes d if the stored version still equals d.Version and
	// advances d.Version; otherwise it returns ErrConflict.
	Update(ctx context.Context, d *document.Document) error
	// SetConversion records a conversion outcome only while the document
	// still holds c.FileKey; otherwise it returns ErrNotFound.
	SetConversion(ctx context.Context, id string, c document.Conversion) error
	Delete(ctx context.Context, id string) error
}

// MemoryRepo is the in-process repository used without MongoDB and in tests.
type MemoryRepo struct {
	mu    sync.RWMutex
	store map[string]*document.Document
}

var _ Repository = (*MemoryRepo)(nil)

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{store: make(map[string]*document.Document)}
}

func (m *MemoryRepo) Create(ctx context.Context, d *document.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	if _, ok := m.store[d.ID]; ok {
		return ErrDuplicate
	}
	now := time.Now().UTC()
	if d.CreatedAt.IsZero() {
		d.CreatedAt = now
	}
	if d.UpdatedAt.IsZero() {
		d.UpdatedAt = d.CreatedAt
	}
	m.store[d.ID] = d.Clone()
	return nil
}

func (m *MemoryRepo) Get(ctx context.Context, id string) (*document.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if d, ok := m.store[id]; ok {
		return d.Clone(), nil
	}
	return nil, ErrNotFound
}

func (m *MemoryRepo) List(ctx context.Context, f document.Filter) ([]*document.Document, error) {
	m.mu.RLock()
	out := make([]*document.Document, 0, len(m.store))
	for _, d := range m.store {
		if f.Match(d) {
			out = append(out, d.Clone())
		}
	}
	m.mu.RUnlock()
	sortNewestFirst(out)
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (m *MemoryRepo) Update(ctx context.Context, d *document.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.store[d.ID]
	if !ok {
		return ErrNotFound
	}
	if cur.Version != d.Version {
		return ErrConflict
	}
	d.Version++
	d.UpdatedAt = time.Now().UTC()
	m.store[d.ID] = d.Clone()
	return nil
}

func (m *MemoryRepo) SetConversion(ctx context.Context, id string, c document.Conversion) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.store[id]
	if !ok || cur.FileKey != c.FileKey {
		return ErrNotFound
	}
	cur.ConversionStatus = c.Status
	if c.PreviewKey != "" {
		cur.PreviewKey = c.PreviewKey
		cur.PreviewType = c.PreviewType
	}
	cur.Version++
	return nil
}

func (m *MemoryRepo) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.store[id]; !ok {
		return ErrNotFound
	}
	delete(m.store, id)
	return nil
}

func sortNewestFirst(docs []*document.Document) {
	sort.SliceStable(docs, func(i, j int) bool {
		if docs[i].CreatedAt.Equal(docs[j].CreatedAt) {
			return docs[i].ID > docs[j].ID
		}
		return docs[i].CreatedAt.After(docs[j].CreatedAt)
	})
}
