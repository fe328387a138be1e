package users

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/abodd44/hashdocker-document-hub/internal/models"
)

// MemoryUserRepository keeps users for the lifetime of the process.
type MemoryUserRepository struct {
	mu    sync.RWMutex
	store map[string]*models.User
}

func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{store: make(map[string]*models.User)}
}

func clone(u *models.User) *models.User {
	c := *u
	c.Courses = append([]string(nil), u.Courses...)
	c.PasswordHash = append([]byte(nil), u.PasswordHash...)
	return &c
}

func (m *MemoryUserRepository) Create(ctx context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.store[u.ID]; ok {
		return ErrDuplicate
	}
	now := time.Now().UTC()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
	m.store[u.ID] = clone(u)
	return nil
}

func (m *MemoryUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if u, ok := m.store[id]; ok {
		return clone(u), nil
	}
	return nil, ErrNotFound
}

func (m *MemoryUserRepository) GetBySub(ctx context.Context, sub string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.store {
		if u.Sub != "" && u.Sub == sub {
			return clone(u), nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryUserRepository) UpsertBySub(ctx context.Context, u *models.User) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC()
	for _, existing := range m.store {
		if existing.Sub == u.Sub {
			refreshFromClaims(existing, u, now)
			return clone(existing), nil
		}
	}
	if existing, ok := m.store[u.ID]; ok {
		if existing.Sub != "" {
			return nil, ErrDuplicate
		}
		// local account signing in through SSO for the first time
		existing.Sub = u.Sub
		linkFromClaims(existing, u, now)
		return clone(existing), nil
	}
	u.CreatedAt = now
	u.UpdatedAt = now
	m.store[u.ID] = clone(u)
	return clone(u), nil
}

// refreshFromClaims copies the identity-provider profile onto an SSO account.
func refreshFromClaims(existing, u *models.User, now time.Time) {
	if u.Name != "" {
		existing.Name = u.Name
	}
	if u.Email != "" {
		existing.Email = u.Email
	}
	existing.UpdatedAt = now
}

// linkFromClaims fills only the profile fields a linked local account lacks.
func linkFromClaims(existing, u *models.User, now time.Time) {
	if existing.Name == "" {
		existing.Name = u.Name
	}
	if existing.Email == "" {
		existing.Email = u.Email
	}
	existing.UpdatedAt = now
}

func (m *MemoryUserRepository) ListByRole(ctx context.Context, role models.Role) ([]*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []*models.User{}
	for _, u := range m.store {
		if u.Role == role {
			out = append(out, clone(u))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemoryUserRepository) Update(ctx context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.store[u.ID]; !ok {
		return ErrNotFound
	}
	u.UpdatedAt = time.Now().UTC()
	m.store[u.ID] = clone(u)
	return nil
}

func (m *MemoryUserRepository) Count(ctx context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.store)), nil
}
