package sessions

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"time"
)

// Service issues, rotates and revokes refresh sessions.
type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(r Repository) *Service {
	return &Service{repo: r, now: func() time.Time { return time.Now().UTC() }}
}

func newRefreshToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// CreateSession stores a new refresh session for userID and returns the raw refresh token.
func (s *Service) CreateSession(ctx context.Context, userID string, ttl time.Duration) (string, error) {
	raw, err := newRefreshToken()
	if err != nil {
		return "", err
	}
	now := s.now()
	sess := &Session{
		TokenHash: HashToken(raw),
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
	if err := s.repo.Create(ctx, sess); err != nil {
		return "", err
	}
	return raw, nil
}

// ValidateRefresh returns the session if refresh token is valid and not expired
func (s *Service) ValidateRefresh(ctx context.Context, refresh string) (*Session, error) {
	if refresh == "" {
		return nil, nil
	}
	hash := HashToken(refresh)
	sess, err := s.repo.GetByHash(ctx, hash)
	if err != nil || sess == nil {
		return nil, err
	}
	if sess.Expired(s.now()) {
		_ = s.repo.DeleteByHash(ctx, hash)
		return nil, nil
	}
	return sess, nil
}

// Rotate spends a refresh token and issues a new one for the same user.
// A token can be spent once; concurrent rotations of it yield one winner.
// Returns an empty token and nil session when refresh is unknown, spent or expired.
func (s *Service) Rotate(ctx context.Context, refresh string, ttl time.Duration) (string, *Session, error) {
	if refresh == "" {
		return "", nil, nil
	}
	sess, err := s.repo.Take(ctx, HashToken(refresh))
	if err != nil || sess == nil {
		return "", nil, err
	}
	if sess.Expired(s.now()) {
		return "", nil, nil
	}
	next, err := s.CreateSession(ctx, sess.UserID, ttl)
	if err != nil {
		return "", nil, err
	}
	return next, sess, nil
}

func (s *Service) DeleteRefresh(ctx context.Context, refresh string) error {
	if refresh == "" {
		return nil
	}
	return s.repo.DeleteByHash(ctx, HashToken(refresh))
}

// DeleteUserSessions signs a user out everywhere.
func (s *Service) DeleteUserSessions(ctx context.Context, userID string) error {
	return s.repo.DeleteByUser(ctx, userID)
}
