package sessions

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisRepository implements Repository using Redis as the backing store.
// Sessions live under "<prefix><tokenHash>" with TTL = expiresAt - now, and
// each user's digests are tracked in the set "<prefix>user:<userID>".
type RedisRepository struct {
	client *redis.Client
	prefix string
}

// NewRedisRepository creates a Redis-based session repository. Prefix may be empty.
func NewRedisRepository(client *redis.Client, prefix string) *RedisRepository {
	if prefix == "" {
		prefix = "session:"
	}
	return &RedisRepository{client: client, prefix: prefix}
}

func (r *RedisRepository) key(hash string) string {
	return r.prefix + hash
}

func (r *RedisRepository) userKey(userID string) string {
	return r.prefix + "user:" + userID
}

func (r *RedisRepository) Create(ctx context.Context, s *Session) error {
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}
	b, err := json.Marshal(s)
	if err != nil {
		return err
	}
	exp := time.Until(s.ExpiresAt)
	if exp <= 0 {
		exp = time.Second
	}
	pipe := r.client.TxPipeline()
	pipe.Set(ctx, r.key(s.TokenHash), b, exp)
	pipe.SAdd(ctx, r.userKey(s.UserID), s.TokenHash)
	_, err = pipe.Exec(ctx)
	return err
}

func (r *RedisRepository) decode(b []byte, err error) (*Session, error) {
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	var s Session
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *RedisRepository) GetByHash(ctx context.Context, hash string) (*Session, error) {
	s, err := r.decode(r.client.Get(ctx, r.key(hash)).Bytes())
	if err != nil || s == nil {
		return nil, err
	}
	if s.Expired(time.Now().UTC()) {
		_ = r.DeleteByHash(ctx, hash)
		return nil, nil
	}
	return s, nil
}

// Take relies on GETDEL so only one caller observes the session.
func (r *RedisRepository) Take(ctx context.Context, hash string) (*Session, error) {
	s, err := r.decode(r.client.GetDel(ctx, r.key(hash)).Bytes())
	if err != nil || s == nil {
		return nil, err
	}
	_ = r.client.SRem(ctx, r.userKey(s.UserID), hash).Err()
	return s, nil
}

func (r *RedisRepository) DeleteByHash(ctx context.Context, hash string) error {
	_, err := r.Take(ctx, hash)
	return err
}

func (r *RedisRepository) DeleteByUser(ctx context.Context, userID string) error {
	hashes, err := r.client.SMembers(ctx, r.userKey(userID)).Result()
	if err != nil {
		return err
	}
	keys := make([]string, 0, len(hashes)+1)
	for _, h := range hashes {
		keys = append(keys, r.key(h))
	}
	keys = append(keys, r.userKey(userID))
	return r.client.Del(ctx, keys...).Err()
}
