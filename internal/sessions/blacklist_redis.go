package sessions

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// package-level Redis client used for token blacklist (optional)
var blacklistClient *redis.Client

// in-process fallback used when no Redis client is configured
var (
	localMu        sync.Mutex
	localBlacklist = map[string]time.Time{}
)

// SetBlacklistClient configures the Redis client used for blacklist operations.
// Passing nil switches back to the in-process blacklist.
func SetBlacklistClient(c *redis.Client) {
	blacklistClient = c
}

// revoked access tokens are keyed by digest so raw JWTs never reach the store
func blacklistKey(token string) string { return "blacklist:access:" + HashToken(token) }

// pruneLocal drops lapsed entries. Callers hold localMu.
func pruneLocal(now time.Time) {
	for k, until := range localBlacklist {
		if now.After(until) {
			delete(localBlacklist, k)
		}
	}
}

// BlacklistAccessToken revokes the access token for ttl (normally its remaining lifetime).
func BlacklistAccessToken(ctx context.Context, token string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if blacklistClient == nil {
		localMu.Lock()
		defer localMu.Unlock()
		now := time.Now()
		pruneLocal(now)
		localBlacklist[blacklistKey(token)] = now.Add(ttl)
		return nil
	}
	return blacklistClient.Set(ctx, blacklistKey(token), "1", ttl).Err()
}

// IsAccessTokenBlacklisted returns true when the token has been revoked and has not yet expired.
func IsAccessTokenBlacklisted(ctx context.Context, token string) (bool, error) {
	if blacklistClient == nil {
		localMu.Lock()
		defer localMu.Unlock()
		until, ok := localBlacklist[blacklistKey(token)]
		return ok && !time.Now().After(until), nil
	}
	exists, err := blacklistClient.Exists(ctx, blacklistKey(token)).Result()
	if err != nil {
		return false, err
	}
	return exists > 0, nil
}
