package utils

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const revokedKeyPrefix = "session:revoked:"

// TokenBlacklist remembers revoked session ids until their cookies expire.
// It prefers Redis so revocations are shared between instances and falls
// back to an in-process map when no client is configured.
type TokenBlacklist struct {
	rc *redis.Client

	mu      sync.RWMutex
	entries map[string]time.Time
}

// NewTokenBlacklist returns a blacklist backed by rc, or by memory when rc is nil.
func NewTokenBlacklist(rc *redis.Client) *TokenBlacklist {
	return &TokenBlacklist{rc: rc, entries: map[string]time.Time{}}
}

// Revoke blocks the session id until expiresAt.
func (b *TokenBlacklist) Revoke(ctx context.Context, id string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	if b.rc != nil {
		ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		return b.rc.Set(ctx, revokedKeyPrefix+id, "1", ttl).Err()
	}
	b.mu.Lock()
	b.cleanupLocked()
	b.entries[id] = expiresAt
	b.mu.Unlock()
	return nil
}

// IsRevoked checks whether the session id was revoked before natural expiration.
func (b *TokenBlacklist) IsRevoked(ctx context.Context, id string) bool {
	if b.rc != nil {
		ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		n, err := b.rc.Exists(ctx, revokedKeyPrefix+id).Result()
		if err != nil {
			// fail open: a Redis outage must not log everybody out
			return false
		}
		return n > 0
	}
	b.mu.RLock()
	expiresAt, ok := b.entries[id]
	b.mu.RUnlock()
	return ok && time.Now().Before(expiresAt)
}

func (b *TokenBlacklist) cleanupLocked() {
	now := time.Now()
	for id, exp := range b.entries {
		if now.After(exp) {
			delete(b.entries, id)
		}
	}
}
