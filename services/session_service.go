package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const sessionKeyPrefix = "session_fp:"

// SessionGuard pins each session to the first device fingerprint seen for it.
type SessionGuard struct {
	Redis *redis.Client
	TTL   time.Duration
}

// Fingerprint hashes the device-identifying request attributes.
func Fingerprint(userAgent, acceptLanguage, deviceID string) string {
	sum := sha256.Sum256([]byte(strings.Join([]string{userAgent, acceptLanguage, deviceID}, "\x00")))
	return hex.EncodeToString(sum[:])
}

// Check records fingerprint for a new session and reports whether it matches
// the one already stored.
func (g *SessionGuard) Check(ctx context.Context, sessionID, fingerprint string) (bool, error) {
	key := sessionKeyPrefix + sessionID
	ttl := g.TTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	stored, err := g.Redis.SetNX(ctx, key, fingerprint, ttl).Result()
	if err != nil {
		return false, err
	}
	if stored {
		return true, nil
	}

	existing, err := g.Redis.Get(ctx, key).Result()
	if err != nil {
		return false, err
	}
	if existing != fingerprint {
		log.Printf("🚫 Fingerprint mismatch for session %s", sessionID)
		return false, nil
	}
	g.Redis.Expire(ctx, key, ttl)
	return true, nil
}

// Forget drops the pinned fingerprint, e.g. on sign-out.
func (g *SessionGuard) Forget(ctx context.Context, sessionID string) error {
	return g.Redis.Del(ctx, sessionKeyPrefix+sessionID).Err()
}
