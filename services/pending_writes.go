package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"luvlang_server/models"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const pendingKeyPrefix = "pending_writes:"

// PendingWriteQueue keeps profile writes that failed after their media was
// stored, one Redis list per user, so they can be replayed later.
type PendingWriteQueue struct {
	Redis       *redis.Client
	MaxAttempts int
	Now         func() time.Time
}

func pendingKey(userID string) string {
	return pendingKeyPrefix + userID
}

func (q *PendingWriteQueue) Enqueue(ctx context.Context, write models.PendingWrite) error {
	if write.ID == "" {
		write.ID = uuid.NewString()
	}
	if write.CreatedAt == "" {
		now := time.Now
		if q.Now != nil {
			now = q.Now
		}
		write.CreatedAt = now().UTC().Format(time.RFC3339)
	}
	payload, err := json.Marshal(write)
	if err != nil {
		return fmt.Errorf("failed to encode pending write: %w", err)
	}
	if err := q.Redis.RPush(ctx, pendingKey(write.UserID), payload).Err(); err != nil {
		return fmt.Errorf("failed to enqueue pending write: %w", err)
	}
	log.Printf("📥 Queued pending %s write for %s: %s", write.Kind, write.UserID, write.URL)
	return nil
}

// Pending lists the queued writes for a user without removing them.
func (q *PendingWriteQueue) Pending(ctx context.Context, userID string) ([]models.PendingWrite, error) {
	raw, err := q.Redis.LRange(ctx, pendingKey(userID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read pending writes: %w", err)
	}
	return decodePending(raw), nil
}

// Replay applies each queued write for the user. An entry leaves the list only
// once it has been applied, dropped, or re-queued with its attempt count
// bumped, so an error part way through leaves the rest queued. Writes that keep
// failing are dropped after MaxAttempts. apply must be idempotent: a write may
// already have landed.
func (q *PendingWriteQueue) Replay(ctx context.Context, userID string, apply func(context.Context, models.PendingWrite) error) (int, error) {
	key := pendingKey(userID)
	raw, err := q.Redis.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to read pending writes: %w", err)
	}

	applied := 0
	for _, entry := range raw {
		var write models.PendingWrite
		if err := json.Unmarshal([]byte(entry), &write); err != nil {
			log.Printf("⚠️ Removing undecodable pending write: %v", err)
			if err := q.Redis.LRem(ctx, key, 1, entry).Err(); err != nil {
				return applied, fmt.Errorf("failed to remove pending write: %w", err)
			}
			continue
		}

		applyErr := apply(ctx, write)
		if applyErr == nil {
			if err := q.Redis.LRem(ctx, key, 1, entry).Err(); err != nil {
				return applied, fmt.Errorf("failed to remove applied pending write: %w", err)
			}
			applied++
			continue
		}

		write.Attempts++
		if q.MaxAttempts > 0 && write.Attempts >= q.MaxAttempts {
			log.Printf("🗑️ Dropping pending write %s for %s after %d attempts: %v", write.ID, userID, write.Attempts, applyErr)
			if err := q.Redis.LRem(ctx, key, 1, entry).Err(); err != nil {
				return applied, fmt.Errorf("failed to drop pending write: %w", err)
			}
			continue
		}
		log.Printf("⚠️ Pending write %s for %s failed (attempt %d): %v", write.ID, userID, write.Attempts, applyErr)
		if err := q.requeue(ctx, key, entry, write); err != nil {
			return applied, err
		}
	}
	if applied > 0 {
		log.Printf("✅ Replayed %d pending writes for %s", applied, userID)
	}
	return applied, nil
}

// requeue swaps entry for the updated write at the tail in one transaction.
func (q *PendingWriteQueue) requeue(ctx context.Context, key, entry string, write models.PendingWrite) error {
	payload, err := json.Marshal(write)
	if err != nil {
		return fmt.Errorf("failed to encode pending write: %w", err)
	}
	_, err = q.Redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LRem(ctx, key, 1, entry)
		pipe.RPush(ctx, key, payload)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to requeue pending write: %w", err)
	}
	return nil
}

// Users lists every user with queued writes.
func (q *PendingWriteQueue) Users(ctx context.Context) ([]string, error) {
	var users []string
	iter := q.Redis.Scan(ctx, 0, pendingKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		users = append(users, strings.TrimPrefix(iter.Val(), pendingKeyPrefix))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan pending writes: %w", err)
	}
	return users, nil
}

func decodePending(raw []string) []models.PendingWrite {
	writes := make([]models.PendingWrite, 0, len(raw))
	for _, entry := range raw {
		var write models.PendingWrite
		if err := json.Unmarshal([]byte(entry), &write); err != nil {
			log.Printf("⚠️ Skipping undecodable pending write: %v", err)
			continue
		}
		writes = append(writes, write)
	}
	return writes
}
