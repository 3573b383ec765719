package storage

import (
	"context"
	"encoding/json"
	"time"

	"github.com/inventory-hub/internal/logging"
	"github.com/inventory-hub/internal/models"
)

// fallbackKeyPrefix namespaces snapshot keys in Redis
const fallbackKeyPrefix = "fallback:"

// FallbackStore keeps a durable snapshot of the last successfully
// fetched listing set per user, read only when the backing store is
// considered down.
//
// This is a best-effort convenience layer, not a correctness-critical
// store: write and read failures are logged and swallowed, never
// propagated to callers. Snapshots have no expiry; they are replaced on
// every successful full fetch and removed only by an explicit Clear.
type FallbackStore struct {
	redis *RedisCache

	// now is swappable for tests
	now func() time.Time
}

// NewFallbackStore creates a fallback store over the given Redis connection
func NewFallbackStore(redis *RedisCache) *FallbackStore {
	return &FallbackStore{
		redis: redis,
		now:   time.Now,
	}
}

func fallbackKey(userID string) string {
	return fallbackKeyPrefix + userID
}

// Save overwrites the user's snapshot with the given listings.
// Called opportunistically after every successful full network fetch.
func (s *FallbackStore) Save(ctx context.Context, userID string, listings []models.ListingSummary) {
	snapshot := models.FallbackSnapshot{
		Listings: listings,
		SavedAt:  s.now(),
	}

	data, err := json.Marshal(snapshot)
	if err != nil {
		logging.FromContext(ctx).WithError(err).Warn("Failed to serialize fallback snapshot")
		return
	}

	// Zero TTL: the snapshot persists until explicitly cleared.
	if err := s.redis.Set(ctx, fallbackKey(userID), data, 0); err != nil {
		logging.FromContext(ctx).WithError(err).Warn("Failed to save fallback snapshot")
	}
}

// Load returns the user's snapshot, nil if absent or unreadable
func (s *FallbackStore) Load(ctx context.Context, userID string) *models.FallbackSnapshot {
	data, err := s.redis.Get(ctx, fallbackKey(userID))
	if err != nil {
		if err.Error() != "redis: nil" {
			logging.FromContext(ctx).WithError(err).Warn("Failed to load fallback snapshot")
		}
		return nil
	}

	var snapshot models.FallbackSnapshot
	if err := json.Unmarshal([]byte(data), &snapshot); err != nil {
		logging.FromContext(ctx).WithError(err).Warn("Failed to decode fallback snapshot")
		return nil
	}

	return &snapshot
}

// Has reports whether a snapshot exists for the user
func (s *FallbackStore) Has(ctx context.Context, userID string) bool {
	exists, err := s.redis.Exists(ctx, fallbackKey(userID))
	if err != nil {
		logging.FromContext(ctx).WithError(err).Warn("Failed to check fallback snapshot")
		return false
	}
	return exists
}

// Clear removes the user's snapshot
func (s *FallbackStore) Clear(ctx context.Context, userID string) {
	if err := s.redis.Del(ctx, fallbackKey(userID)); err != nil {
		logging.FromContext(ctx).WithError(err).Warn("Failed to clear fallback snapshot")
	}
}
