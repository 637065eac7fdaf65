package persistence

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"

	"github.com/fieldday/combine/pkg/logger"
	"github.com/fieldday/combine/pkg/metrics"
)

// Key suffixes under {namespace}:{eventID}:.
const (
	keySelectedDrill    = "selectedDrill"
	keyRecentEntries    = "recentEntries"
	keyLocks            = "locks"
	keyReviewDismissed  = "reviewDismissed"
	keyLastPlayerNumber = "lastPlayerNumber"
)

// RedisStore implements SessionStore on top of redis.
type RedisStore struct {
	client    *redis.Client
	namespace string
	log       logger.Logger
}

// NewRedisStore creates a session store writing under the given namespace.
func NewRedisStore(client *redis.Client, namespace string) *RedisStore {
	return &RedisStore{
		client:    client,
		namespace: namespace,
		log:       logger.Named("persistence"),
	}
}

func (s *RedisStore) key(eventID, suffix string) string {
	return s.namespace + ":" + eventID + ":" + suffix
}

// Save writes all snapshot keys in one pipeline. Errors are logged and
// dropped so a flaky store cannot stall score entry.
func (s *RedisStore) Save(ctx context.Context, eventID string, snap Snapshot) {
	entries, err := json.Marshal(snap.RecentEntries)
	if err != nil {
		s.fail(ctx, eventID, err)
		return
	}
	locks, err := json.Marshal(snap.Locks)
	if err != nil {
		s.fail(ctx, eventID, err)
		return
	}
	dismissed, err := json.Marshal(snap.ReviewDismissed)
	if err != nil {
		s.fail(ctx, eventID, err)
		return
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.key(eventID, keySelectedDrill), snap.SelectedDrill, 0)
	pipe.Set(ctx, s.key(eventID, keyRecentEntries), entries, 0)
	pipe.Set(ctx, s.key(eventID, keyLocks), locks, 0)
	pipe.Set(ctx, s.key(eventID, keyReviewDismissed), dismissed, 0)
	pipe.Set(ctx, s.key(eventID, keyLastPlayerNumber), snap.LastPlayerNumber, 0)
	if _, err := pipe.Exec(ctx); err != nil {
		s.fail(ctx, eventID, err)
	}
}

// Load restores the snapshot. Individual unreadable keys fall back to their
// zero values; the snapshot counts as present when any key existed.
func (s *RedisStore) Load(ctx context.Context, eventID string) (Snapshot, bool) {
	vals, err := s.client.MGet(ctx,
		s.key(eventID, keySelectedDrill),
		s.key(eventID, keyRecentEntries),
		s.key(eventID, keyLocks),
		s.key(eventID, keyReviewDismissed),
		s.key(eventID, keyLastPlayerNumber),
	).Result()
	if err != nil {
		s.fail(ctx, eventID, err)
		return Snapshot{}, false
	}

	var snap Snapshot
	found := false

	if v, ok := vals[0].(string); ok {
		snap.SelectedDrill = v
		found = true
	}
	if v, ok := vals[1].(string); ok {
		found = true
		if err := json.Unmarshal([]byte(v), &snap.RecentEntries); err != nil {
			s.log.Warn(ctx, "discarding unreadable recent entries",
				logger.String("event_id", eventID),
				logger.Error(err))
		}
	}
	if v, ok := vals[2].(string); ok {
		found = true
		if err := json.Unmarshal([]byte(v), &snap.Locks); err != nil {
			snap.Locks = nil
		}
	}
	if v, ok := vals[3].(string); ok {
		found = true
		if err := json.Unmarshal([]byte(v), &snap.ReviewDismissed); err != nil {
			snap.ReviewDismissed = nil
		}
	}
	if v, ok := vals[4].(string); ok {
		snap.LastPlayerNumber = v
		found = true
	}

	return snap, found
}

// Clear drops all persisted state for an event.
func (s *RedisStore) Clear(ctx context.Context, eventID string) {
	err := s.client.Del(ctx,
		s.key(eventID, keySelectedDrill),
		s.key(eventID, keyRecentEntries),
		s.key(eventID, keyLocks),
		s.key(eventID, keyReviewDismissed),
		s.key(eventID, keyLastPlayerNumber),
	).Err()
	if err != nil {
		s.fail(ctx, eventID, err)
	}
}

func (s *RedisStore) fail(ctx context.Context, eventID string, err error) {
	metrics.RecordPersistFailure()
	s.log.Warn(ctx, "session persistence failed",
		logger.String("event_id", eventID),
		logger.Error(err))
}
