// Package session is the Brain's Redis-backed per-invocation state: a
// short-TTL cache of each session's memory context (so messages of the
// same session within the TTL don't re-fetch it) and a place to persist
// the loop's planner feedback between replanning attempts. Namespacing
// and DB isolation follow the teacher's RedisClient wrapper.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/kuro-ai/brain/logging"
)

const namespace = "brain:session"

// Store wraps a go-redis client with the namespacing and TTL policy the
// adaptive loop and memory-context cache need.
type Store struct {
	client *redis.Client
	logger logging.Logger
}

// New parses redisURL and verifies connectivity with a short-lived ping.
func New(redisURL string, logger logging.Logger) (*Store, error) {
	if logger == nil {
		logger = &logging.NoOpLogger{}
	}

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("session: invalid redis url: %w", err)
	}
	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("session: connecting to redis: %w", err)
	}

	logger.Info("session store connected", map[string]interface{}{"namespace": namespace})
	return &Store{client: client, logger: logger}, nil
}

// Close releases the underlying Redis connection.
func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) key(parts ...string) string {
	key := namespace
	for _, p := range parts {
		key += ":" + p
	}
	return key
}

// MemoryContext is the cached shape of a memory-context lookup, keyed by
// session id with a short TTL so messages of the same session within the
// TTL don't repeatedly hit the memory subsystem.
type MemoryContext struct {
	Summaries []string `json:"summaries"`
}

// CacheMemoryContext stores ctx for sessionID for ttl.
func (s *Store) CacheMemoryContext(ctx context.Context, sessionID string, mc MemoryContext, ttl time.Duration) error {
	payload, err := json.Marshal(mc)
	if err != nil {
		return fmt.Errorf("session: marshal memory context: %w", err)
	}
	return s.client.Set(ctx, s.key("memctx", sessionID), payload, ttl).Err()
}

// GetMemoryContext returns the cached memory context for sessionID, if
// present and not expired.
func (s *Store) GetMemoryContext(ctx context.Context, sessionID string) (MemoryContext, bool, error) {
	raw, err := s.client.Get(ctx, s.key("memctx", sessionID)).Result()
	if err == redis.Nil {
		return MemoryContext{}, false, nil
	}
	if err != nil {
		return MemoryContext{}, false, fmt.Errorf("session: fetching memory context: %w", err)
	}
	var mc MemoryContext
	if err := json.Unmarshal([]byte(raw), &mc); err != nil {
		return MemoryContext{}, false, fmt.Errorf("session: decoding memory context: %w", err)
	}
	return mc, true, nil
}

// SetFeedback records the adaptive loop's latest insufficiency feedback
// for sessionID, so a concurrent lookup (e.g. a status endpoint) can
// observe which iteration the loop is on.
func (s *Store) SetFeedback(ctx context.Context, sessionID, feedback string, ttl time.Duration) error {
	return s.client.Set(ctx, s.key("feedback", sessionID), feedback, ttl).Err()
}

// GetFeedback returns the last recorded feedback for sessionID, if any.
func (s *Store) GetFeedback(ctx context.Context, sessionID string) (string, bool, error) {
	val, err := s.client.Get(ctx, s.key("feedback", sessionID)).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("session: fetching feedback: %w", err)
	}
	return val, true, nil
}
