// Package cache implements a Redis read-through cache for weekly goals.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"resourceroom/internal/models"

	"github.com/redis/go-redis/v9"
)

var (
	// ErrCacheMiss is returned when the requested key is not cached
	ErrCacheMiss = errors.New("cache: key not found")

	// ErrCacheSerialization is returned when a cached value cannot be encoded or decoded
	ErrCacheSerialization = errors.New("cache: serialization failed")
)

// PrefixGoals namespaces weekly goal keys
const PrefixGoals = "goals:"

// DefaultTTL is used when no TTL is configured
const DefaultTTL = 10 * time.Minute

// GoalKey returns the base key for a teacher's goals in the week identified by weekKey
func GoalKey(teacherID, weekKey string) string {
	return fmt.Sprintf("%s%s:%s", PrefixGoals, teacherID, weekKey)
}

func versionKey(teacherID, weekKey string) string {
	return GoalKey(teacherID, weekKey) + ":version"
}

func entryKey(teacherID, weekKey string, version int64) string {
	return fmt.Sprintf("%s:v%d", GoalKey(teacherID, weekKey), version)
}

// GoalCache stores the active goals of a (teacher, week) pair as JSON
type GoalCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewGoalCache connects to the Redis server at redisURL (redis://host:port/db)
func NewGoalCache(ctx context.Context, redisURL string, ttl time.Duration) (*GoalCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return NewGoalCacheWithClient(client, ttl), nil
}

// NewGoalCacheWithClient wraps an existing client
func NewGoalCacheWithClient(client *redis.Client, ttl time.Duration) *GoalCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &GoalCache{client: client, ttl: ttl}
}

// Version returns the current generation of a (teacher, week) pair. Entries are stored
// per generation, so a fill computed before an Invalidate can never be served after it.
func (c *GoalCache) Version(ctx context.Context, teacherID, weekKey string) (int64, error) {
	v, err := c.client.Get(ctx, versionKey(teacherID, weekKey)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("cache version: %w", err)
	}
	return v, nil
}

// Get returns the goals cached for version or ErrCacheMiss
func (c *GoalCache) Get(ctx context.Context, teacherID, weekKey string, version int64) ([]models.WeeklyGoal, error) {
	data, err := c.client.Get(ctx, entryKey(teacherID, weekKey, version)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("cache get: %w", err)
	}

	var goals []models.WeeklyGoal
	if err := json.Unmarshal(data, &goals); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCacheSerialization, err)
	}
	return goals, nil
}

// Set caches goals under version for the configured TTL
func (c *GoalCache) Set(ctx context.Context, teacherID, weekKey string, version int64, goals []models.WeeklyGoal) error {
	data, err := json.Marshal(goals)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCacheSerialization, err)
	}
	if err := c.client.Set(ctx, entryKey(teacherID, weekKey, version), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

// Invalidate moves a (teacher, week) pair to a new generation. The version key outlives
// every entry written under the previous generation.
func (c *GoalCache) Invalidate(ctx context.Context, teacherID, weekKey string) error {
	key := versionKey(teacherID, weekKey)
	pipe := c.client.TxPipeline()
	pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, 2*c.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("cache invalidate: %w", err)
	}
	return nil
}

// Close closes the underlying client
func (c *GoalCache) Close() error {
	return c.client.Close()
}
