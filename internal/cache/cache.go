package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/redis/go-redis/v9"

	"github.com/XavierBriggs/Pallas/pkg/models"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Cache keeps the last seen version of every fixture in Redis so a refresh
// can tell which results actually changed, plus a full fixture snapshot per
// competition used to seed the store on startup.
type Cache struct {
	redis *redis.Client
	ttl   time.Duration
}

// NewCache creates a new fixture cache
func NewCache(redisClient *redis.Client, ttl time.Duration) *Cache {
	return &Cache{
		redis: redisClient,
		ttl:   ttl,
	}
}

// DetectChanges compares fixtures against the cache and returns only the
// ones that are new or differ from their cached version
func (c *Cache) DetectChanges(ctx context.Context, competition string, matches []models.Match) ([]models.Change, error) {
	if len(matches) == 0 {
		return nil, nil
	}

	keys := make([]string, len(matches))
	for i, m := range matches {
		keys[i] = c.fixtureKey(competition, m)
	}

	cachedValues, err := c.redis.MGet(ctx, keys...).Result()
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("redis mget: %w", err)
	}

	changes := make([]models.Change, 0, len(matches))
	for i, m := range matches {
		changeType, previous := c.compareMatch(m, cachedValues[i])
		if changeType == models.ChangeTypeNone {
			continue
		}
		changes = append(changes, models.Change{
			Match:      m,
			ChangeType: changeType,
			Previous:   previous,
		})
	}

	return changes, nil
}

// UpdateCache writes the given fixtures to the cache (write-through)
func (c *Cache) UpdateCache(ctx context.Context, competition string, matches []models.Match) error {
	if len(matches) == 0 {
		return nil
	}

	pipe := c.redis.Pipeline()
	for _, m := range matches {
		data, err := json.Marshal(m)
		if err != nil {
			return fmt.Errorf("marshal cached match: %w", err)
		}
		pipe.Set(ctx, c.fixtureKey(competition, m), data, c.ttl)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis pipeline exec: %w", err)
	}

	return nil
}

// SaveSnapshot stores the complete fixture list of a competition
func (c *Cache) SaveSnapshot(ctx context.Context, competition string, matches []models.Match) error {
	data, err := json.Marshal(matches)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	if err := c.redis.Set(ctx, c.snapshotKey(competition), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set snapshot: %w", err)
	}

	return nil
}

// LoadSnapshot returns the stored fixture list, or ok=false when none exists
func (c *Cache) LoadSnapshot(ctx context.Context, competition string) ([]models.Match, bool, error) {
	data, err := c.redis.Get(ctx, c.snapshotKey(competition)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get snapshot: %w", err)
	}

	var matches []models.Match
	if err := json.Unmarshal(data, &matches); err != nil {
		return nil, false, fmt.Errorf("parse snapshot: %w", err)
	}

	return matches, true, nil
}

// fixtureKey creates a Redis key for a fixture
// Format: fixtures:current:{competition}:{home}:{away}:{match_date}
func (c *Cache) fixtureKey(competition string, m models.Match) string {
	return fmt.Sprintf("fixtures:current:%s:%s", competition, m.Key())
}

// snapshotKey format: fixtures:snapshot:{competition}
func (c *Cache) snapshotKey(competition string) string {
	return fmt.Sprintf("fixtures:snapshot:%s", competition)
}

// compareMatch compares a fixture against its cached value
func (c *Cache) compareMatch(m models.Match, cachedValue interface{}) (models.ChangeType, *models.Match) {
	if cachedValue == nil {
		return models.ChangeTypeNew, nil
	}

	cachedStr, ok := cachedValue.(string)
	if !ok {
		// Cache corruption, treat as new
		return models.ChangeTypeNew, nil
	}

	var cached models.Match
	if err := json.Unmarshal([]byte(cachedStr), &cached); err != nil {
		return models.ChangeTypeNew, nil
	}

	if !m.SameResult(cached) {
		return models.ChangeTypeResult, &cached
	}

	if m.Stadium != cached.Stadium {
		return models.ChangeTypeVenue, &cached
	}

	return models.ChangeTypeNone, nil
}
