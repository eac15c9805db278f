package store

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"siteplan/internal/notify"

	"github.com/redis/go-redis/v9"
)

const defaultPreferenceTTL = time.Minute

// PreferenceCache is a read-through Redis cache in front of a preference
// source. Redis failures fall through to the source.
type PreferenceCache struct {
	Redis  *redis.Client
	Source notify.PreferenceSource
	TTL    time.Duration
	Logger *slog.Logger
}

func NewRedisClient(url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return redis.NewClient(opts), nil
}

func preferenceKey(userID string) string {
	return "siteplan:prefs:" + userID
}

func (c *PreferenceCache) Preferences(ctx context.Context, userID string) (notify.Preferences, error) {
	key := preferenceKey(userID)

	raw, err := c.Redis.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		if p, perr := notify.ParsePreferences(raw); perr == nil {
			return p, nil
		}
	case !errors.Is(err, redis.Nil):
		c.logger().Warn("preference cache read", "user_id", userID, "error", err)
	}

	p, err := c.Source.Preferences(ctx, userID)
	if err != nil {
		return notify.Preferences{}, err
	}

	b, err := json.Marshal(p)
	if err == nil {
		err = c.Redis.Set(ctx, key, b, c.ttl()).Err()
	}
	if err != nil {
		c.logger().Warn("preference cache write", "user_id", userID, "error", err)
	}
	return p, nil
}

func (c *PreferenceCache) ttl() time.Duration {
	if c.TTL <= 0 {
		return defaultPreferenceTTL
	}
	return c.TTL
}

func (c *PreferenceCache) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.Default()
	}
	return c.Logger
}
