package cache

import (
	"context"
	"errors"
	"log"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "pwb:video:"

// RedisStore persists selections in redis so they survive restarts.
type RedisStore struct {
	rdb *redis.Client
}

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func (s *RedisStore) Get(ctx context.Context, key string) (string, error) {
	id, err := s.rdb.Get(ctx, redisKeyPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return id, nil
}

func (s *RedisStore) Set(ctx context.Context, key, videoID string) error {
	// Selections have no natural expiry; a track keeps its video.
	return s.rdb.Set(ctx, redisKeyPrefix+key, videoID, 0).Err()
}

func logf(format string, args ...any) {
	log.Printf("playwithbilibili: "+format, args...)
}
