package config

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sync"

	"github.com/redis/go-redis/v9"
)

// Store loads and saves settings. Implementations own persistence; the core
// never writes through this interface itself.
type Store interface {
	Load(ctx context.Context) (Config, error)
	Save(ctx context.Context, cfg Config) error
}

// ErrNoSaved signals that no settings have been persisted yet.
var ErrNoSaved = errors.New("config: no saved settings")

const redisKey = "pwb:config"

// RedisStore keeps the settings JSON under a single redis key.
type RedisStore struct {
	rdb *redis.Client
}

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func (s *RedisStore) Load(ctx context.Context) (Config, error) {
	cfg := Default()
	data, err := s.rdb.Get(ctx, redisKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return cfg, ErrNoSaved
	}
	if err != nil {
		return cfg, err
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Default(), err
	}
	return cfg, nil
}

func (s *RedisStore) Save(ctx context.Context, cfg Config) error {
	data, err := json.Marshal(cfg)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, redisKey, data, 0).Err()
}

// Manager hands out consistent snapshots of the current settings and funnels
// updates through the store.
type Manager struct {
	mu    sync.RWMutex
	cfg   Config
	store Store
}

// NewManager starts from cfg; if store is non-nil, previously saved settings
// are loaded over it.
func NewManager(ctx context.Context, cfg Config, store Store) *Manager {
	m := &Manager{cfg: cfg, store: store}
	if store != nil {
		saved, err := store.Load(ctx)
		switch {
		case err == nil:
			m.cfg = saved
		case errors.Is(err, ErrNoSaved):
			// First run, keep the provided config.
		default:
			log.Printf("playwithbilibili: config load: %v", err)
		}
	}
	return m
}

// Snapshot returns the current settings by value.
func (m *Manager) Snapshot() Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cfg
}

// Update applies a partial key-value patch and persists the result. The
// in-memory settings only change if every key applies cleanly.
func (m *Manager) Update(ctx context.Context, patch map[string]any) (Config, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	next := m.cfg
	for name, value := range patch {
		if err := next.Apply(name, value); err != nil {
			return m.cfg, err
		}
	}
	if m.store != nil {
		if err := m.store.Save(ctx, next); err != nil {
			return m.cfg, err
		}
	}
	m.cfg = next
	return next, nil
}
