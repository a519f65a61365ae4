package repository

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"leadsync_backend/internal/leads/domain"
	"leadsync_backend/platform/config"
)

// RedisStore persists the full lead list as one JSON value under a single
// key. The list is small enough (single tenant) that whole-slot replacement
// is cheaper and simpler than per-record keys.
type RedisStore struct {
	client *redis.Client
	key    string
}

// NewRedisStore connects to Redis using the configured URL and verifies the
// connection with a ping.
func NewRedisStore(ctx context.Context, cfg config.RedisConfig) (*RedisStore, error) {
	if cfg.GetRedisURL() == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redis.ParseURL(cfg.GetRedisURL())
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	if cfg.GetRedisTLSInsecure() {
		if opt.TLSConfig != nil {
			opt.TLSConfig.InsecureSkipVerify = true
		} else {
			opt.TLSConfig = &tls.Config{InsecureSkipVerify: true}
		}
	}

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &RedisStore{client: client, key: cfg.GetLeadsStoreKey()}, nil
}

// NewRedisStoreWithClient wraps an existing client (used in tests).
func NewRedisStoreWithClient(client *redis.Client, key string) *RedisStore {
	return &RedisStore{client: client, key: key}
}

// Load reads the lead list from the slot. A missing key is an empty list.
func (s *RedisStore) Load(ctx context.Context) ([]domain.Lead, error) {
	raw, err := s.client.Get(ctx, s.key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load leads: %w", err)
	}

	var leads []domain.Lead
	if err := json.Unmarshal(raw, &leads); err != nil {
		return nil, fmt.Errorf("decode leads: %w", err)
	}
	return leads, nil
}

// Save serializes and writes the full lead list.
func (s *RedisStore) Save(ctx context.Context, leads []domain.Lead) error {
	raw, err := json.Marshal(leads)
	if err != nil {
		return fmt.Errorf("encode leads: %w", err)
	}
	if err := s.client.Set(ctx, s.key, raw, 0).Err(); err != nil {
		return fmt.Errorf("save leads: %w", err)
	}
	return nil
}

// Ping verifies the connection, used by the health endpoint.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close releases the underlying client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
