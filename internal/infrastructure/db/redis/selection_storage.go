package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/porchlite/porchlite/internal/core/ports"
)

// SelectionStorage persists selection keys for one device.
// Key format: porchlite:device:<device_id>:<key>
type SelectionStorage struct {
	client *redis.Client
	prefix string
}

var _ ports.SelectionStorage = (*SelectionStorage)(nil)

func NewSelectionStorage(client *redis.Client, deviceID string) *SelectionStorage {
	return &SelectionStorage{client: client, prefix: namespace(deviceID)}
}

func (s *SelectionStorage) Get(ctx context.Context, key string) (string, error) {
	v, err := s.client.Get(ctx, s.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ports.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get %s: %w", key, err)
	}
	return v, nil
}

func (s *SelectionStorage) Set(ctx context.Context, key, value string) error {
	if err := s.client.Set(ctx, s.prefix+key, value, 0).Err(); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

func (s *SelectionStorage) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = s.prefix + k
	}
	if err := s.client.Del(ctx, full...).Err(); err != nil {
		return fmt.Errorf("delete keys: %w", err)
	}
	return nil
}
