package marketcap

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"
)

// RedisStore mirrors built indexes to Redis. Values are stored without
// expiry: the point of the mirror is serving stale data when the upstream is
// down, so an old value is still better than none.
type RedisStore struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisStore creates a store on an existing client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{
		client:    client,
		keyPrefix: "fundscreen:",
	}
}

// Load fetches and decodes a mirrored index. A missing key is an error; the
// cache treats any Load error as "nothing available".
func (s *RedisStore) Load(ctx context.Context, key string) (Index, error) {
	raw, err := s.client.Get(ctx, s.keyPrefix+key).Bytes()
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}

	var idx Index
	if err := json.Unmarshal(raw, &idx); err != nil {
		return nil, fmt.Errorf("redis decode %s: %w", key, err)
	}
	return idx, nil
}

// Save mirrors an index.
func (s *RedisStore) Save(ctx context.Context, key string, idx Index) error {
	raw, err := json.Marshal(idx)
	if err != nil {
		return fmt.Errorf("redis encode %s: %w", key, err)
	}
	if err := s.client.Set(ctx, s.keyPrefix+key, raw, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}
