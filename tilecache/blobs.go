package tilecache

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// BlobStore keeps rendered tile images in redis.
type BlobStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, blob []byte, ttl time.Duration) error
	Flush(ctx context.Context) error
}

type redisBlobStore struct {
	client *redis.Client
}

func NewRedisBlobStore(client *redis.Client) BlobStore {
	return &redisBlobStore{client: client}
}

// Get returns nil without error when the key is absent.
func (s *redisBlobStore) Get(ctx context.Context, key string) ([]byte, error) {
	blob, err := s.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "tile cache get")
	}
	return blob, nil
}

func (s *redisBlobStore) Set(ctx context.Context, key string, blob []byte, ttl time.Duration) error {
	return errors.Wrap(s.client.Set(ctx, key, blob, ttl).Err(), "tile cache set")
}

func (s *redisBlobStore) Flush(ctx context.Context) error {
	var cursor uint64
	for {
		keys, next, err := s.client.Scan(ctx, cursor, "tile-*", 500).Result()
		if err != nil {
			return errors.Wrap(err, "tile cache scan")
		}
		if len(keys) > 0 {
			if err := s.client.Del(ctx, keys...).Err(); err != nil {
				return errors.Wrap(err, "tile cache del")
			}
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}
