package redis

import (
	"context"
	"log"

	"github.com/redis/go-redis/v9"
)

// KV adapts a Redis client to the store.KV contract. It is the backend for
// deployments that want board state shared across hosts; failures degrade to
// absent values, never errors.
type KV struct {
	client *redis.Client
}

// NewKV wraps an existing Redis client.
func NewKV(client *redis.Client) *KV {
	return &KV{client: client}
}

func (s *KV) Get(key string) ([]byte, bool) {
	ctx := context.Background()
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Printf("redis: failed to GET key %s: %v", key, err)
		}
		return nil, false
	}
	return data, true
}

func (s *KV) Set(key string, value []byte) {
	ctx := context.Background()
	if err := s.client.Set(ctx, key, value, 0).Err(); err != nil {
		log.Printf("redis: failed to SET key %s: %v", key, err)
	}
}

func (s *KV) Delete(key string) {
	ctx := context.Background()
	if err := s.client.Del(ctx, key).Err(); err != nil {
		log.Printf("redis: failed to DEL key %s: %v", key, err)
	}
}
