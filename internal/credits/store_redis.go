package credits

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

const maxTxRetries = 64

// RedisStore keeps balances as plain integer strings under prefix+key.
type RedisStore struct {
	client *redis.Client
	prefix string
}

func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "credits:"
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) Get(ctx context.Context, key string) (int, bool, error) {
	v, err := s.client.Get(ctx, s.prefix+key).Int()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("redis get: %w", err)
	}
	return v, true, nil
}

func (s *RedisStore) SetNX(ctx context.Context, key string, v int) (int, error) {
	k := s.prefix + key
	ok, err := s.client.SetNX(ctx, k, v, 0).Result()
	if err != nil {
		return 0, fmt.Errorf("redis setnx: %w", err)
	}
	if ok {
		return v, nil
	}
	cur, err := s.client.Get(ctx, k).Int()
	if err != nil {
		return 0, fmt.Errorf("redis get: %w", err)
	}
	return cur, nil
}

// Update runs fn inside WATCH/MULTI and retries when another writer touched
// the key between read and write.
func (s *RedisStore) Update(ctx context.Context, key string, def int, fn func(int) int) (int, error) {
	k := s.prefix + key
	var next int
	txf := func(tx *redis.Tx) error {
		cur, err := tx.Get(ctx, k).Int()
		switch {
		case errors.Is(err, redis.Nil):
			cur = def
		case err != nil:
			return err
		}
		next = fn(cur)
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, k, strconv.Itoa(next), 0)
			return nil
		})
		return err
	}

	for i := 0; i < maxTxRetries; i++ {
		err := s.client.Watch(ctx, txf, k)
		if err == nil {
			return next, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return 0, fmt.Errorf("redis update: %w", err)
	}
	return 0, fmt.Errorf("redis update %s: too much contention", key)
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
