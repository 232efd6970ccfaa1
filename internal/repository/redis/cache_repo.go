package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	apperrors "github.com/yourusername/vefify-quiz/internal/pkg/errors"
)

const scanBatch = 200

// CacheRepo реализует repository.CacheRepository поверх Redis.
// Все ключи хранятся с общим префиксом.
type CacheRepo struct {
	client redis.UniversalClient
	prefix string
}

// NewCacheRepo создает новый репозиторий кеша
func NewCacheRepo(client redis.UniversalClient, prefix string) (*CacheRepo, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client cannot be nil for CacheRepo")
	}
	return &CacheRepo{client: client, prefix: prefix}, nil
}

func (r *CacheRepo) key(k string) string {
	return r.prefix + k
}

// SetJSON сохраняет структуру JSON в кеше
func (r *CacheRepo) SetJSON(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, r.key(key), data, expiration).Err()
}

// GetJSON получает структуру JSON из кеша; промах → ErrNotFound
func (r *CacheRepo) GetJSON(ctx context.Context, key string, dest interface{}) error {
	data, err := r.client.Get(ctx, r.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return apperrors.ErrNotFound
		}
		return err
	}
	return json.Unmarshal(data, dest)
}

// Delete удаляет ключи
func (r *CacheRepo) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = r.key(k)
	}
	return r.client.Del(ctx, full...).Err()
}

// DeleteByPrefix удаляет все ключи с префиксом через SCAN (без блокирующего KEYS)
func (r *CacheRepo) DeleteByPrefix(ctx context.Context, prefix string) error {
	iter := r.client.Scan(ctx, 0, r.key(prefix)+"*", scanBatch).Iterator()
	batch := make([]string, 0, scanBatch)
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == scanBatch {
			if err := r.client.Del(ctx, batch...).Err(); err != nil {
				return err
			}
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(batch) > 0 {
		return r.client.Del(ctx, batch...).Err()
	}
	return nil
}

// Increment увеличивает счетчик; TTL выставляется при создании ключа
func (r *CacheRepo) Increment(ctx context.Context, key string, expiration time.Duration) (int64, error) {
	full := r.key(key)
	count, err := r.client.Incr(ctx, full).Result()
	if err != nil {
		return 0, err
	}
	if count == 1 && expiration > 0 {
		if err := r.client.Expire(ctx, full, expiration).Err(); err != nil {
			return count, err
		}
	}
	return count, nil
}

// NoopCache используется, когда Redis отключен: всегда промах, запись игнорируется
type NoopCache struct{}

// NewNoopCache создает пустой кеш
func NewNoopCache() *NoopCache { return &NoopCache{} }

func (NoopCache) SetJSON(context.Context, string, interface{}, time.Duration) error { return nil }

func (NoopCache) GetJSON(context.Context, string, interface{}) error { return apperrors.ErrNotFound }

func (NoopCache) Delete(context.Context, ...string) error { return nil }

func (NoopCache) DeleteByPrefix(context.Context, string) error { return nil }

func (NoopCache) Increment(context.Context, string, time.Duration) (int64, error) {
	return 0, errors.New("cache is disabled")
}
