package message

import (
	"context"

	"SupportChat/tools/errs"

	"github.com/redis/go-redis/v9"
)

const DefaultBatchKey = "batchMessages"

type RedisBuffer struct {
	rdb *redis.Client
	key string
}

func NewRedisBuffer(rdb *redis.Client, key string) *RedisBuffer {
	if key == "" {
		key = DefaultBatchKey
	}
	return &RedisBuffer{rdb: rdb, key: key}
}

func (b *RedisBuffer) Push(ctx context.Context, raw []byte) error {
	if err := b.rdb.RPush(ctx, b.key, raw).Err(); err != nil {
		return errs.ErrStoreUnavailable.WrapMsg("redis rpush", "key", b.key, "err", err)
	}
	return nil
}

func (b *RedisBuffer) Len(ctx context.Context) (int64, error) {
	n, err := b.rdb.LLen(ctx, b.key).Result()
	if err != nil {
		return 0, errs.ErrStoreUnavailable.WrapMsg("redis llen", "key", b.key, "err", err)
	}
	return n, nil
}

func (b *RedisBuffer) Range(ctx context.Context) ([][]byte, error) {
	vals, err := b.rdb.LRange(ctx, b.key, 0, -1).Result()
	if err != nil {
		return nil, errs.ErrStoreUnavailable.WrapMsg("redis lrange", "key", b.key, "err", err)
	}
	out := make([][]byte, len(vals))
	for i, v := range vals {
		out[i] = []byte(v)
	}
	return out, nil
}

// TrimPrefix LTRIM key n -1，flush 期间 RPUSH 进来的元素在尾部，不受影响
func (b *RedisBuffer) TrimPrefix(ctx context.Context, n int64) error {
	if n <= 0 {
		return nil
	}
	if err := b.rdb.LTrim(ctx, b.key, n, -1).Err(); err != nil {
		return errs.ErrStoreUnavailable.WrapMsg("redis ltrim", "key", b.key, "err", err)
	}
	return nil
}
