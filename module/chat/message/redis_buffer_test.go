package message

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"SupportChat/tools/errs"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 需要真实 Redis：REDIS_TEST_URL=redis://127.0.0.1:6379/15
func testRedis(t *testing.T) *redis.Client {
	t.Helper()
	url := os.Getenv("REDIS_TEST_URL")
	if url == "" {
		t.Skip("REDIS_TEST_URL not set")
	}
	opt, err := redis.ParseURL(url)
	require.NoError(t, err)
	rdb := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		t.Skipf("redis not reachable: %v", err)
	}
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

func testKey(t *testing.T, rdb *redis.Client) string {
	key := fmt.Sprintf("test:%s:%d", t.Name(), time.Now().UnixNano())
	t.Cleanup(func() { _ = rdb.Del(context.Background(), key).Err() })
	return key
}

func strs(raws [][]byte) []string {
	out := make([]string, len(raws))
	for i, r := range raws {
		out[i] = string(r)
	}
	return out
}

func TestRedisBufferDefaultKey(t *testing.T) {
	assert.Equal(t, DefaultBatchKey, NewRedisBuffer(nil, "").key)
	assert.Equal(t, "k", NewRedisBuffer(nil, "k").key)
}

func TestRedisBufferUnavailable(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 200 * time.Millisecond, MaxRetries: -1})
	defer rdb.Close()
	b := NewRedisBuffer(rdb, "k")
	ctx := context.Background()

	assert.True(t, errors.Is(b.Push(ctx, []byte("x")), errs.ErrStoreUnavailable))
	_, err := b.Len(ctx)
	assert.True(t, errors.Is(err, errs.ErrStoreUnavailable))
	_, err = b.Range(ctx)
	assert.True(t, errors.Is(err, errs.ErrStoreUnavailable))
	assert.True(t, errors.Is(b.TrimPrefix(ctx, 1), errs.ErrStoreUnavailable))
	// n<=0 不访问 Redis
	assert.NoError(t, b.TrimPrefix(ctx, 0))
}

func TestRedisBufferTrimKeepsLateAppends(t *testing.T) {
	rdb := testRedis(t)
	b := NewRedisBuffer(rdb, testKey(t, rdb))
	ctx := context.Background()

	for _, v := range []string{"a", "b", "c"} {
		require.NoError(t, b.Push(ctx, []byte(v)))
	}
	snap, err := b.Range(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, strs(snap))

	// flush 读完之后、裁剪之前又追加了一条
	require.NoError(t, b.Push(ctx, []byte("d")))
	require.NoError(t, b.TrimPrefix(ctx, int64(len(snap))))

	rest, err := b.Range(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"d"}, strs(rest))
	n, err := b.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	// 裁剪超过长度时清空列表
	require.NoError(t, b.TrimPrefix(ctx, 5))
	n, err = b.Len(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRedisBufferFlushRetry(t *testing.T) {
	rdb := testRedis(t)
	buf, store := NewRedisBuffer(rdb, testKey(t, rdb)), NewMemStore()
	l := NewLog(buf, store, Options{Threshold: 2, Interval: time.Hour})
	ctx := context.Background()

	require.NoError(t, l.Append(ctx, msg("g", 1)))
	require.NoError(t, l.Append(ctx, msg("g", 2)))

	store.FailInsert.Store(true)
	_, err := l.Flush(ctx)
	require.Error(t, err)
	n, _ := buf.Len(ctx)
	assert.Equal(t, int64(2), n)

	store.FailInsert.Store(false)
	flushed, err := l.MaybeFlush(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, flushed)
	n, _ = buf.Len(ctx)
	assert.Zero(t, n)
	assert.Equal(t, []string{"m1", "m2"}, bodies(store.All()))
}
