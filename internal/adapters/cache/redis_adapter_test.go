package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/careline/internal/domain/providers"
)

// fakeRedis overrides the commands the adapter uses
type fakeRedis struct {
	redis.Cmdable
	values map[string]string
	ttls   map[string]time.Duration
	err    error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{values: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	if f.err != nil {
		return redis.NewStringResult("", f.err)
	}
	v, ok := f.values[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeRedis) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	f.values[key] = string(value.([]byte))
	f.ttls[key] = expiration
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	for _, k := range keys {
		delete(f.values, k)
	}
	return redis.NewIntResult(int64(len(keys)), nil)
}

func TestRedisAdapter_SetGetDelete(t *testing.T) {
	fake := newFakeRedis()
	adapter := &RedisAdapter{client: fake}
	ctx := context.Background()

	require.NoError(t, adapter.Set(ctx, "provider:7", []byte(`{"id":7}`), time.Minute))
	assert.Equal(t, time.Minute, fake.ttls["careline:provider:7"])

	got, err := adapter.Get(ctx, "provider:7")
	require.NoError(t, err)
	assert.Equal(t, `{"id":7}`, string(got))

	require.NoError(t, adapter.Delete(ctx, "provider:7"))
	_, err = adapter.Get(ctx, "provider:7")
	assert.ErrorIs(t, err, providers.ErrCacheMiss)
}

func TestRedisAdapter_GetError(t *testing.T) {
	fake := newFakeRedis()
	fake.err = errors.New("connection refused")
	adapter := &RedisAdapter{client: fake}

	_, err := adapter.Get(context.Background(), "provider:1")

	require.Error(t, err)
	assert.NotErrorIs(t, err, providers.ErrCacheMiss)
	assert.Contains(t, err.Error(), "connection refused")
}
