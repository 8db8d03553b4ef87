package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memKV struct {
	data map[string]string
	ttls map[string]time.Duration
	err  error
}

func newMemKV() *memKV {
	return &memKV{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (m *memKV) Set(_ context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd {
	if m.err != nil {
		return redis.NewStatusResult("", m.err)
	}
	m.data[key] = value.(string)
	m.ttls[key] = expiration
	return redis.NewStatusResult("OK", nil)
}

func (m *memKV) Get(_ context.Context, key string) *redis.StringCmd {
	if m.err != nil {
		return redis.NewStringResult("", m.err)
	}
	v, ok := m.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (m *memKV) Del(_ context.Context, keys ...string) *redis.IntCmd {
	if m.err != nil {
		return redis.NewIntResult(0, m.err)
	}
	var n int64
	for _, k := range keys {
		if _, ok := m.data[k]; ok {
			delete(m.data, k)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func TestBindLookupUnbind(t *testing.T) {
	ctx := context.Background()
	kv := newMemKV()
	dir := NewRedisDirectory(kv, time.Hour)

	require.NoError(t, dir.Bind(ctx, "s1", "ABC123"))
	assert.Equal(t, "ABC123", kv.data["mahjong:session:table:s1"])
	assert.Equal(t, time.Hour, kv.ttls["mahjong:session:table:s1"])

	id, ok, err := dir.Lookup(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "ABC123", id)

	require.NoError(t, dir.Unbind(ctx, "s1"))
	_, ok, err = dir.Lookup(ctx, "s1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDirectoryErrors(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("connection refused")
	kv := newMemKV()
	kv.err = boom
	dir := NewRedisDirectory(kv, 0)

	assert.ErrorIs(t, dir.Bind(ctx, "s1", "ABC123"), boom)
	assert.ErrorIs(t, dir.Unbind(ctx, "s1"), boom)
	_, _, err := dir.Lookup(ctx, "s1")
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, DefaultTTL, dir.ttl)
}
