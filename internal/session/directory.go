// Package session 会话到牌桌的目录, 存在 Redis 中供网关路由和掉线处理查询.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// TableKeyPrefix 会话所在牌桌 Key 前缀
	// 完整格式: mahjong:session:table:{session}
	TableKeyPrefix = "mahjong:session:table:"

	// DefaultTTL 默认过期时间
	DefaultTTL = 24 * time.Hour
)

// BuildTableKey 构建会话牌桌 Key
func BuildTableKey(session string) string {
	return TableKeyPrefix + session
}

// KV RedisDirectory 用到的命令, *redis.Client 满足该接口
type KV interface {
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// RedisDirectory 基于 Redis 的会话目录
type RedisDirectory struct {
	kv  KV
	ttl time.Duration
}

// NewRedisDirectory 创建会话目录
func NewRedisDirectory(kv KV, ttl time.Duration) *RedisDirectory {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisDirectory{kv: kv, ttl: ttl}
}

// Bind 记录会话所在牌桌
func (d *RedisDirectory) Bind(ctx context.Context, session, tableID string) error {
	if err := d.kv.Set(ctx, BuildTableKey(session), tableID, d.ttl).Err(); err != nil {
		return fmt.Errorf("bind session %s: %w", session, err)
	}
	return nil
}

// Unbind 删除会话记录
func (d *RedisDirectory) Unbind(ctx context.Context, session string) error {
	if err := d.kv.Del(ctx, BuildTableKey(session)).Err(); err != nil {
		return fmt.Errorf("unbind session %s: %w", session, err)
	}
	return nil
}

// Lookup 查询会话所在牌桌, 不存在时返回 false
func (d *RedisDirectory) Lookup(ctx context.Context, session string) (string, bool, error) {
	id, err := d.kv.Get(ctx, BuildTableKey(session)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("lookup session %s: %w", session, err)
	}
	return id, true, nil
}
