package health

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// RedisIndicator 探测 Redis 连通性。
type RedisIndicator struct {
	name   string
	client redis.UniversalClient
}

// NewRedisIndicator 创建 Redis 指示器, name 为空时默认 "redis"。
func NewRedisIndicator(name string, client redis.UniversalClient) *RedisIndicator {
	if name == "" {
		name = "redis"
	}
	return &RedisIndicator{name: name, client: client}
}

func (i *RedisIndicator) Name() string { return i.name }

func (i *RedisIndicator) Check(ctx context.Context) Check {
	if err := i.client.Ping(ctx).Err(); err != nil {
		return Down(err)
	}

	stats := i.client.PoolStats()
	return UpWithDetails(map[string]any{
		"total_conns": stats.TotalConns,
		"idle_conns":  stats.IdleConns,
		"hits":        stats.Hits,
		"misses":      stats.Misses,
	})
}
