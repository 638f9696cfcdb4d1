package cache

import (
	"go.uber.org/fx"

	"github.com/aisgo/ais-admin-go-pkg/cache/redis"
)

/* ========================================================================
 * Cache Module
 * ========================================================================
 * 职责: 提供 Redis 连接依赖注入模块
 * ======================================================================== */

// Module 缓存连接模块
// 提供: redis.UniversalClient, 健康指示器与限流存储消费同一连接池
var Module = fx.Module("cache",
	fx.Provide(redis.NewClient),
)
