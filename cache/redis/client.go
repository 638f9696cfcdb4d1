package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/aisgo/ais-admin-go-pkg/logger"
)

/* ========================================================================
 * Redis Client - 连接提供者
 * ========================================================================
 * 职责: 提供 Redis 连接池, 供健康指示器与限流存储共用
 * 技术: go-redis/v9
 * ======================================================================== */

// Config Redis 连接配置
type Config struct {
	Host         string `yaml:"host" mapstructure:"host"`
	Port         int    `yaml:"port" mapstructure:"port"`
	Password     string `yaml:"password" mapstructure:"password"`
	DB           int    `yaml:"db" mapstructure:"db"`
	PoolSize     int    `yaml:"pool_size" mapstructure:"pool_size"`
	MinIdleConns int    `yaml:"min_idle_conns" mapstructure:"min_idle_conns"`
}

// Addr 返回连接地址, 未配置时使用本机默认端口
func (c Config) Addr() string {
	host := c.Host
	if host == "" {
		host = "127.0.0.1"
	}
	port := c.Port
	if port == 0 {
		port = 6379
	}
	return fmt.Sprintf("%s:%d", host, port)
}

// NewUniversalClient 创建 go-redis 客户端, 生命周期由调用方管理
func NewUniversalClient(cfg Config) redis.UniversalClient {
	return redis.NewClient(&redis.Options{
		Addr:         cfg.Addr(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
	})
}

type ClientParams struct {
	fx.In
	Lc     fx.Lifecycle
	Config Config         `optional:"true"`
	Logger *logger.Logger `optional:"true"`
}

// NewClient 创建 Redis 客户端并注册 fx 生命周期
// 启动时探活, 连不上按应用启动失败处理
func NewClient(p ClientParams) redis.UniversalClient {
	log := p.Logger
	if log == nil {
		log = logger.NewNop()
	}

	client := NewUniversalClient(p.Config)

	p.Lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := client.Ping(ctx).Err(); err != nil {
				log.Error("Redis connection failed", zap.Error(err))
				return err
			}
			log.Info("Redis connected", zap.String("addr", p.Config.Addr()))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("Closing Redis connection")
			return client.Close()
		},
	})

	return client
}
