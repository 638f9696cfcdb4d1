package management

import (
	"context"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"

	"github.com/aisgo/ais-admin-go-pkg/appctx"
	"github.com/aisgo/ais-admin-go-pkg/health"
	"github.com/aisgo/ais-admin-go-pkg/logger"
	"github.com/aisgo/ais-admin-go-pkg/management/endpoint"
	"github.com/aisgo/ais-admin-go-pkg/middleware"
	"github.com/aisgo/ais-admin-go-pkg/props"
	"github.com/aisgo/ais-admin-go-pkg/shutdown"
)

/* ========================================================================
 * Fx 模块 - 管理面装配
 * ========================================================================
 * 职责: 组装端点注册表与协调器, 挂接 fx 生命周期
 * 依赖均为可选注入: 注入什么就暴露什么端点
 * ======================================================================== */

// EndpointParams 端点注册表的依赖。
// 数据源缺席时对应端点不注册, 不报错。
type EndpointParams struct {
	fx.In

	Config    Config
	ServerCfg appctx.ServerConfig
	Logger    *logger.Logger        `optional:"true"`
	Props     *props.Registry       `optional:"true"`
	Health    *health.Registry      `optional:"true"`
	Shutdown  *shutdown.Manager     `optional:"true"`
	Redis     redis.UniversalClient `optional:"true"`
}

// NewEndpointRegistry 按注入的依赖装配管理端点。
func NewEndpointRegistry(p EndpointParams) (*endpoint.Registry, error) {
	log := p.Logger
	if log == nil {
		log = logger.NewNop()
	}

	guards, err := buildGuards(p.Config.Security, p.Redis, log)
	if err != nil {
		return nil, err
	}

	reg := endpoint.NewRegistry(p.Config.Endpoints,
		endpoint.WithRegistryLogger(log),
		endpoint.WithGuards(guards...),
	)

	if p.Health != nil {
		reg.Register(endpoint.NewHealthEndpoint(p.Health, p.Config.Endpoints.HideHealthDetails))
	}
	reg.Register(endpoint.NewInfoEndpoint(endpoint.AppInfo{Name: p.ServerCfg.AppName}))
	if p.Props != nil {
		reg.Register(endpoint.NewEnvEndpoint(p.Props))
	}
	reg.Register(endpoint.NewMetricsEndpoint())
	if p.Logger != nil {
		reg.Register(endpoint.NewLoggersEndpoint(p.Logger.Levels()))
	}
	reg.Register(endpoint.NewPprofEndpoint())

	if p.Shutdown != nil {
		mgr := p.Shutdown
		reg.Register(endpoint.NewShutdownEndpoint(func() {
			mgr.Shutdown(context.Background())
		}, log))
	}
	return reg, nil
}

// buildGuards 组装防护链, 顺序固定: 请求标识 -> 限流 -> 令牌校验。
func buildGuards(sec SecurityConfig, client redis.UniversalClient, log *logger.Logger) ([]endpoint.Middleware, error) {
	guards := []endpoint.Middleware{middleware.RequestID}

	if sec.RateLimit != "" {
		var (
			rl  *middleware.RateLimiter
			err error
		)
		if client != nil {
			rl, err = middleware.NewRedisRateLimiter(sec.RateLimit, client, middleware.WithRateLimiterLogger(log))
		} else {
			rl, err = middleware.NewRateLimiter(sec.RateLimit, middleware.WithRateLimiterLogger(log))
		}
		if err != nil {
			return nil, err
		}
		guards = append(guards, rl.Handler)
	}

	if sec.AccessToken != "" {
		guard := middleware.NewTokenGuard(log, sec.AccessToken)
		guards = append(guards, guard.Handler)
	}
	return guards, nil
}

// Params 协调器的依赖。
type Params struct {
	fx.In

	Lc        fx.Lifecycle
	Config    Config
	ServerCfg appctx.ServerConfig
	Parent    appctx.Context
	Endpoints *endpoint.Registry
	Factory   appctx.Factory    `optional:"true"`
	Props     *props.Registry   `optional:"true"`
	Logger    *logger.Logger    `optional:"true"`
	Shutdown  *shutdown.Manager `optional:"true"`
}

// NewManagementCoordinator 创建协调器并注册 fx 生命周期。
// 注入了 shutdown.Manager 时, 管理面额外挂到 PriorityLate:
// 业务服务器先停, 管理端点最后停, 关停过程仍可被观测。
func NewManagementCoordinator(p Params) (*Coordinator, error) {
	if err := ValidateConfig(p.Config); err != nil {
		return nil, err
	}

	opts := []CoordinatorOption{WithEndpoints(p.Endpoints)}
	if p.Factory != nil {
		opts = append(opts, WithFactory(p.Factory))
	}
	if p.Props != nil {
		opts = append(opts, WithRegistry(p.Props))
	}
	if p.Logger != nil {
		opts = append(opts, WithLogger(p.Logger.Named("management")))
	}

	c := NewCoordinator(p.Config, p.ServerCfg, p.Parent, opts...)

	p.Lc.Append(fx.Hook{
		OnStart: c.Start,
		OnStop:  c.Stop,
	})

	if p.Shutdown != nil {
		// Stop 幂等, fx OnStop 与 shutdown 钩子双路触发是安全的
		p.Shutdown.RegisterHookWithPriority("management-context", c.Stop, shutdown.PriorityLate)
	}
	return c, nil
}

// Module 管理面 Fx 模块。
// 协调器没有下游消费方, Invoke 强制实例化以挂接生命周期。
var Module = fx.Module("management",
	fx.Provide(
		NewEndpointRegistry,
		NewManagementCoordinator,
	),
	fx.Invoke(func(*Coordinator) {}),
)
