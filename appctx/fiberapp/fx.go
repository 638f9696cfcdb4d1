package fiberapp

import (
	"github.com/gofiber/fiber/v3"
	"go.uber.org/fx"

	"github.com/aisgo/ais-admin-go-pkg/appctx"
	"github.com/aisgo/ais-admin-go-pkg/logger"
	"github.com/aisgo/ais-admin-go-pkg/props"
)

// Params 主服务器上下文依赖
type Params struct {
	fx.In
	Lc     fx.Lifecycle
	Config appctx.ServerConfig
	Logger *logger.Logger
	Props  *props.Registry `optional:"true"` // 实际绑定端口写入属性注册表，可选

	// ErrorHandler 可选的 Fiber ErrorHandler
	ErrorHandler fiber.ErrorHandler `optional:"true"`

	// AppCustomizer 可选的 Fiber Config 自定义函数
	AppCustomizer AppConfigCustomizer `optional:"true"`

	// ListenCustomizer 可选的 ListenConfig 自定义函数
	// 使用此函数可以设置更高级的配置，如 GracefulContext、BeforeServeFunc 等
	ListenCustomizer ListenConfigCustomizer `optional:"true"`
}

// NewPrimaryContext 创建主服务器上下文并注册 fx 生命周期
func NewPrimaryContext(p Params) *ServerContext {
	opts := []Option{WithLogger(p.Logger)}
	if p.Props != nil {
		opts = append(opts, WithProps(p.Props, props.KeyLocalServerPort))
	}
	if p.ErrorHandler != nil {
		opts = append(opts, WithErrorHandler(p.ErrorHandler))
	}
	if p.AppCustomizer != nil {
		opts = append(opts, WithAppConfig(p.AppCustomizer))
	}
	if p.ListenCustomizer != nil {
		opts = append(opts, WithListenConfig(p.ListenCustomizer))
	}

	ctx := New(p.Config, opts...)

	p.Lc.Append(fx.Hook{
		OnStart: ctx.Refresh,
		OnStop:  ctx.Close,
	})
	return ctx
}

// FactoryParams 子上下文工厂依赖
type FactoryParams struct {
	fx.In
	Logger *logger.Logger
	Props  *props.Registry `optional:"true"`
}

// NewContextFactory 创建管理子上下文工厂
// 子上下文使用独立的事件总线与命名日志器，实际绑定端口写入 local.management.port
func NewContextFactory(p FactoryParams) appctx.Factory {
	return &contextFactory{log: p.Logger, registry: p.Props}
}

type contextFactory struct {
	log      *logger.Logger
	registry *props.Registry
}

func (f *contextFactory) Create(_ appctx.Context, cfg appctx.ServerConfig) (appctx.Context, error) {
	opts := []Option{WithLogger(f.log.Named("management"))}
	if f.registry != nil {
		opts = append(opts, WithProps(f.registry, props.KeyLocalManagementPort))
	}
	return New(cfg, opts...), nil
}

// Module Fiber 服务器上下文 Fx 模块
var Module = fx.Module("fiberapp",
	fx.Provide(
		NewPrimaryContext,
		func(c *ServerContext) appctx.Context { return c },
		NewContextFactory,
	),
)
