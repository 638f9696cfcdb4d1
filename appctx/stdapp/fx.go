package stdapp

import (
	"context"

	"go.uber.org/fx"

	"github.com/aisgo/ais-admin-go-pkg/appctx"
	"github.com/aisgo/ais-admin-go-pkg/logger"
	"github.com/aisgo/ais-admin-go-pkg/props"
)

// Params 声明主上下文的依赖。
type Params struct {
	fx.In

	Lc     fx.Lifecycle
	Config appctx.ServerConfig
	Logger *logger.Logger  `optional:"true"`
	Props  *props.Registry `optional:"true"`
}

// NewPrimaryContext 创建并托管主服务器上下文。
func NewPrimaryContext(p Params) *ServerContext {
	opts := []Option{}
	if p.Logger != nil {
		opts = append(opts, WithLogger(p.Logger))
	}
	if p.Props != nil {
		opts = append(opts, WithProps(p.Props, props.KeyLocalServerPort))
	}

	ctx := New(p.Config, opts...)

	p.Lc.Append(fx.Hook{
		OnStart: func(c context.Context) error { return ctx.Refresh(c) },
		OnStop:  func(c context.Context) error { return ctx.Close(c) },
	})
	return ctx
}

// FactoryParams 声明子上下文工厂的依赖。
type FactoryParams struct {
	fx.In

	Logger *logger.Logger  `optional:"true"`
	Props  *props.Registry `optional:"true"`
}

// NewContextFactory 创建管理子上下文工厂。
func NewContextFactory(p FactoryParams) appctx.Factory {
	return &contextFactory{log: p.Logger, registry: p.Props}
}

type contextFactory struct {
	log      *logger.Logger
	registry *props.Registry
}

func (f *contextFactory) Create(parent appctx.Context, cfg appctx.ServerConfig) (appctx.Context, error) {
	opts := []Option{}
	if f.log != nil {
		opts = append(opts, WithLogger(f.log.Named("management")))
	}
	if f.registry != nil {
		opts = append(opts, WithProps(f.registry, props.KeyLocalManagementPort))
	}
	return New(cfg, opts...), nil
}

// Module 注册标准库 HTTP 上下文组件。
var Module = fx.Module("stdapp",
	fx.Provide(
		NewPrimaryContext,
		func(c *ServerContext) appctx.Context { return c },
		NewContextFactory,
	),
)
