/*
===============================================================================
管理面协调器
===============================================================================

职责:
  - 根据端口配置决定管理端点的部署模式(关闭/共享端口/独立端口)
  - 共享端口: 校验配置冲突, 注册端口别名, 挂载端点到主服务器
  - 独立端口: 派生子服务器上下文并托管其生命周期

特性:
  - 启动在所有其它组件之后执行, 模块需在主服务器模块之后组合
  - 父上下文关闭或启动失败会通过传播链接关闭子上下文, 至多一次
  - 子上下文启动失败按主应用启动失败处理, 不会被吞掉
===============================================================================
*/

package management

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/aisgo/ais-admin-go-pkg/appctx"
	"github.com/aisgo/ais-admin-go-pkg/errors"
	"github.com/aisgo/ais-admin-go-pkg/lifecycle"
	"github.com/aisgo/ais-admin-go-pkg/logger"
	"github.com/aisgo/ais-admin-go-pkg/management/endpoint"
	"github.com/aisgo/ais-admin-go-pkg/metrics"
	"github.com/aisgo/ais-admin-go-pkg/props"
)

// Coordinator 在应用启动时装配管理面。
type Coordinator struct {
	cfg       Config
	serverCfg appctx.ServerConfig
	parent    appctx.Context
	factory   appctx.Factory
	registry  *props.Registry
	endpoints *endpoint.Registry
	log       *logger.Logger

	mu    sync.Mutex
	mode  PortType
	child appctx.Context
	link  *propagationLink
}

// CoordinatorOption 配置协调器。
type CoordinatorOption func(*Coordinator)

// WithLogger 设置日志器。
func WithLogger(log *logger.Logger) CoordinatorOption {
	return func(c *Coordinator) { c.log = log }
}

// WithFactory 设置子上下文工厂, 独立端口模式必需。
func WithFactory(factory appctx.Factory) CoordinatorOption {
	return func(c *Coordinator) { c.factory = factory }
}

// WithRegistry 设置属性注册表, 用于端口别名与端口解析。
func WithRegistry(registry *props.Registry) CoordinatorOption {
	return func(c *Coordinator) { c.registry = registry }
}

// WithEndpoints 设置要挂载的端点注册表。
func WithEndpoints(endpoints *endpoint.Registry) CoordinatorOption {
	return func(c *Coordinator) { c.endpoints = endpoints }
}

// NewCoordinator 创建管理面协调器。
func NewCoordinator(cfg Config, serverCfg appctx.ServerConfig, parent appctx.Context, opts ...CoordinatorOption) *Coordinator {
	c := &Coordinator{
		cfg:       cfg,
		serverCfg: serverCfg,
		parent:    parent,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.log == nil {
		c.log = logger.NewNop()
	}
	return c
}

// Mode 返回已解析的部署模式, Start 之前无意义。
func (c *Coordinator) Mode() PortType {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

// Child 返回独立端口模式下的子上下文, 其它模式为 nil。
func (c *Coordinator) Child() appctx.Context {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.child
}

// BasePath 返回端点的生效挂载前缀。
// 共享端口模式为配置的 base-path, 独立端口模式为根路径。
func (c *Coordinator) BasePath() string {
	c.mu.Lock()
	mode := c.mode
	c.mu.Unlock()

	switch mode {
	case PortSame:
		return c.cfg.Server.BasePath
	case PortDifferent:
		return "/"
	default:
		return ""
	}
}

// Start 解析部署模式并装配管理面, 由 fx 在主服务器启动后调用。
func (c *Coordinator) Start(ctx context.Context) error {
	serverPort, managementPort := c.resolvePorts()
	mode := ResolvePortType(serverPort, managementPort)

	c.mu.Lock()
	c.mode = mode
	c.mu.Unlock()

	c.log.Info("Resolved management port type", zap.String("mode", mode.String()))

	switch mode {
	case PortDisabled:
		c.log.Info("Management plane disabled by negative port")
		metrics.ManagementContextUp.WithLabelValues(mode.String()).Set(0)
		return nil
	case PortSame:
		err := c.wireSharedServer()
		if err == nil {
			metrics.ManagementContextUp.WithLabelValues(mode.String()).Set(1)
		}
		return err
	default:
		err := c.startSeparateServer(ctx)
		if err == nil {
			metrics.ManagementContextUp.WithLabelValues(mode.String()).Set(1)
		}
		return err
	}
}

// Stop 关闭独立端口模式下的子上下文, 幂等。
func (c *Coordinator) Stop(ctx context.Context) error {
	c.mu.Lock()
	mode := c.mode
	child := c.child
	link := c.link
	c.child = nil
	c.link = nil
	c.mu.Unlock()

	if mode != PortDisabled {
		metrics.ManagementContextUp.WithLabelValues(mode.String()).Set(0)
	}

	link.disarm()
	if child != nil {
		return child.Close(ctx)
	}
	return nil
}

// resolvePorts 取端口对: 管理端口以配置为准, 主端口优先读属性注册表,
// 以便区分显式 0(临时端口)与未配置。
func (c *Coordinator) resolvePorts() (serverPort, managementPort *int) {
	managementPort = c.cfg.Server.Port

	if c.registry != nil {
		if v, ok := c.registry.GetInt(props.KeyServerPort); ok {
			serverPort = &v
			return
		}
	}
	if c.serverCfg.Port != 0 {
		p := c.serverCfg.Port
		serverPort = &p
	}
	return
}

// wireSharedServer 把管理端点挂到主服务器上。
func (c *Coordinator) wireSharedServer() error {
	if c.cfg.Server.SSL.Enabled {
		return errors.New(errors.ErrCodeConfigConflict,
			"management SSL must not be enabled when sharing the main server port")
	}
	basePath := c.cfg.Server.BasePath
	if basePath == "" || basePath == "/" {
		return errors.New(errors.ErrCodeConfigInvalid,
			"management base path is required when sharing the main server port")
	}

	if c.registry != nil {
		// local.management.port 透传 local.server.port, 别名实时解析而非拷贝
		props.RegisterLocalManagementPortAlias(c.registry)
	}

	if c.endpoints != nil {
		if routes := c.parent.Routes(); routes != nil {
			routes.Mount(basePath, c.endpoints.Handler())
		} else {
			c.log.Warn("Parent context does not support route mounting, management endpoints unavailable",
				zap.String("context", c.parent.ID()))
		}
	}

	c.log.Info("Management endpoints sharing main server port",
		zap.String("context", c.parent.ID()),
		zap.String("base_path", basePath),
	)
	return nil
}

// startSeparateServer 创建并启动独立的管理子上下文。
func (c *Coordinator) startSeparateServer(ctx context.Context) error {
	if c.factory == nil {
		return errors.New(errors.ErrCodeConfigInvalid,
			"separate management port requires a context factory")
	}

	childCfg, err := c.cfg.ChildServerConfig(c.serverCfg)
	if err != nil {
		return errors.Wrap(errors.ErrCodeConfigInvalid, "failed to derive management server config", err)
	}
	child, err := c.factory.Create(c.parent, childCfg)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, "failed to create management context", err)
	}

	if ns := child.Namespacer(); ns != nil {
		ns.SetNamespace(Namespace)
	}
	child.SetID(c.parent.ID() + ChildIDSuffix)

	if parentRes := c.parent.Resources(); parentRes != nil {
		if childRes := child.Resources(); childRes != nil {
			if loader := parentRes.Loader(); loader != nil {
				childRes.SetLoader(loader)
			}
		}
	}

	link := armPropagationLink(c.parent, child, c.log)

	if c.endpoints != nil {
		if routes := child.Routes(); routes != nil {
			routes.Mount("/", c.endpoints.Handler())
		}
	}

	if err := child.Refresh(ctx); err != nil {
		startErr := errors.Wrap(errors.ErrCodeInternal, "management context failed to start", err)
		if bus := c.parent.Events(); bus != nil {
			// 按主应用启动失败处理, 传播链接随之关闭半启动的子上下文
			bus.Publish(lifecycle.StartFailed(c.parent, startErr))
		} else {
			closeCtx, cancel := context.WithTimeout(context.Background(), linkCloseTimeout)
			_ = child.Close(closeCtx)
			cancel()
		}
		return startErr
	}

	c.mu.Lock()
	c.child = child
	c.link = link
	c.mu.Unlock()

	c.log.Info("Management context started",
		zap.String("context", child.ID()),
		zap.String("parent", c.parent.ID()),
	)
	return nil
}
