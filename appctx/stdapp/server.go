/*
===============================================================================
标准库 HTTP 服务器上下文
===============================================================================

职责:
  - 基于 net/http 提供与 fiberapp 等价的应用上下文实现
  - 适用于不引入 fiber 的轻量进程(纯管理面、边车等)

技术:
  - http.ServeMux 路由, http.Server 承载
  - 监听器由 appctx.NewListener 预先创建, 支持 TLS

特性:
  - Refresh 绑定端口后立即就绪, Serve 在后台 goroutine 运行
  - 不支持命名空间能力, Namespacer() 返回 nil
===============================================================================
*/

package stdapp

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/aisgo/ais-admin-go-pkg/appctx"
	"github.com/aisgo/ais-admin-go-pkg/conf"
	"github.com/aisgo/ais-admin-go-pkg/lifecycle"
	"github.com/aisgo/ais-admin-go-pkg/logger"
	"github.com/aisgo/ais-admin-go-pkg/props"
)

// ServerContext 是 appctx.Context 的 net/http 实现。
type ServerContext struct {
	cfg      appctx.ServerConfig
	mux      *http.ServeMux
	srv      *http.Server
	log      *logger.Logger
	events   *lifecycle.Bus
	registry *props.Registry
	portKey  string

	mu        sync.RWMutex
	id        string
	loader    conf.Loader
	listener  net.Listener
	started   bool
	refreshed bool
	closeOnce sync.Once
}

// Option 配置 ServerContext。
type Option func(*ServerContext)

// WithLogger 设置日志器。
func WithLogger(log *logger.Logger) Option {
	return func(c *ServerContext) { c.log = log }
}

// WithEvents 设置生命周期事件总线。
func WithEvents(bus *lifecycle.Bus) Option {
	return func(c *ServerContext) { c.events = bus }
}

// WithProps 设置属性注册表以及绑定端口写入的键。
func WithProps(registry *props.Registry, portKey string) Option {
	return func(c *ServerContext) {
		c.registry = registry
		c.portKey = portKey
	}
}

// WithLoader 设置配置加载器。
func WithLoader(loader conf.Loader) Option {
	return func(c *ServerContext) { c.loader = loader }
}

// WithID 设置上下文标识, 默认取 AppName。
func WithID(id string) Option {
	return func(c *ServerContext) { c.id = id }
}

// New 创建标准库服务器上下文。
func New(cfg appctx.ServerConfig, opts ...Option) *ServerContext {
	cfg.Normalize()

	ctx := &ServerContext{
		cfg: cfg,
		mux: http.NewServeMux(),
	}
	for _, opt := range opts {
		opt(ctx)
	}
	if ctx.log == nil {
		ctx.log = logger.NewNop()
	}
	if ctx.events == nil {
		ctx.events = lifecycle.NewBus()
	}
	if ctx.id == "" {
		ctx.id = cfg.AppName
	}

	ctx.srv = &http.Server{
		Handler:      ctx.mux,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return ctx
}

// Mux 返回底层路由复用器。
func (c *ServerContext) Mux() *http.ServeMux {
	return c.mux
}

// ID 返回上下文标识。
func (c *ServerContext) ID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.id
}

// SetID 覆盖上下文标识。
func (c *ServerContext) SetID(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.id = id
}

// Port 返回实际绑定的端口, 未绑定时返回 0。
func (c *ServerContext) Port() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.listener == nil {
		return 0
	}
	if tcp, ok := c.listener.Addr().(*net.TCPAddr); ok {
		return tcp.Port
	}
	return 0
}

// Refresh 绑定端口并在后台启动 HTTP 服务, 只允许调用一次。
func (c *ServerContext) Refresh(ctx context.Context) error {
	c.mu.Lock()
	if c.refreshed {
		id := c.id
		c.mu.Unlock()
		return fmt.Errorf("context %s already refreshed", id)
	}
	c.refreshed = true
	c.mu.Unlock()

	addr := c.cfg.Addr()
	listener, err := appctx.NewListener(addr, c.cfg.Listen)
	if err != nil {
		c.log.Error("Failed to create HTTP listener", zap.Error(err), zap.String("addr", addr))
		bindErr := fmt.Errorf("failed to bind to %s: %w", addr, err)
		c.events.Publish(lifecycle.StartFailed(c, bindErr))
		return bindErr
	}

	c.mu.Lock()
	c.listener = listener
	c.started = true
	c.mu.Unlock()

	// 记录实际绑定端口，临时端口（0）在此处得到真实值
	if tcp, ok := listener.Addr().(*net.TCPAddr); ok && c.registry != nil && c.portKey != "" {
		c.registry.SetRuntime(c.portKey, strconv.Itoa(tcp.Port))
	}

	go func() {
		if err := c.srv.Serve(listener); err != nil && err != http.ErrServerClosed {
			c.log.Error("HTTP server failed", zap.String("context", c.ID()), zap.Error(err))
		}
	}()

	c.log.Info("HTTP server started",
		zap.String("context", c.ID()),
		zap.String("addr", listener.Addr().String()),
	)
	c.events.Publish(lifecycle.Refreshed(c))
	return nil
}

// Close 停止 HTTP 服务, 幂等, 只发布一次 closed 事件。
func (c *ServerContext) Close(ctx context.Context) error {
	var err error
	c.closeOnce.Do(func() {
		c.mu.RLock()
		started := c.started
		listener := c.listener
		c.mu.RUnlock()

		c.log.Info("Stopping HTTP server", zap.String("context", c.ID()))
		if started {
			err = c.srv.Shutdown(ctx)
		} else if listener != nil {
			err = listener.Close()
		}
		c.events.Publish(lifecycle.Closed(c))
	})
	return err
}

// Events 返回生命周期事件总线。
func (c *ServerContext) Events() *lifecycle.Bus {
	return c.events
}

// Namespacer 标准库实现不支持命名空间, 总是返回 nil。
func (c *ServerContext) Namespacer() appctx.Namespacer {
	return nil
}

// Resources 返回配置资源能力。
func (c *ServerContext) Resources() appctx.ResourceCarrier {
	return &resourceCarrier{ctx: c}
}

// Routes 返回路由挂载能力。
func (c *ServerContext) Routes() appctx.RouteRegistrar {
	return &routeRegistrar{ctx: c}
}

type resourceCarrier struct {
	ctx *ServerContext
}

func (r *resourceCarrier) Loader() conf.Loader {
	r.ctx.mu.RLock()
	defer r.ctx.mu.RUnlock()
	return r.ctx.loader
}

func (r *resourceCarrier) SetLoader(loader conf.Loader) {
	r.ctx.mu.Lock()
	defer r.ctx.mu.Unlock()
	r.ctx.loader = loader
}

type routeRegistrar struct {
	ctx *ServerContext
}

// Mount 将处理器挂载到指定前缀, 前缀会在转发前剥离。
func (r *routeRegistrar) Mount(prefix string, handler http.Handler) {
	if prefix == "" || prefix == "/" {
		r.ctx.mux.Handle("/", handler)
		return
	}
	prefix = "/" + strings.Trim(prefix, "/")
	r.ctx.mux.Handle(prefix+"/", http.StripPrefix(prefix, handler))
	r.ctx.mux.Handle(prefix, http.RedirectHandler(prefix+"/", http.StatusMovedPermanently))
}
