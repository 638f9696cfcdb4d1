package fiberapp

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/gofiber/fiber/v3"
	recoverer "github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/valyala/fasthttp/fasthttpadaptor"
	"go.uber.org/zap"

	"github.com/aisgo/ais-admin-go-pkg/appctx"
	"github.com/aisgo/ais-admin-go-pkg/conf"
	"github.com/aisgo/ais-admin-go-pkg/lifecycle"
	"github.com/aisgo/ais-admin-go-pkg/logger"
	"github.com/aisgo/ais-admin-go-pkg/metrics"
	"github.com/aisgo/ais-admin-go-pkg/props"
)

/* ========================================================================
 * Fiber Server Context - Fiber v3 服务器上下文
 * ========================================================================
 * 职责: 以 Fiber 应用实现 appctx.Context，支持全部可选能力
 * 技术: Fiber v3
 * 特性: 预绑定 listener 确保端口占用成功；实际绑定端口写入属性注册表
 * ======================================================================== */

// ListenConfigCustomizer 自定义 ListenConfig 的函数类型
// 用于配置那些无法通过 YAML 序列化的高级选项（如回调函数、context 等）
type ListenConfigCustomizer func(*fiber.ListenConfig)

// AppConfigCustomizer 自定义 Fiber Config
// 用于配置 Fiber ErrorHandler 或其他高级选项
type AppConfigCustomizer func(*fiber.Config)

// ServerContext Fiber 实现的服务器上下文
type ServerContext struct {
	cfg appctx.ServerConfig
	app *fiber.App
	log *logger.Logger

	events   *lifecycle.Bus
	registry *props.Registry
	portKey  string

	errorHandler     fiber.ErrorHandler
	appCustomizer    AppConfigCustomizer
	listenCustomizer ListenConfigCustomizer

	mu        sync.Mutex
	id        string
	namespace string
	loader    conf.Loader
	listener  net.Listener
	started   bool
	refreshed bool

	closeOnce sync.Once
}

// Option 服务器上下文选项
type Option func(*ServerContext)

// WithLogger 设置日志器
func WithLogger(log *logger.Logger) Option {
	return func(c *ServerContext) {
		if log != nil {
			c.log = log
		}
	}
}

// WithEvents 设置生命周期事件总线
func WithEvents(bus *lifecycle.Bus) Option {
	return func(c *ServerContext) {
		if bus != nil {
			c.events = bus
		}
	}
}

// WithProps 设置属性注册表与实际绑定端口写入的属性键
func WithProps(registry *props.Registry, portKey string) Option {
	return func(c *ServerContext) {
		c.registry = registry
		c.portKey = portKey
	}
}

// WithLoader 设置资源加载器
func WithLoader(loader conf.Loader) Option {
	return func(c *ServerContext) {
		c.loader = loader
	}
}

// WithID 设置上下文标识
func WithID(id string) Option {
	return func(c *ServerContext) {
		if id != "" {
			c.id = id
		}
	}
}

// WithErrorHandler 设置 Fiber ErrorHandler
func WithErrorHandler(h fiber.ErrorHandler) Option {
	return func(c *ServerContext) {
		c.errorHandler = h
	}
}

// WithAppConfig 设置 Fiber Config 自定义函数
func WithAppConfig(fn AppConfigCustomizer) Option {
	return func(c *ServerContext) {
		c.appCustomizer = fn
	}
}

// WithListenConfig 设置 ListenConfig 自定义函数
func WithListenConfig(fn ListenConfigCustomizer) Option {
	return func(c *ServerContext) {
		c.listenCustomizer = fn
	}
}

// New 创建 Fiber 服务器上下文
func New(cfg appctx.ServerConfig, opts ...Option) *ServerContext {
	cfg = cfg.Normalize()

	c := &ServerContext{
		cfg:    cfg,
		log:    logger.NewNop(),
		events: lifecycle.NewBus(),
		id:     cfg.AppName,
	}
	for _, opt := range opts {
		opt(c)
	}

	appConfig := fiber.Config{
		AppName:      cfg.AppName,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
	if c.appCustomizer != nil {
		c.appCustomizer(&appConfig)
	}
	if c.errorHandler != nil {
		appConfig.ErrorHandler = c.errorHandler
	}

	app := fiber.New(appConfig)

	// 默认启用 Recover 中间件（生产环境必备，防止 panic 导致服务崩溃）
	// 可通过配置 enable_recover: false 在测试环境禁用，便于问题暴露
	enableRecover := true
	if cfg.EnableRecover != nil {
		enableRecover = *cfg.EnableRecover
	}
	if enableRecover {
		app.Use(recoverer.New(recoverer.Config{
			EnableStackTrace: true,
			StackTraceHandler: func(fc fiber.Ctx, e interface{}) {
				c.log.Error("Panic recovered",
					zap.Any("error", e),
					zap.String("path", fc.Path()),
					zap.String("method", fc.Method()),
					zap.String("ip", fc.IP()),
				)
			},
		}))
	}

	if cfg.EnableRequestMetrics {
		app.Use(metrics.HTTPMetricsMiddleware(nil))
	}

	c.app = app
	return c
}

// App 返回底层 Fiber 应用，供路由注册与测试使用
func (c *ServerContext) App() *fiber.App {
	return c.app
}

// ID 返回上下文标识
func (c *ServerContext) ID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.id
}

// SetID 设置上下文标识
func (c *ServerContext) SetID(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.id = id
}

// Port 返回实际绑定端口，未绑定时返回 0
func (c *ServerContext) Port() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.listener == nil {
		return 0
	}
	if tcp, ok := c.listener.Addr().(*net.TCPAddr); ok {
		return tcp.Port
	}
	return 0
}

// Refresh 绑定监听器并开始服务
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
	c.mu.Unlock()

	// 记录实际绑定端口，临时端口（0）在此处得到真实值
	if c.registry != nil && c.portKey != "" {
		if tcp, ok := listener.Addr().(*net.TCPAddr); ok {
			c.registry.SetRuntime(c.portKey, strconv.Itoa(tcp.Port))
		}
	}

	c.log.Info("HTTP listener created successfully",
		zap.String("context", c.ID()),
		zap.String("addr", listener.Addr().String()),
	)

	readyChan := make(chan struct{})
	errChan := make(chan error, 1)

	go func() {
		// 通知已准备就绪（listener 已创建并绑定端口）
		close(readyChan)

		c.log.Info("Starting HTTP server", zap.String("context", c.ID()))
		if err := c.app.Listener(listener, c.buildListenConfig()); err != nil {
			c.log.Error("HTTP server failed", zap.String("context", c.ID()), zap.Error(err))
			errChan <- err
		}
	}()

	select {
	case <-readyChan:
		c.mu.Lock()
		c.started = true
		c.mu.Unlock()
		c.events.Publish(lifecycle.Refreshed(c))
		return nil
	case err := <-errChan:
		_ = listener.Close()
		c.events.Publish(lifecycle.StartFailed(c, err))
		return err
	case <-ctx.Done():
		_ = listener.Close()
		c.events.Publish(lifecycle.StartFailed(c, ctx.Err()))
		return ctx.Err()
	}
}

// Close 停止服务，可安全地重复调用，仅首次调用生效
func (c *ServerContext) Close(ctx context.Context) error {
	var err error
	c.closeOnce.Do(func() {
		c.mu.Lock()
		started := c.started
		listener := c.listener
		c.mu.Unlock()

		c.log.Info("Stopping HTTP server", zap.String("context", c.ID()))
		if started {
			err = c.app.ShutdownWithContext(ctx)
		} else if listener != nil {
			_ = listener.Close()
		}
		c.events.Publish(lifecycle.Closed(c))
	})
	return err
}

// Events 生命周期事件总线
func (c *ServerContext) Events() *lifecycle.Bus {
	return c.events
}

// Namespacer 命名空间能力
func (c *ServerContext) Namespacer() appctx.Namespacer {
	return &namespacer{ctx: c}
}

// Resources 资源加载器能力
func (c *ServerContext) Resources() appctx.ResourceCarrier {
	return &resourceCarrier{ctx: c}
}

// Routes 路由挂载能力
func (c *ServerContext) Routes() appctx.RouteRegistrar {
	return &routeRegistrar{app: c.app}
}

func (c *ServerContext) buildListenConfig() fiber.ListenConfig {
	opts := c.cfg.Listen
	config := fiber.ListenConfig{
		DisableStartupMessage: opts.DisableStartupMessage,
		ListenerNetwork:       opts.ListenerNetwork,
	}
	if opts.ShutdownTimeout > 0 {
		config.ShutdownTimeout = opts.ShutdownTimeout
	}
	// TLS 由预创建的 listener 终结，这里不再重复配置证书
	if c.listenCustomizer != nil {
		c.listenCustomizer(&config)
	}
	return config
}

// ========================================================================
// 能力实现
// ========================================================================

type namespacer struct{ ctx *ServerContext }

func (n *namespacer) Namespace() string {
	n.ctx.mu.Lock()
	defer n.ctx.mu.Unlock()
	return n.ctx.namespace
}

func (n *namespacer) SetNamespace(ns string) {
	n.ctx.mu.Lock()
	defer n.ctx.mu.Unlock()
	n.ctx.namespace = ns
}

type resourceCarrier struct{ ctx *ServerContext }

func (r *resourceCarrier) Loader() conf.Loader {
	r.ctx.mu.Lock()
	defer r.ctx.mu.Unlock()
	return r.ctx.loader
}

func (r *resourceCarrier) SetLoader(loader conf.Loader) {
	r.ctx.mu.Lock()
	defer r.ctx.mu.Unlock()
	r.ctx.loader = loader
}

type routeRegistrar struct{ app *fiber.App }

// Mount 将 http.Handler 挂载到 prefix 下
// 通过 fasthttpadaptor 桥接，prefix 在转发前剥离
func (r *routeRegistrar) Mount(prefix string, handler http.Handler) {
	h := handler
	if prefix != "" && prefix != "/" {
		h = stripMountPrefix(prefix, handler)
	}
	fast := fasthttpadaptor.NewFastHTTPHandler(h)

	path := prefix
	if path == "" {
		path = "/"
	}
	r.app.Use(path, func(fc fiber.Ctx) error {
		fast(fc.RequestCtx())
		return nil
	})
}

// stripMountPrefix 剥离挂载前缀
// 精确命中前缀时内部路径归一为 "/"，内层 handler 不会丢失挂载点重定向
func stripMountPrefix(prefix string, h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		p := strings.TrimPrefix(req.URL.Path, prefix)
		if !strings.HasPrefix(p, "/") {
			p = "/" + p
		}
		clone := req.Clone(req.Context())
		clone.URL.Path = p
		h.ServeHTTP(w, clone)
	})
}
