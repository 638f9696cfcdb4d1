package endpoint

import (
	"encoding/json"
	"net/http"
	"sort"
	"strings"
	"sync"

	"github.com/aisgo/ais-admin-go-pkg/logger"
	"github.com/aisgo/ais-admin-go-pkg/metrics"

	"go.uber.org/zap"
)

/* ========================================================================
 * Endpoint Registry - 管理端点注册表
 * ========================================================================
 * 职责: 维护端点集合，按配置过滤，统一挂载为一个 http.Handler
 * 形态: 端点是栈无关的 http.Handler；Fiber 上下文经 fasthttpadaptor
 *       挂载，标准库上下文直接挂载，同端口与独立端口两种部署共用
 * 防护: 访问令牌、限流、请求标识以中间件链包裹全部端点
 * ======================================================================== */

// Endpoint 管理端点
// ServeHTTP 收到的路径相对端点自身挂载点，总是以 "/" 开头
type Endpoint interface {
	http.Handler
	Name() string
}

// Middleware net/http 中间件
type Middleware func(http.Handler) http.Handler

// Registry 管理端点注册表
type Registry struct {
	cfg    Config
	log    *logger.Logger
	guards []Middleware

	mu        sync.RWMutex
	endpoints map[string]Endpoint
}

// RegistryOption 注册表选项
type RegistryOption func(*Registry)

// WithRegistryLogger 设置日志器
func WithRegistryLogger(log *logger.Logger) RegistryOption {
	return func(r *Registry) {
		if log != nil {
			r.log = log
		}
	}
}

// WithGuards 设置防护链，按给定顺序从外到内包裹全部端点
func WithGuards(guards ...Middleware) RegistryOption {
	return func(r *Registry) {
		r.guards = append(r.guards, guards...)
	}
}

// NewRegistry 创建端点注册表
func NewRegistry(cfg Config, opts ...RegistryOption) *Registry {
	r := &Registry{
		cfg:       cfg,
		log:       logger.NewNop(),
		endpoints: make(map[string]Endpoint),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register 注册端点，同名覆盖
// 配置禁用的端点照常注册，在 Handler 构建时过滤
func (r *Registry) Register(ep Endpoint) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.endpoints[ep.Name()] = ep
}

// Names 返回已注册且启用的端点名称，排序输出
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.endpoints))
	for name := range r.endpoints {
		if r.cfg.Enabled(name) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Handler 构建挂载好全部启用端点的 http.Handler
// 根路径返回端点目录；构建时快照端点集合，之后的注册不影响已构建的 Handler
func (r *Registry) Handler() http.Handler {
	names := r.Names()

	mux := http.NewServeMux()
	r.mu.RLock()
	for _, name := range names {
		prefix := "/" + name
		h := instrument(name, relativeTo(prefix, r.endpoints[name]))
		mux.Handle(prefix, h)
		mux.Handle(prefix+"/", h)
	}
	r.mu.RUnlock()

	mux.Handle("/", indexHandler(names))

	r.log.Info("Management endpoints mounted", zap.Strings("endpoints", names))

	var h http.Handler = mux
	for i := len(r.guards) - 1; i >= 0; i-- {
		h = r.guards[i](h)
	}
	return h
}

// indexHandler 端点目录，路径相对管理根
func indexHandler(names []string) http.Handler {
	links := make(map[string]string, len(names))
	for _, name := range names {
		links[name] = "/" + name
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// "/" 模式兜底全部未匹配路径，目录只服务根路径本身
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		writeDocument(w, http.StatusOK, map[string]any{"endpoints": links})
	})
}

// instrument 统计端点命中次数
// 仅对已挂载端点计数，标签基数有上界
func instrument(name string, h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		metrics.EndpointHitTotal.WithLabelValues(name).Inc()
		h.ServeHTTP(w, r)
	})
}

// relativeTo 重写请求路径为相对端点挂载点的路径，保证以 "/" 开头
func relativeTo(prefix string, h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p := strings.TrimPrefix(r.URL.Path, prefix)
		if !strings.HasPrefix(p, "/") {
			p = "/" + p
		}
		clone := r.Clone(r.Context())
		clone.URL.Path = p
		h.ServeHTTP(w, clone)
	})
}

// writeDocument 写出文档型 JSON
// health/info/env 为文档端点，不包统一响应结构；动作端点走 response 包
func writeDocument(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}
