package shutdown

import (
	"context"
	"os"
	"os/signal"
	"sort"
	"sync"
	"syscall"
	"time"

	"github.com/aisgo/ais-admin-go-pkg/logger"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

/* ========================================================================
 * Shutdown Manager - 优雅关停管理器
 * ========================================================================
 * 职责: 编排应用的关停流程
 * 特性:
 *   - 钩子按优先级分批执行, 同批并行
 *   - 全局超时 + 单钩子超时双层控制
 *   - 信号触发与管理端点触发共用一次性保护
 * ======================================================================== */

// 预定义优先级, 数值越小越先执行
// 管理面挂在 PriorityLate, 业务流量停止后仍可观测一段时间
const (
	PriorityFirst  = 0
	PriorityNormal = 100
	PriorityLate   = 200
)

// ShutdownHook 关停钩子
type ShutdownHook func(ctx context.Context) error

// registeredHook 注册记录
type registeredHook struct {
	name     string
	run      ShutdownHook
	priority int
}

// Manager 优雅关停管理器
type Manager struct {
	logger      *logger.Logger
	timeout     time.Duration
	hookTimeout time.Duration

	mu    sync.RWMutex
	hooks []registeredHook

	once sync.Once
	done chan struct{}
}

// ManagerParams 依赖参数
type ManagerParams struct {
	fx.In

	Logger *logger.Logger
	Config *Config `optional:"true"`
}

// NewManager 创建优雅关停管理器
func NewManager(p ManagerParams) *Manager {
	cfg := p.Config
	if cfg == nil {
		cfg = DefaultConfig()
	}
	log := p.Logger
	if log == nil {
		log = logger.NewNop()
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultConfig().Timeout
	}

	return &Manager{
		logger:      log,
		timeout:     timeout,
		hookTimeout: cfg.HookTimeout,
		done:        make(chan struct{}),
	}
}

// RegisterHook 注册关停钩子, 使用默认优先级
func (m *Manager) RegisterHook(name string, hook ShutdownHook) {
	m.RegisterHookWithPriority(name, hook, PriorityNormal)
}

// RegisterHookWithPriority 注册关停钩子
// 数值小的优先级先执行, 同优先级的钩子并行执行
func (m *Manager) RegisterHookWithPriority(name string, hook ShutdownHook, priority int) {
	m.mu.Lock()
	m.hooks = append(m.hooks, registeredHook{name: name, run: hook, priority: priority})
	m.mu.Unlock()

	m.logger.Info("Shutdown hook registered",
		zap.String("name", name),
		zap.Int("priority", priority),
	)
}

// Wait 阻塞等待 SIGINT, SIGTERM 或 SIGQUIT, 收到后执行关停
func (m *Manager) Wait() {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	sig := <-sigs
	m.logger.Info("Received shutdown signal", zap.String("signal", sig.String()))

	m.Shutdown(context.Background())
}

// Shutdown 执行关停流程
// 可直接调用, 不依赖信号; 多次调用只生效一次
func (m *Manager) Shutdown(ctx context.Context) {
	m.once.Do(func() {
		m.runHooks(ctx)
		close(m.done)
	})
}

// Done 返回关停完成通道
func (m *Manager) Done() <-chan struct{} {
	return m.done
}

// WaitForShutdown 阻塞直到关停完成
func (m *Manager) WaitForShutdown() {
	<-m.done
}

// IsShutdown 是否已完成关停
func (m *Manager) IsShutdown() bool {
	select {
	case <-m.done:
		return true
	default:
		return false
	}
}

// runHooks 按优先级分批执行全部钩子
func (m *Manager) runHooks(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	m.mu.RLock()
	total := len(m.hooks)
	buckets := make(map[int][]registeredHook, total)
	for _, h := range m.hooks {
		buckets[h.priority] = append(buckets[h.priority], h)
	}
	m.mu.RUnlock()

	priorities := make([]int, 0, len(buckets))
	for p := range buckets {
		priorities = append(priorities, p)
	}
	sort.Ints(priorities)

	m.logger.Info("Graceful shutdown started",
		zap.Int("hooks", total),
		zap.Duration("timeout", m.timeout),
	)

	var completed, failed int
	for _, p := range priorities {
		if ctx.Err() != nil {
			m.logger.Warn("Shutdown timeout reached, skipping remaining hooks",
				zap.Int("priority", p),
			)
			break
		}

		batch := buckets[p]
		m.logger.Info("Running shutdown hooks",
			zap.Int("priority", p),
			zap.Int("count", len(batch)),
		)

		ok, bad := m.runBatch(ctx, batch)
		completed += ok + bad
		failed += bad
	}

	m.logger.Info("Shutdown summary",
		zap.Int("completed", completed),
		zap.Int("failed", failed),
		zap.Int("registered", total),
	)

	if ctx.Err() == nil {
		m.logger.Info("Graceful shutdown completed")
	} else {
		m.logger.Warn("Graceful shutdown timed out")
	}
}

// runBatch 并行执行同一优先级的钩子, 返回成功与失败计数
// 上下文到期时放弃等待, 未送达的结果不计入
func (m *Manager) runBatch(ctx context.Context, batch []registeredHook) (ok, failed int) {
	results := make(chan error, len(batch))

	for _, h := range batch {
		go func() {
			// 单钩子超时, 防止一个慢钩子吃掉整个关停预算
			hctx := ctx
			if m.hookTimeout > 0 {
				var cancel context.CancelFunc
				hctx, cancel = context.WithTimeout(ctx, m.hookTimeout)
				defer cancel()
			}

			start := time.Now()
			err := h.run(hctx)
			elapsed := time.Since(start)

			if err != nil {
				m.logger.Error("Shutdown hook failed",
					zap.String("name", h.name),
					zap.Duration("duration", elapsed),
					zap.Error(err),
				)
			} else {
				m.logger.Info("Shutdown hook done",
					zap.String("name", h.name),
					zap.Duration("duration", elapsed),
				)
			}

			results <- err
		}()
	}

	for received := 0; received < len(batch); received++ {
		select {
		case err := <-results:
			if err != nil {
				failed++
			} else {
				ok++
			}
		case <-ctx.Done():
			m.logger.Warn("Shutdown deadline reached, abandoning hook batch",
				zap.Int("received", received),
				zap.Int("total", len(batch)),
			)
			return ok, failed
		}
	}

	return ok, failed
}
