/*
===============================================================================
健康检查
===============================================================================

职责:
  - 定义健康状态模型与指示器接口
  - 聚合多个指示器的检查结果, 取最差状态

特性:
  - 指示器并行执行, 单项超时
  - 指示器 panic 降级为 UNKNOWN, 不影响其它检查
  - 聚合顺序稳定, 组件名排序输出
===============================================================================
*/

package health

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/aisgo/ais-admin-go-pkg/logger"
	"github.com/aisgo/ais-admin-go-pkg/metrics"
)

// Status 健康状态。
type Status string

const (
	StatusUp           Status = "UP"
	StatusDown         Status = "DOWN"
	StatusOutOfService Status = "OUT_OF_SERVICE"
	StatusUnknown      Status = "UNKNOWN"
)

// severity 数值越大越差, 聚合取最大者。
func (s Status) severity() int {
	switch s {
	case StatusUp:
		return 0
	case StatusUnknown:
		return 1
	case StatusOutOfService:
		return 2
	case StatusDown:
		return 3
	default:
		return 1
	}
}

// WorstOf 返回一组状态中最差的一个, 空输入视为 UP。
func WorstOf(statuses ...Status) Status {
	worst := StatusUp
	for _, s := range statuses {
		if s.severity() > worst.severity() {
			worst = s
		}
	}
	return worst
}

// Check 单个指示器的检查结果。
type Check struct {
	Status  Status         `json:"status"`
	Details map[string]any `json:"details,omitempty"`
}

// Up 返回 UP 结果。
func Up() Check {
	return Check{Status: StatusUp}
}

// UpWithDetails 返回带明细的 UP 结果。
func UpWithDetails(details map[string]any) Check {
	return Check{Status: StatusUp, Details: details}
}

// Down 返回 DOWN 结果, 错误信息写入明细。
func Down(err error) Check {
	chk := Check{Status: StatusDown}
	if err != nil {
		chk.Details = map[string]any{"error": err.Error()}
	}
	return chk
}

// Indicator 健康指示器。实现方应尊重 ctx 超时。
type Indicator interface {
	Name() string
	Check(ctx context.Context) Check
}

// IndicatorFunc 函数式指示器。
type IndicatorFunc struct {
	name string
	fn   func(ctx context.Context) Check
}

// NewIndicatorFunc 包装函数为指示器。
func NewIndicatorFunc(name string, fn func(ctx context.Context) Check) *IndicatorFunc {
	return &IndicatorFunc{name: name, fn: fn}
}

func (i *IndicatorFunc) Name() string                    { return i.name }
func (i *IndicatorFunc) Check(ctx context.Context) Check { return i.fn(ctx) }

// Result 聚合结果。
type Result struct {
	Status     Status           `json:"status"`
	Components map[string]Check `json:"components,omitempty"`
}

// defaultCheckTimeout 单个指示器的默认超时。
const defaultCheckTimeout = 5 * time.Second

// Registry 指示器注册表。
type Registry struct {
	mu         sync.RWMutex
	indicators []Indicator
	timeout    time.Duration
	log        *logger.Logger
}

// RegistryOption 配置注册表。
type RegistryOption func(*Registry)

// WithTimeout 设置单项检查超时。
func WithTimeout(d time.Duration) RegistryOption {
	return func(r *Registry) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithLogger 设置日志器。
func WithLogger(log *logger.Logger) RegistryOption {
	return func(r *Registry) { r.log = log }
}

// NewRegistry 创建指示器注册表。
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		timeout: defaultCheckTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.log == nil {
		r.log = logger.NewNop()
	}
	return r
}

// Register 注册指示器, 同名后注册者覆盖先注册者。
func (r *Registry) Register(ind Indicator) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, existing := range r.indicators {
		if existing.Name() == ind.Name() {
			r.indicators[i] = ind
			return
		}
	}
	r.indicators = append(r.indicators, ind)
}

// Unregister 按名称移除指示器。
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, existing := range r.indicators {
		if existing.Name() == name {
			r.indicators = append(r.indicators[:i], r.indicators[i+1:]...)
			return
		}
	}
}

// Names 返回已注册指示器名称, 排序输出。
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.indicators))
	for _, ind := range r.indicators {
		names = append(names, ind.Name())
	}
	sort.Strings(names)
	return names
}

// CheckOne 按名称执行单个指示器, 未注册时第二个返回值为 false。
func (r *Registry) CheckOne(ctx context.Context, name string) (Check, bool) {
	r.mu.RLock()
	var target Indicator
	for _, ind := range r.indicators {
		if ind.Name() == name {
			target = ind
			break
		}
	}
	r.mu.RUnlock()

	if target == nil {
		return Check{}, false
	}
	return r.runOne(ctx, target), true
}

// Aggregate 并行执行全部指示器并聚合结果, 整体状态取最差。
func (r *Registry) Aggregate(ctx context.Context) Result {
	r.mu.RLock()
	indicators := make([]Indicator, len(r.indicators))
	copy(indicators, r.indicators)
	r.mu.RUnlock()

	result := Result{
		Status:     StatusUp,
		Components: make(map[string]Check, len(indicators)),
	}
	if len(indicators) == 0 {
		return result
	}

	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	for _, ind := range indicators {
		wg.Add(1)
		go func(ind Indicator) {
			defer wg.Done()
			chk := r.runOne(ctx, ind)

			mu.Lock()
			result.Components[ind.Name()] = chk
			result.Status = WorstOf(result.Status, chk.Status)
			mu.Unlock()
		}(ind)
	}
	wg.Wait()

	return result
}

// runOne 执行单个指示器, 超时降级为 DOWN, panic 降级为 UNKNOWN。
// 内部 goroutine 保证卡死的指示器不会阻塞聚合。
func (r *Registry) runOne(ctx context.Context, ind Indicator) Check {
	cctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	done := make(chan Check, 1)
	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				r.log.Error("Health indicator panicked",
					zap.String("indicator", ind.Name()),
					zap.Any("panic", rec),
				)
				done <- Check{
					Status:  StatusUnknown,
					Details: map[string]any{"error": fmt.Sprintf("indicator panicked: %v", rec)},
				}
			}
		}()
		done <- ind.Check(cctx)
	}()

	var chk Check
	select {
	case chk = <-done:
	case <-cctx.Done():
		r.log.Warn("Health indicator timed out",
			zap.String("indicator", ind.Name()),
			zap.Duration("timeout", r.timeout),
		)
		chk = Check{
			Status:  StatusDown,
			Details: map[string]any{"error": "check timed out"},
		}
	}

	metrics.HealthCheckDuration.
		WithLabelValues(ind.Name(), string(chk.Status)).
		Observe(time.Since(start).Seconds())
	return chk
}
