package metrics

import (
	"github.com/gofiber/fiber/v3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

/* ========================================================================
 * Prometheus Metrics - 可观测性指标
 * ========================================================================
 * 职责: 声明主服务器请求指标与管理面自身的运行指标
 * ======================================================================== */

var (
	// HTTPRequestTotal 主服务器请求总数
	HTTPRequestTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "app",
			Subsystem: "http",
			Name:      "request_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration 主服务器请求延迟
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "app",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// ManagementContextUp 管理上下文服务状态 (1 在服务 / 0 已停止)
	// mode 标签: same / different / disabled
	ManagementContextUp = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "admin",
			Subsystem: "management",
			Name:      "context_up",
			Help:      "Whether the management context is serving (1) or stopped (0)",
		},
		[]string{"mode"},
	)

	// EndpointHitTotal 管理端点访问次数
	EndpointHitTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "admin",
			Subsystem: "management",
			Name:      "endpoint_hit_total",
			Help:      "Total number of management endpoint requests",
		},
		[]string{"endpoint"},
	)

	// HealthCheckDuration 健康指示器执行时长
	HealthCheckDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "admin",
			Subsystem: "health",
			Name:      "check_duration_seconds",
			Help:      "Health indicator execution duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"indicator", "status"},
	)
)

// RegisterMetricsEndpoint 在 Fiber 应用上注册 /metrics
// 管理面被禁用时, 应用仍可用它在业务端口直接暴露指标
func RegisterMetricsEndpoint(app *fiber.App) {
	handler := fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler())
	app.Get("/metrics", func(c fiber.Ctx) error {
		handler(c.RequestCtx())
		return nil
	})
}
