package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/prometheus/client_golang/prometheus"
)

/* ========================================================================
 * HTTP Metrics Middleware - 请求指标中间件
 * ========================================================================
 * 职责: 记录主服务器 HTTP 请求总量与延迟
 * ======================================================================== */

// HTTPMiddlewareConfig 请求指标中间件配置
type HTTPMiddlewareConfig struct {
	// RequestTotal 计数器, 标签: method, path, status
	RequestTotal *prometheus.CounterVec

	// RequestDuration 延迟直方图, 标签: method, path, status
	RequestDuration *prometheus.HistogramVec

	// Skipper 返回 true 时跳过该请求的指标记录
	Skipper func(fiber.Ctx) bool
}

// HTTPMetricsMiddleware 记录 HTTP 请求指标
// path 标签取路由模板而非原始路径, 避免路径参数撑爆标签基数
func HTTPMetricsMiddleware(cfg *HTTPMiddlewareConfig) fiber.Handler {
	config := &HTTPMiddlewareConfig{}
	if cfg != nil {
		*config = *cfg
	}
	if config.RequestTotal == nil {
		config.RequestTotal = HTTPRequestTotal
	}
	if config.RequestDuration == nil {
		config.RequestDuration = HTTPRequestDuration
	}

	return func(c fiber.Ctx) error {
		if config.Skipper != nil && config.Skipper(c) {
			return c.Next()
		}

		start := time.Now()
		err := c.Next()

		path := c.Path()
		if route := c.Route(); route != nil && route.Path != "" && route.Path != "/" {
			path = route.Path
		}
		method := c.Method()
		status := strconv.Itoa(c.Response().StatusCode())

		config.RequestTotal.WithLabelValues(method, path, status).Inc()
		config.RequestDuration.WithLabelValues(method, path, status).Observe(time.Since(start).Seconds())
		return err
	}
}
