package endpoint

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsEndpoint Prometheus 指标端点，暴露默认注册表
type MetricsEndpoint struct {
	handler http.Handler
}

// NewMetricsEndpoint 创建指标端点
func NewMetricsEndpoint() *MetricsEndpoint {
	return &MetricsEndpoint{handler: promhttp.Handler()}
}

func (e *MetricsEndpoint) Name() string { return NameMetrics }

func (e *MetricsEndpoint) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	e.handler.ServeHTTP(w, r)
}
