package endpoint

import (
	"net/http"
	"strings"

	"github.com/aisgo/ais-admin-go-pkg/health"
)

// HealthEndpoint 聚合健康检查端点
// GET / 返回总体状态，GET /{name} 返回单个指示器结果
type HealthEndpoint struct {
	registry    *health.Registry
	hideDetails bool
}

// NewHealthEndpoint 创建健康检查端点
// hideDetails 为 true 时仅返回总体状态，不披露分项详情
func NewHealthEndpoint(registry *health.Registry, hideDetails bool) *HealthEndpoint {
	return &HealthEndpoint{registry: registry, hideDetails: hideDetails}
}

func (e *HealthEndpoint) Name() string { return NameHealth }

func (e *HealthEndpoint) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		writeDocument(w, http.StatusMethodNotAllowed, map[string]any{"error": "method not allowed"})
		return
	}

	if name := strings.Trim(r.URL.Path, "/"); name != "" {
		e.serveComponent(w, r, name)
		return
	}

	result := e.registry.Aggregate(r.Context())
	doc := map[string]any{"status": result.Status}
	if !e.hideDetails {
		doc["components"] = result.Components
	}
	writeDocument(w, healthStatusCode(result.Status), doc)
}

// serveComponent 返回单个指示器结果，未注册时 404
func (e *HealthEndpoint) serveComponent(w http.ResponseWriter, r *http.Request, name string) {
	chk, ok := e.registry.CheckOne(r.Context(), name)
	if !ok {
		writeDocument(w, http.StatusNotFound, map[string]any{"error": "unknown health indicator"})
		return
	}

	doc := map[string]any{"status": chk.Status}
	if !e.hideDetails && len(chk.Details) > 0 {
		doc["details"] = chk.Details
	}
	writeDocument(w, healthStatusCode(chk.Status), doc)
}

// healthStatusCode 健康状态到 HTTP 状态码映射
// DOWN 与 OUT_OF_SERVICE 返回 503，其余返回 200
func healthStatusCode(s health.Status) int {
	switch s {
	case health.StatusDown, health.StatusOutOfService:
		return http.StatusServiceUnavailable
	default:
		return http.StatusOK
	}
}
