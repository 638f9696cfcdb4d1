package endpoint

import (
	"net/http"
	"strings"

	"github.com/aisgo/ais-admin-go-pkg/props"
)

// secretKeywords 键名含这些片段时属性值被脱敏
var secretKeywords = []string{"password", "passwd", "secret", "token", "credential", "key"}

// maskedValue 脱敏占位值
const maskedValue = "******"

// EnvEndpoint 属性环境端点，按优先级导出属性注册表各源内容
type EnvEndpoint struct {
	registry *props.Registry
}

// NewEnvEndpoint 创建环境端点
func NewEnvEndpoint(registry *props.Registry) *EnvEndpoint {
	return &EnvEndpoint{registry: registry}
}

func (e *EnvEndpoint) Name() string { return NameEnv }

func (e *EnvEndpoint) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		writeDocument(w, http.StatusMethodNotAllowed, map[string]any{"error": "method not allowed"})
		return
	}

	// Dump 返回快照，原地脱敏不影响注册表
	dumps := e.registry.Dump()
	for _, dump := range dumps {
		for key := range dump.Properties {
			if isSecretKey(key) {
				dump.Properties[key] = maskedValue
			}
		}
	}
	writeDocument(w, http.StatusOK, map[string]any{"property_sources": dumps})
}

// isSecretKey 判断键名是否疑似敏感信息
func isSecretKey(key string) bool {
	lower := strings.ToLower(key)
	for _, kw := range secretKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
