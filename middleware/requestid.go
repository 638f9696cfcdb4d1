package middleware

import (
	"context"
	"net/http"

	idgen "github.com/aisgo/ais-admin-go-pkg/utils/id-generator/ulid"
)

/* ========================================================================
 * Request ID - 请求标识中间件
 * ========================================================================
 * 职责: 为每个管理端点请求分配 ULID 请求标识并回写响应头
 * ======================================================================== */

// RequestIDHeader 请求标识使用的 HTTP Header
const RequestIDHeader = "X-Request-Id"

type requestIDKey struct{}

// RequestID 返回 net/http 中间件
// 请求已携带 X-Request-Id 时沿用，否则生成新的 ULID
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = idgen.GenerateString()
		}

		w.Header().Set(RequestIDHeader, id)
		ctx := context.WithValue(r.Context(), requestIDKey{}, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequestIDFromContext 从 Context 提取请求标识
func RequestIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(requestIDKey{}).(string)
	return id, ok
}
