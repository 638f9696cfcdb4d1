package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/aisgo/ais-admin-go-pkg/logger"
	"github.com/aisgo/ais-admin-go-pkg/response"

	"go.uber.org/zap"
)

/* ========================================================================
 * Access Token Guard - 管理端点访问令牌守卫
 * ========================================================================
 * 职责: 校验管理端点请求携带的访问令牌
 * 支持两种方式:
 *   1. X-API-Key Header
 *   2. Authorization Bearer Token
 * ======================================================================== */

// TokenGuard 访问令牌守卫
// 管理端点为 http.Handler 形态，守卫以 net/http 中间件实现，
// 同端口与独立端口两种部署方式共用同一条防护链
type TokenGuard struct {
	tokens []string
	log    *logger.Logger
}

// NewTokenGuard 创建访问令牌守卫
// tokens 为空时不做校验，空字符串令牌会被忽略
func NewTokenGuard(log *logger.Logger, tokens ...string) *TokenGuard {
	if log == nil {
		log = logger.NewNop()
	}
	valid := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if t != "" {
			valid = append(valid, t)
		}
	}
	return &TokenGuard{tokens: valid, log: log}
}

// Handler 返回 net/http 中间件
func (g *TokenGuard) Handler(next http.Handler) http.Handler {
	// 未配置令牌时直接放行
	if len(g.tokens) == 0 {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// 从 X-API-Key Header 获取
		token := r.Header.Get("X-API-Key")
		if token == "" {
			// 尝试从 Authorization Bearer 获取
			auth := r.Header.Get("Authorization")
			if strings.HasPrefix(auth, "Bearer ") {
				token = strings.TrimPrefix(auth, "Bearer ")
			}
		}

		if token == "" {
			g.log.Warn("Missing access token",
				zap.String("remote", r.RemoteAddr),
				zap.String("path", r.URL.Path),
			)
			response.WriteUnauthorized(w, "missing access token")
			return
		}

		// 验证令牌 (constant-time 比较防止时序攻击)
		if !g.validate(token) {
			g.log.Warn("Invalid access token",
				zap.String("remote", r.RemoteAddr),
				zap.String("path", r.URL.Path),
			)
			response.WriteUnauthorized(w, "invalid access token")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// validate 验证访问令牌
// 使用 constant-time 比较防止时序攻击
func (g *TokenGuard) validate(token string) bool {
	for _, stored := range g.tokens {
		if subtle.ConstantTimeCompare([]byte(token), []byte(stored)) == 1 {
			return true
		}
	}
	return false
}
