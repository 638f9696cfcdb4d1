package middleware

import (
	"fmt"
	"net"
	"net/http"

	"github.com/aisgo/ais-admin-go-pkg/logger"
	"github.com/aisgo/ais-admin-go-pkg/response"

	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	redisstore "github.com/ulule/limiter/v3/drivers/store/redis"
	"go.uber.org/zap"
)

/* ========================================================================
 * Rate Limit - 管理端点限流
 * ========================================================================
 * 职责: 以远端 IP 为主体对管理端点限流
 * 速率格式: "<limit>-<period>"，如 "100-M" 表示每分钟 100 次
 * 存储: 默认内存，可切换 Redis 以在多实例间共享配额
 * ======================================================================== */

// defaultRateFormat 未配置速率时的默认值
const defaultRateFormat = "1000-S"

// RateLimiter 请求限流器
type RateLimiter struct {
	lim *limiter.Limiter
	log *logger.Logger
}

type rateLimiterOptions struct {
	store limiter.Store
	log   *logger.Logger
}

// RateLimiterOption 限流器选项
type RateLimiterOption func(*rateLimiterOptions)

// WithRateLimiterStore 指定限流计数存储
func WithRateLimiterStore(store limiter.Store) RateLimiterOption {
	return func(o *rateLimiterOptions) {
		if store != nil {
			o.store = store
		}
	}
}

// WithRateLimiterLogger 指定日志器
func WithRateLimiterLogger(log *logger.Logger) RateLimiterOption {
	return func(o *rateLimiterOptions) {
		if log != nil {
			o.log = log
		}
	}
}

// NewRateLimiter 创建限流器，formatted 为空时使用默认速率
func NewRateLimiter(formatted string, opts ...RateLimiterOption) (*RateLimiter, error) {
	if formatted == "" {
		formatted = defaultRateFormat
	}
	rate, err := limiter.NewRateFromFormatted(formatted)
	if err != nil {
		return nil, fmt.Errorf("invalid rate limit %q: %w", formatted, err)
	}

	o := &rateLimiterOptions{log: logger.NewNop()}
	for _, opt := range opts {
		opt(o)
	}
	if o.store == nil {
		o.store = memory.NewStore()
	}

	return &RateLimiter{
		lim: limiter.New(o.store, rate),
		log: o.log,
	}, nil
}

// NewRedisRateLimiter 创建基于 Redis 存储的限流器，多实例共享配额
func NewRedisRateLimiter(formatted string, client redis.UniversalClient, opts ...RateLimiterOption) (*RateLimiter, error) {
	store, err := redisstore.NewStore(client)
	if err != nil {
		return nil, fmt.Errorf("create redis rate limit store: %w", err)
	}
	return NewRateLimiter(formatted, append(opts, WithRateLimiterStore(store))...)
}

// Handler 返回 net/http 中间件
func (rl *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lctx, err := rl.lim.Get(r.Context(), clientKey(r))
		if err != nil {
			rl.log.Error("Rate limit check failed", zap.Error(err))
			response.WriteError(w, fmt.Errorf("rate limit check failed: %w", err))
			return
		}

		w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", lctx.Limit))
		w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", lctx.Remaining))

		if lctx.Reached {
			rl.log.Warn("Rate limit reached",
				zap.String("remote", r.RemoteAddr),
				zap.String("path", r.URL.Path),
			)
			response.WriteTooManyRequests(w, "too many requests")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// clientKey 提取限流主体，远端地址去除端口
func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "ip:" + host
}
