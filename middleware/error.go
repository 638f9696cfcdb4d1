package middleware

import (
	"github.com/aisgo/ais-admin-go-pkg/logger"
	"github.com/aisgo/ais-admin-go-pkg/response"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"
)

/* ========================================================================
 * Error Handler - Fiber 统一错误处理
 * ========================================================================
 * 职责: 业务错误转统一响应格式, 其余错误记录日志后按内部错误返回
 * ======================================================================== */

// NewErrorHandler 创建 Fiber ErrorHandler
// 注入到主服务器上下文后, 路由返回的 error 统一在此转为响应
func NewErrorHandler(log *logger.Logger) fiber.ErrorHandler {
	if log == nil {
		log = logger.NewNop()
	}
	return func(c fiber.Ctx, err error) error {
		if err == nil {
			return nil
		}
		log.Error("Unhandled error",
			zap.Error(err),
			zap.String("path", c.Path()),
			zap.String("method", c.Method()),
		)
		return response.Error(c, err)
	}
}
