package response

import (
	"net/http"

	"github.com/aisgo/ais-admin-go-pkg/errors"

	"github.com/gofiber/fiber/v3"
)

/* ========================================================================
 * Response - 统一响应处理
 * ========================================================================
 * 职责: 提供统一的 HTTP 响应处理函数
 * 特性:
 *   - 标准 JSON 响应格式
 *   - 与 errors 包集成, 自动识别 BizError
 *   - Fiber 与 net/http 双栈 (管理端点为 http.Handler)
 * ======================================================================== */

// result 组装标准响应体
// data 为 nil 时落一个空对象, 避免 data 字段序列化为 null
func result(code int, msg string, data interface{}) *Result {
	if data == nil {
		data = &struct{}{}
	}
	return &Result{Code: code, Msg: msg, Data: data}
}

// clampStatus 把越界状态码收敛为 500
func clampStatus(status int) int {
	if status < http.StatusContinue || status > http.StatusNetworkAuthenticationRequired {
		return http.StatusInternalServerError
	}
	return status
}

// respond 写出 JSON 响应, code 字段与 HTTP 状态码一致
func respond(c fiber.Ctx, status int, msg string, data interface{}) error {
	status = clampStatus(status)
	return c.Status(status).JSON(result(status, msg, data))
}

// Ok 返回成功响应 (默认消息 "ok")
func Ok(c fiber.Ctx) error {
	return respond(c, http.StatusOK, "ok", nil)
}

// OkWithData 返回成功响应 (带数据)
func OkWithData(c fiber.Ctx, data interface{}) error {
	return respond(c, http.StatusOK, "ok", data)
}

// OkWithMsg 返回成功响应 (自定义消息)
func OkWithMsg(c fiber.Ctx, msg string) error {
	return respond(c, http.StatusOK, msg, nil)
}

// Error 返回错误响应
// BizError 用其映射的 HTTP 状态码与业务码, 其余错误统一按 500 处理
func Error(c fiber.Ctx, err error) error {
	if err == nil {
		return Ok(c)
	}

	if bizErr, ok := errors.AsBizError(err); ok {
		status, body := errors.ToHTTPResponse(bizErr)
		return c.Status(status).JSON(result(body["code"].(int), body["msg"].(string), nil))
	}
	return respond(c, http.StatusInternalServerError, err.Error(), nil)
}

// ErrorWithMsg 返回 500 错误响应 (自定义消息)
func ErrorWithMsg(c fiber.Ctx, msg string) error {
	return respond(c, http.StatusInternalServerError, msg, nil)
}
