package response

import (
	"encoding/json"
	"net/http"

	"github.com/aisgo/ais-admin-go-pkg/errors"
)

/* ========================================================================
 * Response (net/http) - 统一响应处理
 * ========================================================================
 * 职责: 为 http.Handler 形态的管理端点提供与 Fiber 侧一致的响应格式
 * ======================================================================== */

// writeJSON 写出 JSON 响应，序列化失败时退化为纯文本 500
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	body, err := json.Marshal(v)
	if err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// writeResult 按状态码写出标准响应结构
func writeResult(w http.ResponseWriter, status int, msg string, data interface{}) {
	status = clampStatus(status)
	writeJSON(w, status, result(status, msg, data))
}

// WriteOk 返回成功响应 (默认消息 "ok")
func WriteOk(w http.ResponseWriter) {
	writeResult(w, http.StatusOK, "ok", nil)
}

// WriteOkWithData 返回成功响应（带数据）
func WriteOkWithData(w http.ResponseWriter, data interface{}) {
	writeResult(w, http.StatusOK, "ok", data)
}

// WriteOkWithMsg 返回成功响应（自定义消息）
func WriteOkWithMsg(w http.ResponseWriter, msg string) {
	writeResult(w, http.StatusOK, msg, nil)
}

// WriteError 返回错误响应
// 自动识别 BizError 类型，使用其 HTTP 状态码和错误消息
func WriteError(w http.ResponseWriter, err error) {
	if err == nil {
		WriteOk(w)
		return
	}

	if bizErr, ok := errors.AsBizError(err); ok {
		status, body := errors.ToHTTPResponse(bizErr)
		writeJSON(w, status, result(body["code"].(int), body["msg"].(string), nil))
		return
	}
	writeResult(w, http.StatusInternalServerError, err.Error(), nil)
}

// WriteBadRequest 返回 400 错误
func WriteBadRequest(w http.ResponseWriter, msg string) {
	writeResult(w, http.StatusBadRequest, msg, nil)
}

// WriteUnauthorized 返回 401 错误
func WriteUnauthorized(w http.ResponseWriter, msg string) {
	writeResult(w, http.StatusUnauthorized, msg, nil)
}

// WriteNotFound 返回 404 错误
func WriteNotFound(w http.ResponseWriter, msg string) {
	writeResult(w, http.StatusNotFound, msg, nil)
}

// WriteMethodNotAllowed 返回 405 错误
func WriteMethodNotAllowed(w http.ResponseWriter, msg string) {
	writeResult(w, http.StatusMethodNotAllowed, msg, nil)
}

// WriteTooManyRequests 返回 429 错误
func WriteTooManyRequests(w http.ResponseWriter, msg string) {
	writeResult(w, http.StatusTooManyRequests, msg, nil)
}

// WriteServiceUnavailable 返回 503 错误
func WriteServiceUnavailable(w http.ResponseWriter, msg string) {
	writeResult(w, http.StatusServiceUnavailable, msg, nil)
}
