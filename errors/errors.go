package errors

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gofiber/fiber/v3"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

/* ========================================================================
 * AIS Admin Error Package - 统一错误处理
 * ========================================================================
 * 职责: 定义业务错误码, 提供错误包装和转换工具
 * 分段: 1xxx 通用错误, 2xxx 配置错误 (启动期校验失败时快速失败)
 * ======================================================================== */

// ErrorCode 业务错误码
type ErrorCode int

const (
	// 通用错误 (1xxx)
	ErrCodeUnknown          ErrorCode = 1000 // 未知错误
	ErrCodeInvalidArgument  ErrorCode = 1001 // 参数无效
	ErrCodeNotFound         ErrorCode = 1002 // 资源不存在
	ErrCodeAlreadyExists    ErrorCode = 1003 // 资源已存在
	ErrCodePermissionDenied ErrorCode = 1004 // 权限不足
	ErrCodeUnauthenticated  ErrorCode = 1005 // 未认证
	ErrCodeInternal         ErrorCode = 1006 // 内部错误
	ErrCodeUnavailable      ErrorCode = 1007 // 服务不可用
	ErrCodeTimeout          ErrorCode = 1008 // 超时
	ErrCodeCanceled         ErrorCode = 1009 // 已取消

	// 配置错误 (2xxx), 仅在启动期出现
	ErrCodeConfigInvalid  ErrorCode = 2000 // 配置无效
	ErrCodeConfigConflict ErrorCode = 2001 // 配置互相冲突
)

// 预定义错误, 便于 errors.Is 判断
var (
	ErrInvalidArgument  = New(ErrCodeInvalidArgument, "invalid argument")
	ErrNotFound         = New(ErrCodeNotFound, "resource not found")
	ErrAlreadyExists    = New(ErrCodeAlreadyExists, "resource already exists")
	ErrPermissionDenied = New(ErrCodePermissionDenied, "permission denied")
	ErrUnauthenticated  = New(ErrCodeUnauthenticated, "unauthenticated")
	ErrInternal         = New(ErrCodeInternal, "internal error")
	ErrUnavailable      = New(ErrCodeUnavailable, "service unavailable")
	ErrTimeout          = New(ErrCodeTimeout, "timeout")
	ErrCanceled         = New(ErrCodeCanceled, "canceled")

	ErrConfigInvalid  = New(ErrCodeConfigInvalid, "invalid configuration")
	ErrConfigConflict = New(ErrCodeConfigConflict, "conflicting configuration")
)

// BizError 业务错误
type BizError struct {
	Code    ErrorCode // 业务错误码
	Message string    // 错误消息
	Cause   error     // 原始错误
}

// Error 实现 error 接口
func (e *BizError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// Is 支持 errors.Is, 按业务错误码匹配
func (e *BizError) Is(target error) bool {
	t, ok := target.(*BizError)
	return ok && e.Code == t.Code
}

// Unwrap 支持 errors.Is 和 errors.As 沿因果链下钻
func (e *BizError) Unwrap() error { return e.Cause }

// New 创建业务错误
func New(code ErrorCode, message string) *BizError {
	return &BizError{Code: code, Message: message}
}

// Newf 格式化创建业务错误
func Newf(code ErrorCode, format string, args ...any) *BizError {
	return &BizError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap 包装错误
func Wrap(code ErrorCode, message string, cause error) *BizError {
	return &BizError{Code: code, Message: message, Cause: cause}
}

// Wrapf 格式化包装错误
func Wrapf(code ErrorCode, cause error, format string, args ...any) *BizError {
	return &BizError{Code: code, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// Is 判断错误是否为指定类型
func Is(err, target error) bool { return errors.Is(err, target) }

// As 将错误转换为指定类型
func As(err error, target any) bool { return errors.As(err, target) }

// Code 提取业务错误码, 非业务错误归为 ErrCodeUnknown
func Code(err error) ErrorCode {
	var bizErr *BizError
	if errors.As(err, &bizErr) {
		return bizErr.Code
	}
	return ErrCodeUnknown
}

// IsNotFound 判断是否为 NotFound 错误
func IsNotFound(err error) bool { return Code(err) == ErrCodeNotFound }

// IsConfigError 判断是否为配置错误 (2xxx 段)
func IsConfigError(err error) bool {
	code := Code(err)
	return code >= ErrCodeConfigInvalid && code < ErrorCode(3000)
}

// AsBizError 将错误转换为 BizError
func AsBizError(err error) (*BizError, bool) {
	if err == nil {
		return nil, false
	}
	var bizErr *BizError
	if errors.As(err, &bizErr) {
		return bizErr, true
	}
	return nil, false
}

// ========================================================================
// gRPC 错误转换
// ========================================================================

// grpcCodeMap gRPC 状态码到业务错误码映射, 未列出的归为内部错误
var grpcCodeMap = map[codes.Code]ErrorCode{
	codes.InvalidArgument:  ErrCodeInvalidArgument,
	codes.NotFound:         ErrCodeNotFound,
	codes.AlreadyExists:    ErrCodeAlreadyExists,
	codes.PermissionDenied: ErrCodePermissionDenied,
	codes.Unauthenticated:  ErrCodeUnauthenticated,
	codes.Unavailable:      ErrCodeUnavailable,
	codes.DeadlineExceeded: ErrCodeTimeout,
	codes.Canceled:         ErrCodeCanceled,
}

// FromGRPCError 将上游 gRPC 错误转换为业务错误
// 用于健康检查客户端等依赖 gRPC 上游的场景
func FromGRPCError(err error) *BizError {
	if err == nil {
		return nil
	}

	st, ok := status.FromError(err)
	if !ok {
		return Wrap(ErrCodeUnknown, "unknown error", err)
	}

	code, ok := grpcCodeMap[st.Code()]
	if !ok {
		code = ErrCodeInternal
	}
	return New(code, st.Message())
}

// ========================================================================
// HTTP 错误转换
// ========================================================================

// httpStatusDefaults 业务错误码到 HTTP 状态码的默认映射
var httpStatusDefaults = map[ErrorCode]int{
	ErrCodeUnknown:          500,
	ErrCodeInvalidArgument:  400,
	ErrCodeNotFound:         404,
	ErrCodeAlreadyExists:    409,
	ErrCodePermissionDenied: 403,
	ErrCodeUnauthenticated:  401,
	ErrCodeInternal:         500,
	ErrCodeUnavailable:      503,
	ErrCodeTimeout:          504,
	ErrCodeCanceled:         499,
	ErrCodeConfigInvalid:    500,
	ErrCodeConfigConflict:   500,
}

var (
	httpStatusMu         sync.RWMutex
	httpStatusOverrides  = make(map[ErrorCode]int)
	httpStatusResolverFn func(ErrorCode) (int, bool)
)

// RegisterHTTPStatus 注册业务错误码与 HTTP 状态码映射, 优先于默认映射
func RegisterHTTPStatus(code ErrorCode, status int) {
	httpStatusMu.Lock()
	defer httpStatusMu.Unlock()
	httpStatusOverrides[code] = status
}

// SetHTTPStatusResolver 设置自定义的 HTTP 状态码解析器
// 解析器返回 (status, true) 表示命中, 否则落回默认映射
func SetHTTPStatusResolver(resolver func(ErrorCode) (int, bool)) {
	httpStatusMu.Lock()
	defer httpStatusMu.Unlock()
	httpStatusResolverFn = resolver
}

// resolveHTTPStatus 解析顺序: 注册覆盖 > 自定义解析器 > 默认映射 > 500
func resolveHTTPStatus(code ErrorCode) int {
	httpStatusMu.RLock()
	if status, ok := httpStatusOverrides[code]; ok {
		httpStatusMu.RUnlock()
		return status
	}
	resolver := httpStatusResolverFn
	httpStatusMu.RUnlock()

	if resolver != nil {
		if status, ok := resolver(code); ok {
			return status
		}
	}
	if status, ok := httpStatusDefaults[code]; ok {
		return status
	}
	return 500
}

// ToHTTPResponse 将业务错误转换为 HTTP 状态码与响应体
func ToHTTPResponse(err error) (int, fiber.Map) {
	if err == nil {
		return 200, fiber.Map{"code": 0, "msg": "success"}
	}

	if bizErr, ok := AsBizError(err); ok {
		return resolveHTTPStatus(bizErr.Code), fiber.Map{
			"code": int(bizErr.Code),
			"msg":  bizErr.Message,
		}
	}
	return 500, fiber.Map{"code": 500, "msg": "internal server error"}
}
