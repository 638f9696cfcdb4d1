package response

/* ========================================================================
 * Response Types - 响应类型定义
 * ======================================================================== */

// Result 标准 API 响应结构
// 管理端点与业务路由共用同一响应形态
type Result struct {
	Code int         `json:"code"` // 业务码, 普通响应与 HTTP 状态码一致
	Msg  string      `json:"msg"`
	Data interface{} `json:"data"`
}
