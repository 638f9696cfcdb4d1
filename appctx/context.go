package appctx

import (
	"context"
	"net/http"

	"github.com/aisgo/ais-admin-go-pkg/conf"
	"github.com/aisgo/ais-admin-go-pkg/lifecycle"
)

/* ========================================================================
 * AppCtx - 应用上下文抽象
 * ========================================================================
 * 职责: 定义服务器上下文接口与可选能力访问器
 * 约定: 一个上下文对应一个 HTTP 服务器；能力访问器在不支持时返回 nil，
 *       调用方据此跳过对应步骤，不做任何类型推断
 * ======================================================================== */

// Context 服务器上下文
// 实现必须是指针类型，生命周期事件按指针相等判断来源
type Context interface {
	// ID 返回上下文标识，管理子上下文的 ID 为父 ID 加 ":management" 后缀
	ID() string
	// SetID 设置上下文标识，须在 Refresh 之前调用
	SetID(id string)

	// Refresh 绑定监听器并开始服务，成功后发布 refreshed 事件
	// 失败时发布 start_failed 事件、清理已绑定的监听器并返回错误
	// 只能调用一次
	Refresh(ctx context.Context) error

	// Close 停止服务并发布 closed 事件，可安全地重复调用
	Close(ctx context.Context) error

	// Events 生命周期事件总线，不支持事件的实现返回 nil
	Events() *lifecycle.Bus

	// Namespacer 命名空间能力，不支持时返回 nil
	Namespacer() Namespacer

	// Resources 资源加载器继承能力，不支持时返回 nil
	Resources() ResourceCarrier

	// Routes 路由挂载能力，不支持时返回 nil
	Routes() RouteRegistrar
}

// Factory 创建子服务器上下文的工厂，由各栈实现提供
// 一个进程只应组合一个栈实现，工厂在组合期随栈模块一起选定
type Factory interface {
	Create(parent Context, cfg ServerConfig) (Context, error)
}

// Namespacer 命名空间能力
type Namespacer interface {
	Namespace() string
	SetNamespace(ns string)
}

// ResourceCarrier 资源加载器的持有与继承能力
type ResourceCarrier interface {
	Loader() conf.Loader
	SetLoader(loader conf.Loader)
}

// RouteRegistrar 路由挂载能力
// Mount 将 handler 挂载到 prefix 下，转发前剥离 prefix
type RouteRegistrar interface {
	Mount(prefix string, handler http.Handler)
}
