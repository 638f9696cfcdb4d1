package management

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/aisgo/ais-admin-go-pkg/appctx"
	"github.com/aisgo/ais-admin-go-pkg/lifecycle"
	"github.com/aisgo/ais-admin-go-pkg/logger"
)

// linkCloseTimeout 传播触发的子上下文关闭超时。
const linkCloseTimeout = 10 * time.Second

// propagationLink 在父上下文与管理子上下文之间建立一次性关闭传播。
// 父上下文关闭或启动失败时关闭子上下文, 且至多触发一次。
type propagationLink struct {
	parent appctx.Context
	child  appctx.Context
	log    *logger.Logger

	fired  atomic.Bool
	cancel func()
}

// armPropagationLink 在父事件总线上注册传播监听。
// 父上下文不发布生命周期事件时返回 nil, 调用方静默跳过。
func armPropagationLink(parent, child appctx.Context, log *logger.Logger) *propagationLink {
	bus := parent.Events()
	if bus == nil {
		return nil
	}
	link := &propagationLink{
		parent: parent,
		child:  child,
		log:    log,
	}
	link.cancel = bus.Subscribe(link.onParentEvent)
	return link
}

func (l *propagationLink) onParentEvent(evt lifecycle.Event) {
	// 只认父上下文本体发出的事件, 其它来源一律忽略
	if evt.Source != any(l.parent) {
		return
	}
	switch evt.Kind {
	case lifecycle.KindClosed, lifecycle.KindStartFailed:
	default:
		return
	}
	if !l.fired.CompareAndSwap(false, true) {
		return
	}
	l.cancel()

	ctx, cancel := context.WithTimeout(context.Background(), linkCloseTimeout)
	defer cancel()

	l.log.Info("Closing management context after parent event",
		zap.String("parent", l.parent.ID()),
		zap.String("event", evt.Kind.String()),
	)
	if err := l.child.Close(ctx); err != nil {
		l.log.Error("Failed to close management context",
			zap.String("context", l.child.ID()),
			zap.Error(err),
		)
	}
}

// disarm 解除监听, 已触发过的链接不受影响。
func (l *propagationLink) disarm() {
	if l == nil {
		return
	}
	l.cancel()
}
