package lifecycle

import (
	"sync"
	"time"

	"github.com/aisgo/ais-admin-go-pkg/utils/id-generator/ulid"
)

/* ========================================================================
 * Lifecycle - 上下文生命周期事件
 * ========================================================================
 * 职责: 定义上下文生命周期事件与同步事件总线
 * 语义: 同步投递、注册顺序投递；监听器须快速返回
 * ======================================================================== */

// Kind 事件类型
type Kind int

const (
	KindRefreshed   Kind = iota + 1 // 上下文启动完成
	KindClosed                      // 上下文已关闭
	KindStartFailed                 // 上下文启动失败
)

// String 返回事件类型名称
func (k Kind) String() string {
	switch k {
	case KindRefreshed:
		return "refreshed"
	case KindClosed:
		return "closed"
	case KindStartFailed:
		return "start_failed"
	default:
		return "unknown"
	}
}

// Event 生命周期事件
// Source 为发布事件的上下文，必须是指针类型，监听器按指针相等判断来源
type Event struct {
	ID     string    // ULID，时间有序
	Kind   Kind      // 事件类型
	Source any       // 事件来源上下文
	Err    error     // 仅启动失败事件携带
	At     time.Time // 发生时间
}

// Refreshed 构造启动完成事件
func Refreshed(source any) Event {
	return newEvent(KindRefreshed, source, nil)
}

// Closed 构造关闭事件
func Closed(source any) Event {
	return newEvent(KindClosed, source, nil)
}

// StartFailed 构造启动失败事件
func StartFailed(source any, err error) Event {
	return newEvent(KindStartFailed, source, err)
}

func newEvent(kind Kind, source any, err error) Event {
	return Event{
		ID:     ulid.GenerateString(),
		Kind:   kind,
		Source: source,
		Err:    err,
		At:     time.Now(),
	}
}

// Listener 事件监听器
type Listener func(Event)

type subscription struct {
	fn Listener
}

// Bus 同步事件总线
// Publish 在调用方 goroutine 内按注册顺序依次投递
type Bus struct {
	mu   sync.Mutex
	subs []*subscription
}

// NewBus 创建事件总线
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe 注册监听器，返回取消函数
// 取消函数可以多次调用，重复调用无副作用
func (b *Bus) Subscribe(fn Listener) (cancel func()) {
	sub := &subscription{fn: fn}
	b.mu.Lock()
	b.subs = append(b.subs, sub)
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		for i, s := range b.subs {
			if s == sub {
				b.subs = append(b.subs[:i], b.subs[i+1:]...)
				return
			}
		}
	}
}

// Publish 发布事件，ID 与时间为空时自动补齐
func (b *Bus) Publish(evt Event) {
	if evt.ID == "" {
		evt.ID = ulid.GenerateString()
	}
	if evt.At.IsZero() {
		evt.At = time.Now()
	}

	// 投递快照，监听器内可安全注册或取消
	b.mu.Lock()
	subs := make([]*subscription, len(b.subs))
	copy(subs, b.subs)
	b.mu.Unlock()

	for _, sub := range subs {
		sub.fn(evt)
	}
}

// Len 返回当前监听器数量
func (b *Bus) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}
