package health

import "context"

// PingIndicator 恒为 UP, 用于确认健康端点本身可达。
type PingIndicator struct{}

// NewPingIndicator 创建 ping 指示器。
func NewPingIndicator() *PingIndicator {
	return &PingIndicator{}
}

func (i *PingIndicator) Name() string { return "ping" }

func (i *PingIndicator) Check(ctx context.Context) Check {
	return Up()
}
