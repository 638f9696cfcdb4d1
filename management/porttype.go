package management

import (
	"github.com/aisgo/ais-admin-go-pkg/appctx"
)

// PortType 表示管理端口与主服务端口的关系。
type PortType int

const (
	// PortDisabled 管理端口为负数, 管理面整体关闭。
	PortDisabled PortType = iota
	// PortSame 管理端点与主服务共用同一端口。
	PortSame
	// PortDifferent 管理端点运行在独立的子服务器上下文。
	PortDifferent
)

func (t PortType) String() string {
	switch t {
	case PortDisabled:
		return "disabled"
	case PortSame:
		return "same"
	case PortDifferent:
		return "different"
	default:
		return "unknown"
	}
}

// ResolvePortType 根据主服务端口与管理端口推导部署模式。
// nil 表示端口未配置:
//   - 管理端口为负 → disabled
//   - 管理端口未配置 → same
//   - 主端口未配置且管理端口等于默认端口(8080) → same
//   - 管理端口非零且与主端口相等 → same
//   - 其余(包括 0 临时端口) → different
func ResolvePortType(serverPort, managementPort *int) PortType {
	if managementPort != nil && *managementPort < 0 {
		return PortDisabled
	}
	if managementPort == nil {
		return PortSame
	}
	if serverPort == nil && *managementPort == appctx.DefaultServerPort {
		return PortSame
	}
	if *managementPort != 0 && serverPort != nil && *managementPort == *serverPort {
		return PortSame
	}
	return PortDifferent
}
