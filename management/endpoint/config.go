package endpoint

/* ========================================================================
 * Endpoint Config - 管理端点配置
 * ========================================================================
 * 职责: 控制端点暴露范围与个别端点的行为开关
 * ======================================================================== */

// 端点名称，同时作为挂载路径段
const (
	NameHealth   = "health"
	NameInfo     = "info"
	NameEnv      = "env"
	NameMetrics  = "metrics"
	NameLoggers  = "loggers"
	NamePprof    = "pprof"
	NameShutdown = "shutdown"
)

// defaultExposed 未配置 include 时暴露的端点集合
var defaultExposed = []string{
	NameHealth, NameInfo, NameEnv, NameMetrics, NameLoggers, NamePprof, NameShutdown,
}

// Config 端点配置
type Config struct {
	// Include 暴露的端点名单，支持 "*"；为空时暴露默认集合
	Include []string `yaml:"include" mapstructure:"include"`

	// Exclude 排除名单，优先级高于 Include
	Exclude []string `yaml:"exclude" mapstructure:"exclude"`

	// HideHealthDetails 隐藏健康检查分项详情，仅返回总体状态
	HideHealthDetails bool `yaml:"hide_health_details" mapstructure:"hide_health_details"`

	// ShutdownEnabled 启用远程关停端点
	// 默认关闭，出现在 include 名单中也不生效
	ShutdownEnabled bool `yaml:"shutdown_enabled" mapstructure:"shutdown_enabled"`
}

// Enabled 判断端点是否暴露
func (c Config) Enabled(name string) bool {
	if name == NameShutdown && !c.ShutdownEnabled {
		return false
	}
	for _, ex := range c.Exclude {
		if ex == name {
			return false
		}
	}
	include := c.Include
	if len(include) == 0 {
		include = defaultExposed
	}
	for _, in := range include {
		if in == "*" || in == name {
			return true
		}
	}
	return false
}
