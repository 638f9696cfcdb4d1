package management

import (
	"github.com/aisgo/ais-admin-go-pkg/appctx"
	"github.com/aisgo/ais-admin-go-pkg/management/endpoint"
	"github.com/aisgo/ais-admin-go-pkg/validator"
)

const (
	// Namespace 子上下文的路由命名空间。
	Namespace = "management"
	// ChildIDSuffix 子上下文标识后缀, 子 ID = 父 ID + 该后缀。
	ChildIDSuffix = ":management"
	// DefaultBasePath 共享端口模式下推荐的端点挂载前缀。
	DefaultBasePath = "/admin"
)

// Config 是 management.* 配置树。
type Config struct {
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Endpoints endpoint.Config `yaml:"endpoints" mapstructure:"endpoints"`
	Security  SecurityConfig  `yaml:"security" mapstructure:"security"`
}

// ServerConfig 是 management.server.* 配置树。
// Port 为 nil 表示未配置(共用主端口), 负数表示整体关闭管理面。
type ServerConfig struct {
	Port     *int      `yaml:"port" mapstructure:"port"`
	Host     string    `yaml:"host" mapstructure:"host"`
	BasePath string    `yaml:"base-path" mapstructure:"base-path" validate:"omitempty,startswith=/" error_msg:"startswith=/:base-path 必须以 / 开头"`
	SSL      SSLConfig `yaml:"ssl" mapstructure:"ssl"`
}

// SSLConfig 是 management.server.ssl.* 配置树。
// 仅独立端口模式允许启用, 证书由子上下文监听器终结。
type SSLConfig struct {
	Enabled        bool   `yaml:"enabled" mapstructure:"enabled"`
	CertFile       string `yaml:"cert-file" mapstructure:"cert-file"`
	CertKeyFile    string `yaml:"cert-key-file" mapstructure:"cert-key-file"`
	CertClientFile string `yaml:"cert-client-file" mapstructure:"cert-client-file"`
}

// SecurityConfig 管理端点的访问控制。
type SecurityConfig struct {
	// AccessToken 非空时所有管理端点要求携带该令牌。
	AccessToken string `yaml:"access-token" mapstructure:"access-token"`
	// RateLimit 形如 "100-M" 的限流描述, 空值不限流。
	RateLimit string `yaml:"rate-limit" mapstructure:"rate-limit"`
}

// ValidateConfig 校验配置结构, 不做模式相关的交叉检查。
func ValidateConfig(cfg Config) error {
	return validator.New().Validate(&cfg)
}

// ChildServerConfig 从主服务器配置派生子服务器配置。
// 主机名等缺省值继承自主配置, 端口与 TLS 始终以管理配置为准。
func (c Config) ChildServerConfig(parent appctx.ServerConfig) (appctx.ServerConfig, error) {
	overrides := appctx.ServerConfig{Host: c.Server.Host}
	if c.Server.Port != nil {
		overrides.Port = *c.Server.Port
	}
	if c.Server.SSL.Enabled {
		overrides.Listen.CertFile = c.Server.SSL.CertFile
		overrides.Listen.CertKeyFile = c.Server.SSL.CertKeyFile
		overrides.Listen.CertClientFile = c.Server.SSL.CertClientFile
	}
	return appctx.DeriveChildConfig(parent, overrides)
}
