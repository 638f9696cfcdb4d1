package appctx

import (
	"fmt"
	"time"

	"dario.cat/mergo"
)

// DefaultServerPort 服务器默认端口
const DefaultServerPort = 8080

// ServerConfig 服务器上下文配置
type ServerConfig struct {
	Port         int           `yaml:"port" mapstructure:"port"`
	Host         string        `yaml:"host" mapstructure:"host"`
	AppName      string        `yaml:"app_name" mapstructure:"app_name"`
	ReadTimeout  time.Duration `yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout" mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout" mapstructure:"idle_timeout"`

	// EnableRecover 是否启用 Panic 恢复中间件，默认 true（生产环境推荐）
	// 设为 false 可在开发/测试环境直接暴露 panic，便于问题定位
	EnableRecover *bool `yaml:"enable_recover" mapstructure:"enable_recover"`

	// EnableRequestMetrics 是否记录请求指标（app_http_*），默认 false
	// 记录的指标经由管理面 /metrics 端点暴露
	EnableRequestMetrics bool `yaml:"enable_request_metrics" mapstructure:"enable_request_metrics"`

	// Listen 监听相关的可序列化配置项
	Listen ListenOptions `yaml:"listen" mapstructure:"listen"`
}

// ListenOptions 监听配置
// 函数类型等无法序列化的高级选项走各实现的 Customizer
type ListenOptions struct {
	// 是否禁用启动消息，默认 false
	DisableStartupMessage bool `yaml:"disable_startup_message" mapstructure:"disable_startup_message"`

	// 监听网络类型（tcp, tcp4, tcp6），默认 tcp4
	ListenerNetwork string `yaml:"listener_network" mapstructure:"listener_network"`

	// TLS 证书文件路径
	CertFile string `yaml:"cert_file" mapstructure:"cert_file"`

	// TLS 证书私钥文件路径
	CertKeyFile string `yaml:"cert_key_file" mapstructure:"cert_key_file"`

	// mTLS 客户端证书文件路径
	CertClientFile string `yaml:"cert_client_file" mapstructure:"cert_client_file"`

	// 优雅关闭超时时间，默认 10s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" mapstructure:"shutdown_timeout"`

	// TLS 最低版本，默认 TLS 1.2
	// 可选值: 771 (TLS 1.2), 772 (TLS 1.3)
	TLSMinVersion uint16 `yaml:"tls_min_version" mapstructure:"tls_min_version"`
}

// TLSEnabled 是否配置了 TLS 证书
func (o ListenOptions) TLSEnabled() bool {
	return o.CertFile != "" && o.CertKeyFile != ""
}

// Normalize 应用默认值，返回规范化副本
func (c ServerConfig) Normalize() ServerConfig {
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = 30 * time.Second
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = 30 * time.Second
	}
	if c.IdleTimeout <= 0 {
		c.IdleTimeout = 120 * time.Second
	}
	if c.AppName == "" {
		c.AppName = "application"
	}
	if c.Listen.ListenerNetwork == "" {
		c.Listen.ListenerNetwork = "tcp4"
	}
	return c
}

// Addr 返回监听地址
func (c ServerConfig) Addr() string {
	if c.Host != "" {
		return fmt.Sprintf("%s:%d", c.Host, c.Port)
	}
	return fmt.Sprintf(":%d", c.Port)
}

// DeriveChildConfig 为独立管理上下文合成子服务器配置
// 以 overrides（管理侧配置）为主，父配置填补未设置的字段；
// 端口与 TLS 证书永不继承：端口是模式判定依据，TLS 由管理配置自行决定
func DeriveChildConfig(parent, overrides ServerConfig) (ServerConfig, error) {
	child := overrides
	if err := mergo.Merge(&child, parent); err != nil {
		return ServerConfig{}, err
	}

	child.Port = overrides.Port
	child.Listen.CertFile = overrides.Listen.CertFile
	child.Listen.CertKeyFile = overrides.Listen.CertKeyFile
	child.Listen.CertClientFile = overrides.Listen.CertClientFile
	return child, nil
}
