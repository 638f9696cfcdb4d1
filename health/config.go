package health

import "time"

// Config 健康检查配置。
type Config struct {
	// Timeout 单个指示器的检查超时。
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
	// DiskSpace 磁盘空间检查, 默认关闭。
	DiskSpace DiskSpaceConfig `yaml:"diskspace" mapstructure:"diskspace"`
}

// DiskSpaceConfig 磁盘空间检查配置。
type DiskSpaceConfig struct {
	Enabled     bool   `yaml:"enabled" mapstructure:"enabled"`
	Path        string `yaml:"path" mapstructure:"path"`
	ThresholdMB uint64 `yaml:"threshold_mb" mapstructure:"threshold_mb"`
}
