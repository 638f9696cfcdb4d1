package health

import (
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"gorm.io/gorm"

	"github.com/aisgo/ais-admin-go-pkg/logger"
)

// Params 声明注册表的依赖, 数据源均为可选, 注入即自动注册对应指示器。
type Params struct {
	fx.In

	Config Config                `optional:"true"`
	Logger *logger.Logger        `optional:"true"`
	DB     *gorm.DB              `optional:"true"`
	Redis  redis.UniversalClient `optional:"true"`
}

// NewHealthRegistry 创建注册表并装配内置指示器。
func NewHealthRegistry(p Params) *Registry {
	opts := []RegistryOption{}
	if p.Logger != nil {
		opts = append(opts, WithLogger(p.Logger))
	}
	if p.Config.Timeout > 0 {
		opts = append(opts, WithTimeout(p.Config.Timeout))
	}

	r := NewRegistry(opts...)
	r.Register(NewPingIndicator())

	if p.DB != nil {
		r.Register(NewDBIndicator("db", p.DB))
	}
	if p.Redis != nil {
		r.Register(NewRedisIndicator("redis", p.Redis))
	}
	if p.Config.DiskSpace.Enabled {
		r.Register(NewDiskSpaceIndicator(
			"diskspace",
			p.Config.DiskSpace.Path,
			p.Config.DiskSpace.ThresholdMB*1024*1024,
		))
	}
	return r
}

// Module 注册健康检查组件。
var Module = fx.Module("health",
	fx.Provide(NewHealthRegistry),
)
