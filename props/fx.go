package props

import (
	"go.uber.org/fx"
)

// Module 属性注册表 Fx 模块
var Module = fx.Module("props",
	fx.Provide(NewRegistry),
)
