package props

import (
	"github.com/aisgo/ais-admin-go-pkg/conf"
)

// LoaderSource 将配置加载器桥接为属性源，文件与环境变量配置由此进入属性链
type LoaderSource struct {
	name   string
	loader conf.KeyLoader
}

// NewLoaderSource 创建配置加载器属性源
func NewLoaderSource(name string, loader conf.KeyLoader) *LoaderSource {
	return &LoaderSource{name: name, loader: loader}
}

func (s *LoaderSource) Name() string { return s.name }

func (s *LoaderSource) Get(key string) (string, bool) {
	return s.loader.Get(key)
}

func (s *LoaderSource) Keys() []string {
	return s.loader.Keys()
}
