package conf

import (
	"bytes"
	"os"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

/* ========================================================================
 * Config Loader - 配置加载器
 * ========================================================================
 * 职责: 统一配置加载，支持 YAML / JSON / 环境变量
 * 技术: Viper + mapstructure
 * 特性: 按键读取能力供属性源桥接（env 端点、端口属性解析依赖此能力）
 * ======================================================================== */

// Loader 定义配置加载接口
type Loader interface {
	Load(config any) error
}

// KeyLoader 在 Load 基础上支持按键读取，属性源桥接依赖此能力
type KeyLoader interface {
	Loader
	Get(key string) (string, bool)
	Keys() []string
}

type viperLoader struct {
	configPath string
	configName string
	configType string
	envPrefix  string

	mu sync.Mutex
	v  *viper.Viper // 最近一次读取的快照
}

var envPlaceholderPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-(.*?))?\}`)

func expandEnvPlaceholders(raw string) string {
	return envPlaceholderPattern.ReplaceAllStringFunc(raw, func(match string) string {
		sub := envPlaceholderPattern.FindStringSubmatch(match)
		if len(sub) < 2 {
			return match
		}

		name := sub[1]
		def := ""
		if len(sub) >= 3 {
			def = sub[2]
		}

		// 兼容 bash 的 ${VAR:-default} 语义：未设置或为空字符串时使用 default
		if val, ok := os.LookupEnv(name); ok && val != "" {
			return val
		}
		if def != "" {
			return def
		}
		return ""
	})
}

// NewLoader 创建一个新的配置加载器
// configPath: 配置文件目录
// configName: 配置文件名 (不含扩展名)
// configType: 配置文件类型 (yaml, json 等)
func NewLoader(configPath, configName, configType string) KeyLoader {
	return &viperLoader{
		configPath: configPath,
		configName: configName,
		configType: configType,
		envPrefix:  "APP", // 默认环境变量前缀
	}
}

// NewLoaderWithEnvPrefix 创建带自定义环境变量前缀的配置加载器
func NewLoaderWithEnvPrefix(configPath, configName, configType, envPrefix string) KeyLoader {
	return &viperLoader{
		configPath: configPath,
		configName: configName,
		configType: configType,
		envPrefix:  envPrefix,
	}
}

func (l *viperLoader) Load(config any) error {
	v, err := l.read()
	if err != nil {
		return err
	}

	l.mu.Lock()
	l.v = v
	l.mu.Unlock()

	return v.Unmarshal(config, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)))
}

// Get 按键读取配置值（小写点分路径），未加载时触发一次读取
func (l *viperLoader) Get(key string) (string, bool) {
	v, err := l.cached()
	if err != nil {
		return "", false
	}
	if !v.IsSet(key) {
		return "", false
	}
	return v.GetString(key), true
}

// Keys 返回所有已知配置键，按字典序
func (l *viperLoader) Keys() []string {
	v, err := l.cached()
	if err != nil {
		return nil
	}
	keys := v.AllKeys()
	sort.Strings(keys)
	return keys
}

func (l *viperLoader) cached() (*viper.Viper, error) {
	l.mu.Lock()
	v := l.v
	l.mu.Unlock()
	if v != nil {
		return v, nil
	}

	fresh, err := l.read()
	if err != nil {
		return nil, err
	}
	l.mu.Lock()
	l.v = fresh
	l.mu.Unlock()
	return fresh, nil
}

func (l *viperLoader) read() (*viper.Viper, error) {
	// 先让 viper 帮我们定位配置文件（支持 AddConfigPath + SetConfigName 的搜索逻辑）
	finder := viper.New()
	finder.AddConfigPath(l.configPath)
	finder.SetConfigName(l.configName)
	finder.SetConfigType(l.configType)

	finder.SetEnvPrefix(l.envPrefix)
	finder.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	finder.AutomaticEnv()

	if err := finder.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}
	configFile := finder.ConfigFileUsed()

	// 再读取一次配置：在进入 viper 解析前，做 ${VAR} / ${VAR:-default} 的环境变量占位符展开
	v := viper.New()
	v.SetEnvPrefix(l.envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		raw, err := os.ReadFile(configFile)
		if err != nil {
			return nil, err
		}
		expanded := expandEnvPlaceholders(string(raw))

		v.SetConfigType(l.configType)
		if err := v.ReadConfig(bytes.NewBufferString(expanded)); err != nil {
			return nil, err
		}
	}

	return v, nil
}
