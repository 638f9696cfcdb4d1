package props

import (
	"strconv"
	"sync"
)

/* ========================================================================
 * Props - 属性注册表
 * ========================================================================
 * 职责: 有序属性源链，前面的源优先；支持运行时属性与只读别名
 * 用途: 管理端口解析、env 端点数据源、已绑定端口的实时发布
 * ======================================================================== */

// 属性键名，跨包共享
const (
	KeyServerPort          = "server.port"
	KeyManagementPort      = "management.server.port"
	KeyManagementSSL       = "management.server.ssl.enabled"
	KeyManagementBasePath  = "management.server.base-path"
	KeyLocalServerPort     = "local.server.port"
	KeyLocalManagementPort = "local.management.port"
)

// Source 只读属性源
type Source interface {
	Name() string
	Get(key string) (string, bool)
	Keys() []string
}

// Registry 有序属性源集合
// 查询按源顺序进行，第一个命中的源胜出
type Registry struct {
	mu      sync.RWMutex
	sources []Source
	runtime *MapSource
}

// NewRegistry 创建属性注册表，内置最高优先级的 runtime 源
func NewRegistry() *Registry {
	runtime := NewMapSource("runtime", nil)
	return &Registry{
		sources: []Source{runtime},
		runtime: runtime,
	}
}

// AddFirst 插入最高优先级属性源
func (r *Registry) AddFirst(src Source) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sources = append([]Source{src}, r.sources...)
}

// AddLast 追加最低优先级属性源
func (r *Registry) AddLast(src Source) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sources = append(r.sources, src)
}

// Get 按优先级查询属性
func (r *Registry) Get(key string) (string, bool) {
	// 迭代快照而非持锁迭代，别名源解析时会重入 Get
	for _, src := range r.snapshot() {
		if val, ok := src.Get(key); ok {
			return val, true
		}
	}
	return "", false
}

// GetInt 查询整型属性，值不可解析时视为未命中
func (r *Registry) GetInt(key string) (int, bool) {
	val, ok := r.Get(key)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, false
	}
	return n, true
}

// SetRuntime 写入 runtime 源（最初始的最高优先级源）
func (r *Registry) SetRuntime(key, value string) {
	r.runtime.Set(key, value)
}

// SourceNames 返回所有源名称，按优先级排列
func (r *Registry) SourceNames() []string {
	sources := r.snapshot()
	names := make([]string, 0, len(sources))
	for _, src := range sources {
		names = append(names, src.Name())
	}
	return names
}

// SourceDump 单个属性源的内容快照
type SourceDump struct {
	Name       string            `json:"name"`
	Properties map[string]string `json:"properties"`
}

// Dump 导出所有源的内容快照，按优先级排列，供 env 端点使用
func (r *Registry) Dump() []SourceDump {
	sources := r.snapshot()
	dumps := make([]SourceDump, 0, len(sources))
	for _, src := range sources {
		properties := make(map[string]string)
		for _, key := range src.Keys() {
			if val, ok := src.Get(key); ok {
				properties[key] = val
			}
		}
		dumps = append(dumps, SourceDump{Name: src.Name(), Properties: properties})
	}
	return dumps
}

func (r *Registry) snapshot() []Source {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Source, len(r.sources))
	copy(out, r.sources)
	return out
}

// ========================================================================
// MapSource
// ========================================================================

// MapSource 基于哈希表的可写属性源
type MapSource struct {
	name   string
	mu     sync.RWMutex
	values map[string]string
}

// NewMapSource 创建 MapSource，values 可为 nil
func NewMapSource(name string, values map[string]string) *MapSource {
	copied := make(map[string]string, len(values))
	for k, v := range values {
		copied[k] = v
	}
	return &MapSource{name: name, values: copied}
}

func (s *MapSource) Name() string { return s.name }

func (s *MapSource) Get(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	val, ok := s.values[key]
	return val, ok
}

func (s *MapSource) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.values))
	for key := range s.values {
		keys = append(keys, key)
	}
	return keys
}

// Set 写入属性
func (s *MapSource) Set(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
}

// ========================================================================
// AliasSource
// ========================================================================

// Resolver 别名目标的解析入口
type Resolver interface {
	Get(key string) (string, bool)
}

// AliasSource 只读别名源：查询 alias 键时实时解析 target 键
// 不存储任何值，目标变化后立即可见；target 不应再指向别名自身
type AliasSource struct {
	name     string
	alias    string
	target   string
	resolver Resolver
}

// NewAliasSource 创建别名源
func NewAliasSource(name, alias, target string, resolver Resolver) *AliasSource {
	return &AliasSource{name: name, alias: alias, target: target, resolver: resolver}
}

func (s *AliasSource) Name() string { return s.name }

func (s *AliasSource) Get(key string) (string, bool) {
	if key != s.alias {
		return "", false
	}
	return s.resolver.Get(s.target)
}

func (s *AliasSource) Keys() []string {
	return []string{s.alias}
}

// RegisterLocalManagementPortAlias 注册只读别名属性源:
// local.management.port 实时解析为 local.server.port
// 同端口部署时管理端口即业务端口，查询结果始终跟随当前绑定端口
func RegisterLocalManagementPortAlias(r *Registry) {
	r.AddFirst(NewAliasSource("management-server", KeyLocalManagementPort, KeyLocalServerPort, r))
}
