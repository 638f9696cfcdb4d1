package logger

import (
	"fmt"
	"os"
	"sort"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

/* ========================================================================
 * Logger - 统一日志组件
 * ========================================================================
 * 职责: 提供结构化日志能力，支持 JSON / Console 格式与文件轮转
 * 技术: Uber Zap + Lumberjack
 * 特性: 按名称管理日志级别，支持运行时调整（管理端点依赖此能力）
 * ======================================================================== */

// RootLoggerName 根日志器在级别注册表中的名称
const RootLoggerName = "root"

// Config Logger 配置
type Config struct {
	Level      string `yaml:"level" mapstructure:"level"`             // debug, info, warn, error
	Format     string `yaml:"format" mapstructure:"format"`           // json, console
	Output     string `yaml:"output" mapstructure:"output"`           // stdout 或文件路径
	MaxSizeMB  int    `yaml:"max_size_mb" mapstructure:"max_size_mb"` // 单文件上限 (MB)，仅文件输出生效
	MaxBackups int    `yaml:"max_backups" mapstructure:"max_backups"` // 轮转保留文件数
	MaxAgeDays int    `yaml:"max_age_days" mapstructure:"max_age_days"`
	Compress   bool   `yaml:"compress" mapstructure:"compress"` // 压缩轮转文件
}

// ValidateConfig 校验日志配置
func ValidateConfig(cfg Config) error {
	if cfg.Level != "" {
		var level zapcore.Level
		if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
			return fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
		}
	}
	switch cfg.Format {
	case "", "json", "console":
	default:
		return fmt.Errorf("invalid log format %q", cfg.Format)
	}
	return nil
}

// Logger 封装 Zap Logger
type Logger struct {
	*zap.Logger

	levels  *LevelRegistry
	encoder zapcore.Encoder
	writer  zapcore.WriteSyncer
}

// NewLogger 初始化 Logger
func NewLogger(cfg Config) *Logger {
	// 解析日志级别
	level := zap.InfoLevel
	if cfg.Level != "" {
		_ = level.UnmarshalText([]byte(cfg.Level))
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder

	// 根据格式选择编码器
	var encoder zapcore.Encoder
	if cfg.Format == "console" {
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	} else {
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	}

	// 输出目标: stdout 或文件（文件走 lumberjack 轮转）
	var writer zapcore.WriteSyncer
	if cfg.Output == "" || cfg.Output == "stdout" {
		writer = zapcore.AddSync(os.Stdout)
	} else {
		writer = zapcore.AddSync(&lumberjack.Logger{
			Filename:   cfg.Output,
			MaxSize:    orDefault(cfg.MaxSizeMB, 100),
			MaxBackups: orDefault(cfg.MaxBackups, 5),
			MaxAge:     orDefault(cfg.MaxAgeDays, 30),
			Compress:   cfg.Compress,
		})
	}

	levels := NewLevelRegistry()
	rootLevel := levels.ensure(RootLoggerName, level)

	core := zapcore.NewCore(encoder, writer, rootLevel)
	logger := zap.New(core, zap.AddCaller())
	return &Logger{
		Logger:  logger,
		levels:  levels,
		encoder: encoder,
		writer:  writer,
	}
}

// NewNop 创建空 Logger，供测试使用
func NewNop() *Logger {
	levels := NewLevelRegistry()
	levels.ensure(RootLoggerName, zap.InfoLevel)
	return &Logger{
		Logger:  zap.NewNop(),
		levels:  levels,
		encoder: zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
		writer:  zapcore.AddSync(os.Stderr),
	}
}

// Named 创建带独立级别的子 Logger，注册到级别注册表
// 同名多次调用共享同一个级别
func (l *Logger) Named(name string) *Logger {
	if name == "" {
		return l
	}
	level := l.levels.ensure(name, l.levels.level(RootLoggerName))
	core := zapcore.NewCore(l.encoder.Clone(), l.writer, level)
	return &Logger{
		Logger:  zap.New(core, zap.AddCaller()).Named(name),
		levels:  l.levels,
		encoder: l.encoder,
		writer:  l.writer,
	}
}

// Levels 返回级别注册表
func (l *Logger) Levels() *LevelRegistry {
	return l.levels
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

// ========================================================================
// 级别注册表
// ========================================================================

// LevelRegistry 按名称管理日志级别，可在运行时调整
type LevelRegistry struct {
	mu     sync.RWMutex
	levels map[string]zap.AtomicLevel
}

// NewLevelRegistry 创建级别注册表
func NewLevelRegistry() *LevelRegistry {
	return &LevelRegistry{levels: make(map[string]zap.AtomicLevel)}
}

func (r *LevelRegistry) ensure(name string, level zapcore.Level) zap.AtomicLevel {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.levels[name]; ok {
		return existing
	}
	atomic := zap.NewAtomicLevelAt(level)
	r.levels[name] = atomic
	return atomic
}

func (r *LevelRegistry) level(name string) zapcore.Level {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if atomic, ok := r.levels[name]; ok {
		return atomic.Level()
	}
	return zap.InfoLevel
}

// Get 查询指定名称的级别
func (r *LevelRegistry) Get(name string) (zapcore.Level, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	atomic, ok := r.levels[name]
	if !ok {
		return zap.InfoLevel, false
	}
	return atomic.Level(), true
}

// Set 按文本调整指定名称的级别，未注册的名称返回错误
func (r *LevelRegistry) Set(name, levelText string) error {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(levelText)); err != nil {
		return fmt.Errorf("invalid log level %q: %w", levelText, err)
	}

	r.mu.RLock()
	atomic, ok := r.levels[name]
	r.mu.RUnlock()
	if !ok {
		return fmt.Errorf("unknown logger %q", name)
	}
	atomic.SetLevel(level)
	return nil
}

// Names 返回所有已注册名称，按字典序
func (r *LevelRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.levels))
	for name := range r.levels {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Snapshot 返回名称到级别文本的快照
func (r *LevelRegistry) Snapshot() map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	snapshot := make(map[string]string, len(r.levels))
	for name, atomic := range r.levels {
		snapshot[name] = atomic.Level().String()
	}
	return snapshot
}
