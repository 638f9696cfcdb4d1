package ulid

import (
	"crypto/rand"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

/* ========================================================================
 * ULID Generator - 事件与请求标识
 * ========================================================================
 * 职责: 生成生命周期事件 ID 与请求 ID
 * 特性: 26 字符 Crockford Base32, 按时间戳字典序排序,
 *       同一毫秒内单调递增
 * ======================================================================== */

// Generator 并发安全的 ULID 生成器
// Monotonic 熵源本身不是并发安全的, 所有读取都在锁内进行
type Generator struct {
	mu      sync.Mutex
	entropy io.Reader
}

// NewGenerator 创建生成器, entropy 为 nil 时使用 crypto/rand
// 自定义熵源主要服务于测试场景
func NewGenerator(entropy io.Reader) *Generator {
	if entropy == nil {
		entropy = rand.Reader
	}
	if _, ok := entropy.(ulid.MonotonicEntropy); !ok {
		entropy = ulid.Monotonic(entropy, 0)
	}
	return &Generator{entropy: entropy}
}

// Generate 生成当前时刻的 ULID
func (g *Generator) Generate() ulid.ULID {
	return g.At(time.Now())
}

// GenerateString 生成当前时刻的 ULID 字符串
func (g *Generator) GenerateString() string {
	return g.Generate().String()
}

// At 生成指定时刻的 ULID
func (g *Generator) At(t time.Time) ulid.ULID {
	g.mu.Lock()
	defer g.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(t), g.entropy)
}

// std 包级默认生成器, 加密安全熵源
var std = NewGenerator(nil)

// Generate 使用包级默认生成器生成 ULID
func Generate() ulid.ULID { return std.Generate() }

// GenerateString 使用包级默认生成器生成 ULID 字符串
//
// 示例:
//
//	id := ulid.GenerateString() // 01HN3K8X9FQZM6Y8VWXQR2JNPT
func GenerateString() string { return std.GenerateString() }

// At 使用包级默认生成器生成指定时刻的 ULID
func At(t time.Time) ulid.ULID { return std.At(t) }

// Parse 解析 ULID 字符串
func Parse(s string) (ulid.ULID, error) { return ulid.Parse(s) }

// Time 提取 ULID 的毫秒时间戳
func Time(id ulid.ULID) time.Time { return ulid.Time(id.Time()) }

// ToUUID 把 ULID 重新解释为 UUID
// 两者都是 128 位, 字节原样复制, 结果不带 RFC 4122 版本位
func ToUUID(id ulid.ULID) uuid.UUID {
	var u uuid.UUID
	copy(u[:], id[:])
	return u
}

// FromUUID 把 UUID 重新解释为 ULID
// 字节原样复制, 时间戳字段只有来源按 ULID 布局时才有意义
func FromUUID(u uuid.UUID) ulid.ULID {
	var id ulid.ULID
	copy(id[:], u[:])
	return id
}
