package validator

import (
	"fmt"
	"sort"
	"strings"
)

// ValidationError 按字段分组的验证错误
type ValidationError struct {
	Fields map[string][]string // 字段路径 -> 错误消息列表
}

// Error 实现 error 接口, 字段按字典序拼接保证输出稳定
func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	var sb strings.Builder
	for i, name := range names {
		if i > 0 {
			sb.WriteString("; ")
		}
		fmt.Fprintf(&sb, "%s: %s", name, strings.Join(e.Fields[name], ", "))
	}
	return sb.String()
}

// Add 添加字段错误
func (e *ValidationError) Add(field, message string) {
	if e.Fields == nil {
		e.Fields = make(map[string][]string)
	}
	e.Fields[field] = append(e.Fields[field], message)
}

// Get 返回字段的错误消息
func (e *ValidationError) Get(field string) []string { return e.Fields[field] }

// HasErrors 是否存在验证错误
func (e *ValidationError) HasErrors() bool { return len(e.Fields) > 0 }
