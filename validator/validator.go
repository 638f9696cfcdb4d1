package validator

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

/* ========================================================================
 * Validator - 结构体验证
 * ========================================================================
 * 职责: 配置与请求结构体的声明式验证
 * 特性:
 *   - validate 标签走 go-playground/validator 规则集, 嵌套结构体一并验证
 *   - error_msg 标签定义自定义错误消息, 格式 "规则:消息|规则:消息"
 *   - 带参数的规则可用 "规则=参数" 作为消息键精确匹配
 * 使用示例:
 *     type ServerConfig struct {
 *         BasePath string `validate:"omitempty,startswith=/" error_msg:"startswith=/:路径必须以 / 开头"`
 *     }
 * ======================================================================== */

const (
	tagCustom   = "error_msg"
	ruleSep     = "|"
	keyValueSep = ":"
)

// Validator 结构体验证器
type Validator struct {
	validate *validator.Validate
}

// New 创建验证器
func New() *Validator {
	return &Validator{validate: validator.New(validator.WithRequiredStructEnabled())}
}

// std 包级默认验证器, 验证器无状态可安全共享
var std = New()

// Struct 使用包级默认验证器验证结构体
func Struct(s any) error { return std.Validate(s) }

// Validate 验证结构体
// 验证失败返回 *ValidationError, 字段名为去掉根类型的点分路径
func (v *Validator) Validate(s any) error {
	if s == nil {
		return nil
	}

	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	root := reflect.TypeOf(s)
	out := &ValidationError{}
	for _, fe := range fieldErrs {
		out.Add(fieldPath(fe), messageFor(root, fe))
	}
	return out
}

// fieldPath 去掉根类型名的字段路径, 如 "Server.BasePath"
func fieldPath(fe validator.FieldError) string {
	ns := fe.StructNamespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

// messageFor 解析字段的错误消息, 优先取 error_msg 标签
func messageFor(root reflect.Type, fe validator.FieldError) string {
	if msg, ok := customMessage(root, fe); ok {
		return msg
	}
	if fe.Param() != "" {
		return fmt.Sprintf("failed on rule %s=%s", fe.Tag(), fe.Param())
	}
	return fmt.Sprintf("failed on rule %s", fe.Tag())
}

// customMessage 沿字段路径定位 error_msg 标签并按规则名取消息
func customMessage(root reflect.Type, fe validator.FieldError) (string, bool) {
	field, ok := lookupField(root, fe.StructNamespace())
	if !ok {
		return "", false
	}
	raw := field.Tag.Get(tagCustom)
	if raw == "" {
		return "", false
	}

	messages := parseMessages(raw)
	if fe.Param() != "" {
		if msg, ok := messages[fe.Tag()+"="+fe.Param()]; ok {
			return msg, true
		}
	}
	msg, ok := messages[fe.Tag()]
	return msg, ok
}

// lookupField 按 StructNamespace 从根类型走到出错字段
func lookupField(root reflect.Type, namespace string) (reflect.StructField, bool) {
	segs := strings.Split(namespace, ".")
	if len(segs) < 2 {
		return reflect.StructField{}, false
	}

	t := root
	var field reflect.StructField
	for _, seg := range segs[1:] {
		// 去掉切片与 map 的下标, 如 Items[0]
		if i := strings.IndexByte(seg, '['); i >= 0 {
			seg = seg[:i]
		}
		for t.Kind() == reflect.Ptr || t.Kind() == reflect.Slice || t.Kind() == reflect.Array || t.Kind() == reflect.Map {
			t = t.Elem()
		}
		if t.Kind() != reflect.Struct {
			return reflect.StructField{}, false
		}
		f, ok := t.FieldByName(seg)
		if !ok {
			return reflect.StructField{}, false
		}
		field = f
		t = f.Type
	}
	return field, true
}

// parseMessages 解析 error_msg 标签
// 格式: "required:邮箱必填|email:邮箱格式错误"
func parseMessages(raw string) map[string]string {
	out := make(map[string]string)
	for _, rule := range strings.Split(raw, ruleSep) {
		parts := strings.SplitN(rule, keyValueSep, 2)
		if len(parts) == 2 {
			out[strings.TrimSpace(parts[0])] = strings.TrimSpace(parts[1])
		}
	}
	return out
}
