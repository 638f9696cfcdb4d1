package validator

import (
	"strings"
	"testing"
)

type accountForm struct {
	Email    string `validate:"required,email" error_msg:"required:邮箱必填|email:邮箱格式错误"`
	Password string `validate:"required,min=8" error_msg:"required:密码必填|min:密码至少8位"`
}

type settingsForm struct {
	BasePath string `validate:"omitempty,startswith=/" error_msg:"startswith=/:路径必须以 / 开头"`
	Account  accountForm
}

func TestValidateCustomMessages(t *testing.T) {
	t.Parallel()

	err := New().Validate(&accountForm{Email: "not-an-email", Password: "short"})
	if err == nil {
		t.Fatal("expected validation error")
	}
	verr, ok := err.(*ValidationError)
	if !ok {
		t.Fatalf("unexpected error type: %T", err)
	}
	if got := verr.Get("Email"); len(got) != 1 || got[0] != "邮箱格式错误" {
		t.Fatalf("unexpected email errors: %v", got)
	}
	if got := verr.Get("Password"); len(got) != 1 || got[0] != "密码至少8位" {
		t.Fatalf("unexpected password errors: %v", got)
	}
}

func TestValidateNestedPaths(t *testing.T) {
	t.Parallel()

	err := New().Validate(settingsForm{BasePath: "admin"})
	if err == nil {
		t.Fatal("expected validation error")
	}
	verr, ok := err.(*ValidationError)
	if !ok {
		t.Fatalf("unexpected error type: %T", err)
	}

	// 带参数的规则用 "规则=参数" 键精确命中消息
	if got := verr.Get("BasePath"); len(got) != 1 || got[0] != "路径必须以 / 开头" {
		t.Fatalf("unexpected base path errors: %v", got)
	}
	// 嵌套字段带上完整路径
	if got := verr.Get("Account.Email"); len(got) != 1 || got[0] != "邮箱必填" {
		t.Fatalf("unexpected nested errors: %v", got)
	}
}

func TestValidateOmitEmpty(t *testing.T) {
	t.Parallel()

	cfg := settingsForm{Account: accountForm{Email: "ops@example.com", Password: "longenough"}}
	if err := New().Validate(cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateFallbackMessage(t *testing.T) {
	t.Parallel()

	type bare struct {
		Count int `validate:"min=3"`
	}

	err := New().Validate(bare{Count: 1})
	verr, ok := err.(*ValidationError)
	if !ok {
		t.Fatalf("unexpected error type: %T", err)
	}
	// 无 error_msg 标签时回退到规则描述
	if got := verr.Get("Count"); len(got) != 1 || got[0] != "failed on rule min=3" {
		t.Fatalf("unexpected fallback message: %v", got)
	}
}

func TestValidateNilAndNonStruct(t *testing.T) {
	t.Parallel()

	v := New()
	if err := v.Validate(nil); err != nil {
		t.Fatalf("nil input must pass: %v", err)
	}

	err := v.Validate(42)
	if err == nil {
		t.Fatal("non-struct input must fail")
	}
	if _, ok := err.(*ValidationError); ok {
		t.Fatalf("non-struct failure must not be a field error: %v", err)
	}
}

func TestStructUsesDefaultValidator(t *testing.T) {
	t.Parallel()

	if err := Struct(accountForm{}); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestValidationErrorOutput(t *testing.T) {
	t.Parallel()

	verr := &ValidationError{}
	verr.Add("B", "second")
	verr.Add("A", "first")

	got := verr.Error()
	if !strings.HasPrefix(got, "A: first") {
		t.Fatalf("fields must be sorted: %q", got)
	}
	if !verr.HasErrors() {
		t.Fatal("expected HasErrors")
	}
}
