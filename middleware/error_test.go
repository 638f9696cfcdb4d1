package middleware

import (
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"

	aiserrors "github.com/aisgo/ais-admin-go-pkg/errors"
	"github.com/aisgo/ais-admin-go-pkg/response"
)

func TestErrorHandlerBizError(t *testing.T) {
	t.Parallel()

	app := fiber.New(fiber.Config{ErrorHandler: NewErrorHandler(nil)})
	app.Get("/boom", func(c fiber.Ctx) error {
		return aiserrors.New(aiserrors.ErrCodeNotFound, "no such resource")
	})

	req := httptest.NewRequest("GET", "/boom", nil)
	resp, err := app.Test(req, fiber.TestConfig{Timeout: 2 * time.Second})
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != fiber.StatusNotFound {
		t.Fatalf("unexpected status: got=%d want=%d", resp.StatusCode, fiber.StatusNotFound)
	}

	var got response.Result
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.Code != int(aiserrors.ErrCodeNotFound) {
		t.Fatalf("unexpected code: got=%d want=%d", got.Code, int(aiserrors.ErrCodeNotFound))
	}
	if got.Msg != "no such resource" {
		t.Fatalf("unexpected msg: %q", got.Msg)
	}
}

func TestErrorHandlerPlainError(t *testing.T) {
	t.Parallel()

	app := fiber.New(fiber.Config{ErrorHandler: NewErrorHandler(nil)})
	app.Get("/boom", func(c fiber.Ctx) error {
		return fiber.ErrTeapot
	})

	req := httptest.NewRequest("GET", "/boom", nil)
	resp, err := app.Test(req, fiber.TestConfig{Timeout: 2 * time.Second})
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	// 非业务错误统一按内部错误响应
	if resp.StatusCode != fiber.StatusInternalServerError {
		t.Fatalf("unexpected status: got=%d", resp.StatusCode)
	}
}
