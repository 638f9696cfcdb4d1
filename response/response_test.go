package response

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"

	aiserrors "github.com/aisgo/ais-admin-go-pkg/errors"
)

func runHandler(t *testing.T, handler fiber.Handler) *http.Response {
	t.Helper()

	app := fiber.New()
	app.Get("/t", handler)

	resp, err := app.Test(httptest.NewRequest("GET", "/t", nil), fiber.TestConfig{Timeout: 2 * time.Second})
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) Result {
	t.Helper()
	defer resp.Body.Close()

	var got Result
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return got
}

func TestErrorBizError(t *testing.T) {
	t.Parallel()

	resp := runHandler(t, func(c fiber.Ctx) error {
		return Error(c, aiserrors.New(aiserrors.ErrCodeInvalidArgument, "bad request"))
	})
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("unexpected status: got=%d want=%d", resp.StatusCode, fiber.StatusBadRequest)
	}

	got := decodeBody(t, resp)
	if got.Code != int(aiserrors.ErrCodeInvalidArgument) {
		t.Fatalf("unexpected code: got=%d want=%d", got.Code, int(aiserrors.ErrCodeInvalidArgument))
	}
	if got.Msg != "bad request" {
		t.Fatalf("unexpected msg: %q", got.Msg)
	}
}

func TestErrorPlain(t *testing.T) {
	t.Parallel()

	resp := runHandler(t, func(c fiber.Ctx) error {
		return Error(c, io.ErrUnexpectedEOF)
	})
	if resp.StatusCode != fiber.StatusInternalServerError {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}

	got := decodeBody(t, resp)
	if got.Msg != io.ErrUnexpectedEOF.Error() {
		t.Fatalf("unexpected msg: %q", got.Msg)
	}
}

func TestErrorNil(t *testing.T) {
	t.Parallel()

	resp := runHandler(t, func(c fiber.Ctx) error {
		return Error(c, nil)
	})
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}
}

func TestOkWithData(t *testing.T) {
	t.Parallel()

	resp := runHandler(t, func(c fiber.Ctx) error {
		return OkWithData(c, map[string]int{"port": 9090})
	})

	got := decodeBody(t, resp)
	data, ok := got.Data.(map[string]interface{})
	if !ok || data["port"] != float64(9090) {
		t.Fatalf("unexpected data: %v", got.Data)
	}
}

func TestOkDataNeverNull(t *testing.T) {
	t.Parallel()

	resp := runHandler(t, Ok)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	// data 字段序列化为空对象而不是 null
	if !strings.Contains(string(body), `"data":{}`) {
		t.Fatalf("unexpected body: %s", body)
	}
}
