package management

import (
	"context"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"go.uber.org/fx/fxtest"

	"github.com/aisgo/ais-admin-go-pkg/appctx"
	"github.com/aisgo/ais-admin-go-pkg/health"
	"github.com/aisgo/ais-admin-go-pkg/logger"
	"github.com/aisgo/ais-admin-go-pkg/middleware"
	"github.com/aisgo/ais-admin-go-pkg/props"
	"github.com/aisgo/ais-admin-go-pkg/shutdown"
)

func TestNewEndpointRegistryMinimal(t *testing.T) {
	reg, err := NewEndpointRegistry(EndpointParams{
		ServerCfg: appctx.ServerConfig{AppName: "orders-api"},
	})
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}

	want := []string{"info", "metrics", "pprof"}
	if got := reg.Names(); !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected endpoints: %v", got)
	}
}

func TestNewEndpointRegistryFull(t *testing.T) {
	log := logger.NewNop()
	cfg := Config{}
	cfg.Endpoints.ShutdownEnabled = true

	reg, err := NewEndpointRegistry(EndpointParams{
		Config:    cfg,
		ServerCfg: appctx.ServerConfig{AppName: "orders-api"},
		Logger:    log,
		Props:     props.NewRegistry(),
		Health:    health.NewRegistry(),
		Shutdown:  shutdown.NewManager(shutdown.ManagerParams{}),
	})
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}

	want := []string{"env", "health", "info", "loggers", "metrics", "pprof", "shutdown"}
	if got := reg.Names(); !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected endpoints: %v", got)
	}
}

func TestNewEndpointRegistryTokenGuard(t *testing.T) {
	cfg := Config{Security: SecurityConfig{AccessToken: "s3cret"}}
	reg, err := NewEndpointRegistry(EndpointParams{
		Config:    cfg,
		ServerCfg: appctx.ServerConfig{AppName: "orders-api"},
	})
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	h := reg.Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}
	if rec.Header().Get(middleware.RequestIDHeader) == "" {
		t.Fatal("request id must be set before rejection")
	}

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-API-Key", "s3cret")
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with token, got %d", rec.Code)
	}
}

func TestNewEndpointRegistryBadRateLimit(t *testing.T) {
	cfg := Config{Security: SecurityConfig{RateLimit: "nonsense"}}
	_, err := NewEndpointRegistry(EndpointParams{
		Config:    cfg,
		ServerCfg: appctx.ServerConfig{AppName: "orders-api"},
	})
	if err == nil {
		t.Fatal("invalid rate limit must fail assembly")
	}
}

func TestNewManagementCoordinatorLifecycle(t *testing.T) {
	parent := newFakeContext("orders-api")
	child := newFakeContext("child")
	factory := &fakeFactory{child: child}
	mgr := shutdown.NewManager(shutdown.ManagerParams{})

	reg, err := NewEndpointRegistry(EndpointParams{
		ServerCfg: appctx.ServerConfig{AppName: "orders-api"},
	})
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}

	lc := fxtest.NewLifecycle(t)
	c, err := NewManagementCoordinator(Params{
		Lc:        lc,
		Config:    Config{Server: ServerConfig{Port: intPtr(9090)}},
		ServerCfg: appctx.ServerConfig{Port: 8080, AppName: "orders-api"},
		Parent:    parent,
		Endpoints: reg,
		Factory:   factory,
		Shutdown:  mgr,
	})
	if err != nil {
		t.Fatalf("coordinator: %v", err)
	}

	lc.RequireStart()
	if c.Mode() != PortDifferent {
		t.Fatalf("unexpected mode: %v", c.Mode())
	}
	if child.refreshCount() != 1 {
		t.Fatalf("child not started: %d", child.refreshCount())
	}

	lc.RequireStop()
	if child.closeCount() != 1 {
		t.Fatalf("child not closed: %d", child.closeCount())
	}

	// shutdown 钩子与 fx OnStop 双路触发, Stop 幂等保证只关一次
	mgr.Shutdown(context.Background())
	if child.closeCount() != 1 {
		t.Fatalf("redundant close through shutdown hook: %d", child.closeCount())
	}
}

func TestNewManagementCoordinatorRejectsBadConfig(t *testing.T) {
	parent := newFakeContext("orders-api")
	lc := fxtest.NewLifecycle(t)

	_, err := NewManagementCoordinator(Params{
		Lc:        lc,
		Config:    Config{Server: ServerConfig{BasePath: "admin"}},
		ServerCfg: appctx.ServerConfig{Port: 8080},
		Parent:    parent,
	})
	if err == nil {
		t.Fatal("invalid base path must fail construction")
	}
}
