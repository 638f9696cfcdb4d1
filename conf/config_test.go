package conf

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

type sampleConfig struct {
	Server struct {
		Port    int           `yaml:"port" mapstructure:"port"`
		Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
	} `yaml:"server" mapstructure:"server"`
	Management struct {
		BasePath string `yaml:"base_path" mapstructure:"base_path"`
	} `yaml:"management" mapstructure:"management"`
}

func writeConfigDir(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "app.yaml"), []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return dir
}

func TestLoadYAMLWithDurations(t *testing.T) {
	dir := writeConfigDir(t, "server:\n  port: 9090\n  timeout: 5s\nmanagement:\n  base_path: /admin\n")

	var cfg sampleConfig
	if err := NewLoader(dir, "app", "yaml").Load(&cfg); err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Fatalf("unexpected port: %d", cfg.Server.Port)
	}
	if cfg.Server.Timeout != 5*time.Second {
		t.Fatalf("unexpected timeout: %v", cfg.Server.Timeout)
	}
	if cfg.Management.BasePath != "/admin" {
		t.Fatalf("unexpected base path: %q", cfg.Management.BasePath)
	}
}

func TestEnvPlaceholderExpansion(t *testing.T) {
	t.Setenv("MGMT_PORT", "9191")
	dir := writeConfigDir(t, "server:\n  port: ${MGMT_PORT:-8080}\nmanagement:\n  base_path: ${MGMT_BASE:-/admin}\n")

	var cfg sampleConfig
	if err := NewLoader(dir, "app", "yaml").Load(&cfg); err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != 9191 {
		t.Fatalf("expected env override, got: %d", cfg.Server.Port)
	}
	if cfg.Management.BasePath != "/admin" {
		t.Fatalf("expected placeholder default, got: %q", cfg.Management.BasePath)
	}
}

func TestEnvPrefixOverride(t *testing.T) {
	t.Setenv("MYAPP_SERVER_PORT", "7070")
	// 环境变量覆盖只对配置文件中已出现的键生效
	dir := writeConfigDir(t, "server:\n  port: 9090\n")

	var cfg sampleConfig
	if err := NewLoaderWithEnvPrefix(dir, "app", "yaml", "MYAPP").Load(&cfg); err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != 7070 {
		t.Fatalf("expected env override, got: %d", cfg.Server.Port)
	}
}

func TestKeyLoaderGet(t *testing.T) {
	dir := writeConfigDir(t, "server:\n  port: 9090\nmanagement:\n  base_path: /admin\n")
	loader := NewLoader(dir, "app", "yaml")

	val, ok := loader.Get("server.port")
	if !ok || val != "9090" {
		t.Fatalf("unexpected value: %q ok=%v", val, ok)
	}
	if _, ok := loader.Get("server.missing"); ok {
		t.Fatalf("expected miss for unknown key")
	}

	keys := loader.Keys()
	found := false
	for _, key := range keys {
		if key == "management.base_path" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected management.base_path in keys: %v", keys)
	}
}
