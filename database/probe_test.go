package database

import (
	"strings"
	"testing"

	"github.com/aisgo/ais-admin-go-pkg/logger"
)

func TestBuildDSNMySQL(t *testing.T) {
	cfg := ProbeConfig{
		Driver:   DriverMySQL,
		Host:     "127.0.0.1",
		Port:     3306,
		User:     "probe",
		Password: "pw",
		DBName:   "orders",
	}

	dsn, err := cfg.BuildDSN()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if !strings.HasPrefix(dsn, "probe:pw@tcp(127.0.0.1:3306)/orders") {
		t.Fatalf("unexpected dsn: %q", dsn)
	}
	if !strings.Contains(dsn, "parseTime=true") || !strings.Contains(dsn, "timeout=3s") {
		t.Fatalf("missing params: %q", dsn)
	}
}

func TestBuildDSNPostgres(t *testing.T) {
	cfg := ProbeConfig{
		Driver:   DriverPostgres,
		Host:     "db.internal",
		Port:     5432,
		User:     "probe",
		Password: "pw",
		DBName:   "orders",
	}

	dsn, err := cfg.BuildDSN()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	for _, part := range []string{"host=db.internal", "port=5432", "sslmode=disable", "connect_timeout=3"} {
		if !strings.Contains(dsn, part) {
			t.Fatalf("missing %q in %q", part, dsn)
		}
	}

	cfg.SSLMode = "verify-full"
	dsn, _ = cfg.BuildDSN()
	if !strings.Contains(dsn, "sslmode=verify-full") {
		t.Fatalf("sslmode not applied: %q", dsn)
	}
}

func TestBuildDSNExplicitWins(t *testing.T) {
	cfg := ProbeConfig{Driver: DriverMySQL, DSN: "custom-dsn", Host: "ignored"}
	dsn, err := cfg.BuildDSN()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if dsn != "custom-dsn" {
		t.Fatalf("explicit dsn must win: %q", dsn)
	}
}

func TestBuildDSNSQLiteRequiresDSN(t *testing.T) {
	if _, err := (ProbeConfig{Driver: DriverSQLite}).BuildDSN(); err == nil {
		t.Fatal("sqlite without dsn must fail")
	}
}

func TestBuildDSNUnknownDriver(t *testing.T) {
	if _, err := (ProbeConfig{Driver: "oracle"}).BuildDSN(); err == nil {
		t.Fatal("unknown driver must fail")
	}
}

func TestNewProbeDB(t *testing.T) {
	cfg := ProbeConfig{Driver: DriverSQLite, DSN: ":memory:"}
	db, err := NewProbeDB(cfg, logger.NewNop())
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("unwrap: %v", err)
	}
	defer sqlDB.Close()

	if err := sqlDB.Ping(); err != nil {
		t.Fatalf("ping: %v", err)
	}
	if got := sqlDB.Stats().MaxOpenConnections; got != defaultProbeMaxOpenConns {
		t.Fatalf("unexpected pool size: %d", got)
	}
}

func TestNewProbeDBPoolOverride(t *testing.T) {
	cfg := ProbeConfig{Driver: DriverSQLite, DSN: ":memory:", MaxOpenConns: 5}
	db, err := NewProbeDB(cfg, logger.NewNop())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	sqlDB, _ := db.DB()
	defer sqlDB.Close()

	if got := sqlDB.Stats().MaxOpenConnections; got != 5 {
		t.Fatalf("unexpected pool size: %d", got)
	}
}

func TestNewProbeDBUnknownDriver(t *testing.T) {
	if _, err := NewProbeDB(ProbeConfig{Driver: "oracle"}, logger.NewNop()); err == nil {
		t.Fatal("unknown driver must fail")
	}
}
