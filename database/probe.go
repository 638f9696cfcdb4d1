/*
===============================================================================
数据库探测连接
===============================================================================

职责:
  - 为健康检查提供独立的小型数据库连接池, 不借用业务连接
  - 按驱动名选择 GORM 方言(mysql / postgres / sqlite)

技术: gorm.io/gorm 及对应驱动, MySQL DSN 由 go-sql-driver 构造
===============================================================================
*/

package database

import (
	"fmt"
	"time"

	mysqldrv "github.com/go-sql-driver/mysql"
	gormmysql "gorm.io/driver/mysql"
	gormpostgres "gorm.io/driver/postgres"
	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/aisgo/ais-admin-go-pkg/logger"
)

// 支持的探测驱动。
const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// 探测连接池默认值, 刻意保持很小。
const (
	defaultProbeMaxOpenConns    = 2
	defaultProbeConnMaxLifetime = 30 * time.Minute
	defaultProbeDialTimeout     = 3 * time.Second
)

// ProbeConfig 探测连接配置。DSN 非空时直接使用, 否则由结构化字段构造。
type ProbeConfig struct {
	Driver   string `yaml:"driver" mapstructure:"driver" validate:"omitempty,oneof=mysql postgres sqlite" error_msg:"oneof:driver 仅支持 mysql/postgres/sqlite"`
	DSN      string `yaml:"dsn" mapstructure:"dsn"`
	Host     string `yaml:"host" mapstructure:"host"`
	Port     int    `yaml:"port" mapstructure:"port"`
	User     string `yaml:"user" mapstructure:"user"`
	Password string `yaml:"password" mapstructure:"password"`
	DBName   string `yaml:"dbname" mapstructure:"dbname"`
	SSLMode  string `yaml:"sslmode" mapstructure:"sslmode"` // 仅 postgres

	MaxOpenConns    int           `yaml:"max_open_conns" mapstructure:"max_open_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" mapstructure:"conn_max_lifetime"`
}

// BuildDSN 构造驱动 DSN。
func (c ProbeConfig) BuildDSN() (string, error) {
	if c.DSN != "" {
		return c.DSN, nil
	}

	switch c.Driver {
	case DriverMySQL:
		dsnCfg := mysqldrv.NewConfig()
		dsnCfg.User = c.User
		dsnCfg.Passwd = c.Password
		dsnCfg.Net = "tcp"
		dsnCfg.Addr = fmt.Sprintf("%s:%d", c.Host, c.Port)
		dsnCfg.DBName = c.DBName
		dsnCfg.ParseTime = true
		dsnCfg.Loc = time.Local
		dsnCfg.Timeout = defaultProbeDialTimeout
		return dsnCfg.FormatDSN(), nil
	case DriverPostgres:
		sslMode := c.SSLMode
		if sslMode == "" {
			sslMode = "disable"
		}
		return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s connect_timeout=%d",
			c.Host, c.Port, c.User, c.Password, c.DBName, sslMode,
			int(defaultProbeDialTimeout.Seconds())), nil
	case DriverSQLite:
		return "", fmt.Errorf("sqlite probe requires an explicit dsn")
	default:
		return "", fmt.Errorf("unsupported probe driver: %q", c.Driver)
	}
}

// NewProbeDB 打开探测连接。
func NewProbeDB(cfg ProbeConfig, log *logger.Logger) (*gorm.DB, error) {
	dsn, err := cfg.BuildDSN()
	if err != nil {
		return nil, err
	}

	var dialector gorm.Dialector
	switch cfg.Driver {
	case DriverMySQL:
		dialector = gormmysql.Open(dsn)
	case DriverPostgres:
		dialector = gormpostgres.Open(dsn)
	case DriverSQLite:
		dialector = gormsqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported probe driver: %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: NewZapGormLogger(log.Logger),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	maxOpenConns := cfg.MaxOpenConns
	if maxOpenConns <= 0 {
		maxOpenConns = defaultProbeMaxOpenConns
	}
	connMaxLifetime := cfg.ConnMaxLifetime
	if connMaxLifetime <= 0 {
		connMaxLifetime = defaultProbeConnMaxLifetime
	}

	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(connMaxLifetime)

	return db, nil
}
