package health

import (
	"context"

	"gorm.io/gorm"
)

// DBIndicator 探测关系型数据库连通性。
type DBIndicator struct {
	name string
	db   *gorm.DB
}

// NewDBIndicator 创建数据库指示器, name 为空时默认 "db"。
func NewDBIndicator(name string, db *gorm.DB) *DBIndicator {
	if name == "" {
		name = "db"
	}
	return &DBIndicator{name: name, db: db}
}

func (i *DBIndicator) Name() string { return i.name }

func (i *DBIndicator) Check(ctx context.Context) Check {
	sqlDB, err := i.db.DB()
	if err != nil {
		return Down(err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return Down(err)
	}

	stats := sqlDB.Stats()
	return UpWithDetails(map[string]any{
		"open_connections": stats.OpenConnections,
		"in_use":           stats.InUse,
		"idle":             stats.Idle,
	})
}
