package testutil

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/yuqie6/TraceBoard/internal/repository"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// OpenTestDB 打开内存 SQLite 并补齐全部聚合表
func OpenTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}

	if err := repository.AutoMigrateAggregates(db); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}

	return db
}

// OpenBareTestDB 打开不带任何表的内存 SQLite（迁移器测试用）
func OpenBareTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	return db
}
