package migrate

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/yuqie6/TraceBoard/internal/repository"
	"github.com/yuqie6/TraceBoard/internal/schema"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LatestVersion 当前程序支持的聚合表布局版本
const LatestVersion = 3

// recentHourBackfill 升级完成后为看板补齐的小时占位窗口
const recentHourBackfill = 48

// Migrator 版本化迁移/回填引擎
// 以 db_meta.schema_version 为唯一事实来源，逐步把存量库推进到最新布局。
// 每步各自提交版本号，中途崩溃后重跑从上一个完成的步骤继续。
type Migrator struct {
	db        *gorm.DB
	batchSize int              // v0->v1 原始日志批大小
	chunkSize int              // v2->v3 重扫块大小
	now       func() time.Time // 测试注入
}

// NewMigrator 创建迁移器
func NewMigrator(db *gorm.DB) *Migrator {
	return &Migrator{
		db:        db,
		batchSize: 20000,
		chunkSize: 5000,
		now:       time.Now,
	}
}

// DetectVersion 推断存量库的 schema 版本
// 没有 db_meta 表时：存在原始日志表视为 v0，否则视为较新基线的全新安装（v1）。
func (m *Migrator) DetectVersion() (int, error) {
	mig := m.db.Migrator()
	inferred := 1
	if mig.HasTable(&schema.KeyEvent{}) {
		inferred = 0
	}
	if !mig.HasTable(&schema.DBMeta{}) {
		return inferred, nil
	}

	var meta schema.DBMeta
	err := m.db.Where("key = ?", schema.SchemaVersionKey).First(&meta).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return inferred, nil
		}
		return 0, fmt.Errorf("读取 schema 版本失败: %w", err)
	}
	v, err := strconv.Atoi(meta.Value)
	if err != nil {
		// 历史上写坏的版本值按 v1 处理
		return 1, nil
	}
	return v, nil
}

// Run 执行全部待完成的迁移步骤
// 对已是最新版本的库除幂等的小时占位回填外是空操作。
func (m *Migrator) Run(ctx context.Context) error {
	cur, err := m.DetectVersion()
	if err != nil {
		return err
	}
	if cur > LatestVersion {
		return fmt.Errorf("数据库 schema_version=%d 高于当前程序支持的版本=%d", cur, LatestVersion)
	}
	slog.Info("检测到数据库版本", "schema_version", cur, "latest", LatestVersion)

	if cur == LatestVersion {
		if err := m.ensureRecentHours(ctx, recentHourBackfill); err != nil {
			return err
		}
		slog.Info("数据库已是最新版本，无需升级")
		return nil
	}

	if cur == 0 {
		if err := m.migrateV0toV1(ctx); err != nil {
			return fmt.Errorf("v0->v1 迁移失败: %w", err)
		}
		cur = 1
	}
	if cur == 1 {
		if err := m.migrateV1toV2(ctx); err != nil {
			return fmt.Errorf("v1->v2 迁移失败: %w", err)
		}
		cur = 2
	}
	if cur == 2 {
		if err := m.migrateV2toV3(ctx); err != nil {
			return fmt.Errorf("v2->v3 迁移失败: %w", err)
		}
	}

	slog.Info("数据库升级完成", "schema_version", LatestVersion)
	return nil
}

// migrateV1toV2 补建新增聚合表，无历史数据需要搬运
func (m *Migrator) migrateV1toV2(ctx context.Context) error {
	slog.Info("开始 v1->v2 升级（创建新聚合表）")
	db := m.db.WithContext(ctx)
	if err := repository.AutoMigrateAggregates(db); err != nil {
		return fmt.Errorf("创建聚合表失败: %w", err)
	}
	return db.Transaction(func(tx *gorm.DB) error {
		return m.setVersion(tx, 2)
	})
}

// setVersion 写入版本标记（只向前）
func (m *Migrator) setVersion(tx *gorm.DB, version int) error {
	now := m.now()
	err := tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "key"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"value":      strconv.Itoa(version),
			"updated_at": now,
		}),
	}).Create(&schema.DBMeta{
		Key:       schema.SchemaVersionKey,
		Value:     strconv.Itoa(version),
		UpdatedAt: now,
	}).Error
	if err != nil {
		return fmt.Errorf("写入 schema 版本失败: %w", err)
	}
	return nil
}

// ensureRecentHours 为最近 hours 小时补零值占位行，保证看板无空洞
// INSERT OR IGNORE 语义，重复执行幂等。
func (m *Migrator) ensureRecentHours(ctx context.Context, hours int) error {
	now := m.now()
	end := now.Truncate(time.Hour)
	start := end.Add(-time.Duration(hours-1) * time.Hour)

	rows := make([]schema.HourlyActivityStat, 0, hours)
	for t := start; !t.After(end); t = t.Add(time.Hour) {
		rows = append(rows, schema.HourlyActivityStat{
			StatHour:    t.Format("2006-01-02 15"),
			LastUpdated: now,
		})
	}

	err := m.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		CreateInBatches(rows, 100).Error
	if err != nil {
		return fmt.Errorf("补齐小时占位行失败: %w", err)
	}
	return nil
}
