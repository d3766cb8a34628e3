package migrate

import (
	"context"
	"testing"
	"time"

	"github.com/yuqie6/TraceBoard/internal/repository"
	"github.com/yuqie6/TraceBoard/internal/schema"
	"github.com/yuqie6/TraceBoard/internal/testutil"
	"gorm.io/gorm"
)

func intPtr(v int) *int { return &v }

// seedRawLog 建立遗留 key_events 表并写入事件
func seedRawLog(t *testing.T, db *gorm.DB, events []schema.KeyEvent) {
	t.Helper()
	if err := db.AutoMigrate(&schema.KeyEvent{}); err != nil {
		t.Fatalf("create key_events: %v", err)
	}
	if len(events) == 0 {
		return
	}
	if err := db.Create(&events).Error; err != nil {
		t.Fatalf("seed key_events: %v", err)
	}
}

func sampleEvents() []schema.KeyEvent {
	return []schema.KeyEvent{
		{KeyName: "a", VirtualKeyCode: intPtr(65), Timestamp: "2024-02-10 08:15:00"},
		{KeyName: "a", VirtualKeyCode: intPtr(65), Timestamp: "2024-03-01 09:05:00"},
		{KeyName: "a", VirtualKeyCode: intPtr(65), Timestamp: "2024-03-01 09:40:00"},
		{KeyName: "b", VirtualKeyCode: intPtr(66), Timestamp: "2024-03-01 10:00:00"},
		{KeyName: "?", VirtualKeyCode: nil, Timestamp: "2024-03-01 10:01:00"}, // 缺键码，跳过
	}
}

func TestDetectVersion(t *testing.T) {
	t.Run("全新库视为 v1 基线", func(t *testing.T) {
		db := testutil.OpenBareTestDB(t)
		v, err := NewMigrator(db).DetectVersion()
		if err != nil || v != 1 {
			t.Fatalf("v=%d err=%v, want 1", v, err)
		}
	})

	t.Run("只有原始日志视为 v0", func(t *testing.T) {
		db := testutil.OpenBareTestDB(t)
		seedRawLog(t, db, nil)
		v, err := NewMigrator(db).DetectVersion()
		if err != nil || v != 0 {
			t.Fatalf("v=%d err=%v, want 0", v, err)
		}
	})

	t.Run("db_meta 存在但无版本行时回退推断", func(t *testing.T) {
		db := testutil.OpenBareTestDB(t)
		if err := db.AutoMigrate(&schema.DBMeta{}); err != nil {
			t.Fatalf("create db_meta: %v", err)
		}
		seedRawLog(t, db, nil)
		v, err := NewMigrator(db).DetectVersion()
		if err != nil || v != 0 {
			t.Fatalf("v=%d err=%v, want 0", v, err)
		}
	})

	t.Run("读取已写入的版本", func(t *testing.T) {
		db := testutil.OpenTestDB(t)
		m := NewMigrator(db)
		if err := db.Transaction(func(tx *gorm.DB) error { return m.setVersion(tx, 3) }); err != nil {
			t.Fatalf("setVersion: %v", err)
		}
		v, err := m.DetectVersion()
		if err != nil || v != 3 {
			t.Fatalf("v=%d err=%v, want 3", v, err)
		}
	})
}

func TestRunFromV0(t *testing.T) {
	db := testutil.OpenBareTestDB(t)
	seedRawLog(t, db, sampleEvents())
	m := NewMigrator(db)

	if err := m.Run(context.Background()); err != nil {
		t.Fatalf("Run error: %v", err)
	}

	v, err := m.DetectVersion()
	if err != nil || v != LatestVersion {
		t.Fatalf("v=%d err=%v, want %d", v, err, LatestVersion)
	}
	if db.Migrator().HasTable(&schema.KeyEvent{}) {
		t.Fatalf("迁移后原始日志表应被删除")
	}

	var total schema.KeyTotalStat
	if err := db.First(&total, "virtual_key_code = ?", 65).Error; err != nil {
		t.Fatalf("key_total 缺失: %v", err)
	}
	if total.TotalCount != 3 || total.KeyName != "a" {
		t.Fatalf("total=%+v, want count=3 name=a", total)
	}

	var monthlyFeb, monthlyMar schema.MonthlyKeyStat
	db.First(&monthlyFeb, "stat_month = ? AND virtual_key_code = ?", "2024-02", 65)
	db.First(&monthlyMar, "stat_month = ? AND virtual_key_code = ?", "2024-03", 65)
	if monthlyFeb.MonthlyCount != 1 || monthlyMar.MonthlyCount != 2 {
		t.Fatalf("monthly feb=%d mar=%d, want 1/2", monthlyFeb.MonthlyCount, monthlyMar.MonthlyCount)
	}

	// v0->v1 已消费原始日志，v2->v3 走占位路径：最近 48 小时零值行
	var hourCount int64
	db.Model(&schema.HourlyActivityStat{}).Count(&hourCount)
	if hourCount != 48 {
		t.Fatalf("hourly rows=%d, want 48 占位", hourCount)
	}
	var nonZero int64
	db.Model(&schema.HourlyActivityStat{}).Where("key_presses > 0").Count(&nonZero)
	if nonZero != 0 {
		t.Fatalf("占位行必须为零值")
	}

	// 重跑必须是空操作（版本已最新）
	if err := m.Run(context.Background()); err != nil {
		t.Fatalf("re-Run error: %v", err)
	}
	db.First(&total, "virtual_key_code = ?", 65)
	if total.TotalCount != 3 {
		t.Fatalf("重跑后 total=%d, want 3", total.TotalCount)
	}
}

func TestAdditiveBackfillDoublesOnRerun(t *testing.T) {
	db := testutil.OpenBareTestDB(t)
	seedRawLog(t, db, sampleEvents())
	m := NewMigrator(db)
	ctx := context.Background()

	if err := m.migrateV0toV1(ctx); err != nil {
		t.Fatalf("first backfill error: %v", err)
	}

	// 还原同一份原始日志后重跑：加法合并在已有计数上继续累加
	seedRawLog(t, db, sampleEvents())
	if err := m.migrateV0toV1(ctx); err != nil {
		t.Fatalf("second backfill error: %v", err)
	}

	var total schema.KeyTotalStat
	db.First(&total, "virtual_key_code = ?", 65)
	if total.TotalCount != 6 {
		t.Fatalf("total=%d, want 6（非幂等，重跑翻倍）", total.TotalCount)
	}

	var monthlySum int64
	db.Model(&schema.MonthlyKeyStat{}).
		Where("virtual_key_code = ?", 65).
		Select("COALESCE(SUM(monthly_count), 0)").
		Scan(&monthlySum)
	if monthlySum != 6 {
		t.Fatalf("monthlySum=%d, want 6", monthlySum)
	}
}

func TestRunFromV2WithRawLogRebuildsHourly(t *testing.T) {
	db := testutil.OpenTestDB(t)
	m := NewMigrator(db)
	ctx := context.Background()

	// 模拟 v2 存量库：聚合里有将被覆盖的旧值，原始日志仍在
	now := time.Now()
	if err := repository.IncrementKeyTotal(db, 65, "stale", 99, now); err != nil {
		t.Fatalf("seed error: %v", err)
	}
	seedRawLog(t, db, sampleEvents())
	if err := db.Transaction(func(tx *gorm.DB) error { return m.setVersion(tx, 2) }); err != nil {
		t.Fatalf("setVersion: %v", err)
	}

	if err := m.Run(ctx); err != nil {
		t.Fatalf("Run error: %v", err)
	}

	// 破坏性重建：旧值被覆盖而非累加
	var total schema.KeyTotalStat
	db.First(&total, "virtual_key_code = ?", 65)
	if total.TotalCount != 3 {
		t.Fatalf("total=%d, want 3（重建覆盖旧值）", total.TotalCount)
	}

	var daily schema.DailyActivityStat
	if err := db.First(&daily, "stat_date = ?", "2024-03-01").Error; err != nil {
		t.Fatalf("daily 缺失: %v", err)
	}
	if daily.KeyPresses != 3 {
		t.Fatalf("daily=%d, want 3", daily.KeyPresses)
	}

	var hourly schema.HourlyActivityStat
	if err := db.First(&hourly, "stat_hour = ?", "2024-03-01 09").Error; err != nil {
		t.Fatalf("hourly 缺失: %v", err)
	}
	if hourly.KeyPresses != 2 {
		t.Fatalf("hourly=%d, want 2", hourly.KeyPresses)
	}

	if db.Migrator().HasTable(&schema.KeyEvent{}) {
		t.Fatalf("重建后原始日志表应被删除")
	}
}

func TestRebuildIsIdempotent(t *testing.T) {
	db := testutil.OpenTestDB(t)
	m := NewMigrator(db)
	seedRawLog(t, db, sampleEvents())

	counts := func() (total, monthly, daily, hourly int64) {
		db.Model(&schema.KeyTotalStat{}).Select("COALESCE(SUM(total_count), 0)").Scan(&total)
		db.Model(&schema.MonthlyKeyStat{}).Select("COALESCE(SUM(monthly_count), 0)").Scan(&monthly)
		db.Model(&schema.DailyActivityStat{}).Select("COALESCE(SUM(key_presses), 0)").Scan(&daily)
		db.Model(&schema.HourlyActivityStat{}).Select("COALESCE(SUM(key_presses), 0)").Scan(&hourly)
		return
	}

	if err := db.Transaction(func(tx *gorm.DB) error { return m.rebuildFromRawLog(tx) }); err != nil {
		t.Fatalf("first rebuild error: %v", err)
	}
	t1, m1, d1, h1 := counts()

	if err := db.Transaction(func(tx *gorm.DB) error { return m.rebuildFromRawLog(tx) }); err != nil {
		t.Fatalf("second rebuild error: %v", err)
	}
	t2, m2, d2, h2 := counts()

	if t1 != 4 || m1 != 4 || d1 != 4 || h1 != 4 {
		t.Fatalf("first rebuild sums=%d/%d/%d/%d, want 4（跳过缺键码行）", t1, m1, d1, h1)
	}
	if t1 != t2 || m1 != m2 || d1 != d2 || h1 != h2 {
		t.Fatalf("重跑结果不一致: %d/%d/%d/%d vs %d/%d/%d/%d", t1, m1, d1, h1, t2, m2, d2, h2)
	}
}

func TestRebuildSkipsMalformedTimestamps(t *testing.T) {
	db := testutil.OpenTestDB(t)
	m := NewMigrator(db)
	seedRawLog(t, db, []schema.KeyEvent{
		{KeyName: "a", VirtualKeyCode: intPtr(65), Timestamp: "2024-03-01 09:05:00"},
		{KeyName: "a", VirtualKeyCode: intPtr(65), Timestamp: ""},        // 缺时间戳
		{KeyName: "a", VirtualKeyCode: intPtr(65), Timestamp: "2024-03"}, // 截不出小时桶
	})

	if err := db.Transaction(func(tx *gorm.DB) error { return m.rebuildFromRawLog(tx) }); err != nil {
		t.Fatalf("rebuild error: %v", err)
	}

	var total schema.KeyTotalStat
	db.First(&total, "virtual_key_code = ?", 65)
	if total.TotalCount != 1 {
		t.Fatalf("total=%d, want 1（脏行跳过）", total.TotalCount)
	}
}

func TestEnsureRecentHoursIsIdempotent(t *testing.T) {
	db := testutil.OpenTestDB(t)
	m := NewMigrator(db)
	ctx := context.Background()

	if err := m.ensureRecentHours(ctx, 48); err != nil {
		t.Fatalf("ensureRecentHours error: %v", err)
	}
	if err := m.ensureRecentHours(ctx, 48); err != nil {
		t.Fatalf("ensureRecentHours error: %v", err)
	}

	var count int64
	db.Model(&schema.HourlyActivityStat{}).Count(&count)
	if count != 48 {
		t.Fatalf("rows=%d, want 48", count)
	}
}

func TestEnsureRecentHoursKeepsExistingCounts(t *testing.T) {
	db := testutil.OpenTestDB(t)
	m := NewMigrator(db)
	ctx := context.Background()
	now := time.Now()

	cur := now.Truncate(time.Hour).Format("2006-01-02 15")
	if err := repository.IncrementHourlyActivity(db, cur, 7, 0, now); err != nil {
		t.Fatalf("seed error: %v", err)
	}

	if err := m.ensureRecentHours(ctx, 48); err != nil {
		t.Fatalf("ensureRecentHours error: %v", err)
	}

	var hourly schema.HourlyActivityStat
	db.First(&hourly, "stat_hour = ?", cur)
	if hourly.KeyPresses != 7 {
		t.Fatalf("占位回填覆盖了已有计数: %+v", hourly)
	}
}

func TestResumeFromIntermediateVersion(t *testing.T) {
	// v1 存量库（总计/月度已存在，其余表缺失）从中间步骤继续
	db := testutil.OpenBareTestDB(t)
	if err := db.AutoMigrate(&schema.KeyTotalStat{}, &schema.MonthlyKeyStat{}); err != nil {
		t.Fatalf("prepare v1 store: %v", err)
	}
	if err := db.Create(&schema.KeyTotalStat{VirtualKeyCode: 65, KeyName: "a", TotalCount: 9}).Error; err != nil {
		t.Fatalf("seed error: %v", err)
	}

	m := NewMigrator(db)
	if err := m.Run(context.Background()); err != nil {
		t.Fatalf("Run error: %v", err)
	}

	v, _ := m.DetectVersion()
	if v != LatestVersion {
		t.Fatalf("v=%d, want %d", v, LatestVersion)
	}

	// 既有聚合不动
	var total schema.KeyTotalStat
	db.First(&total, "virtual_key_code = ?", 65)
	if total.TotalCount != 9 {
		t.Fatalf("total=%d, want 9（无原始日志时既有聚合保持不变）", total.TotalCount)
	}
}
