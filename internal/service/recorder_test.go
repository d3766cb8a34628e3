package service

import (
	"context"
	"testing"
	"time"

	"github.com/yuqie6/TraceBoard/internal/hotkey"
	"github.com/yuqie6/TraceBoard/internal/repository"
	"github.com/yuqie6/TraceBoard/internal/schema"
	"github.com/yuqie6/TraceBoard/internal/testutil"
	"gorm.io/gorm"
)

// fixedClock 可推进的测试时钟
type fixedClock struct {
	t time.Time
}

func (c *fixedClock) now() time.Time { return c.t }

func (c *fixedClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestRecorder(db *gorm.DB, cfg RecorderConfig, clock *fixedClock) *Recorder {
	r := NewRecorder(db, repository.NewActivityRepository(db), cfg)
	r.now = clock.now
	return r
}

func TestRecordKeyEventUpdatesAllAggregates(t *testing.T) {
	db := testutil.OpenTestDB(t)
	clock := &fixedClock{t: time.Date(2024, 3, 10, 14, 30, 0, 0, time.Local)}
	rec := newTestRecorder(db, DefaultRecorderConfig(), clock)
	ctx := context.Background()

	fires := []hotkey.Fire{{ID: "CTRL+C", DisplayName: "复制"}}
	if err := rec.RecordKeyEvent(ctx, 67, "c", fires); err != nil {
		t.Fatalf("RecordKeyEvent error: %v", err)
	}

	var total schema.KeyTotalStat
	if err := db.First(&total, "virtual_key_code = ?", 67).Error; err != nil {
		t.Fatalf("key_total 缺失: %v", err)
	}
	if total.TotalCount != 1 || total.KeyName != "c" {
		t.Fatalf("total=%+v", total)
	}

	var monthly schema.MonthlyKeyStat
	if err := db.First(&monthly, "stat_month = ? AND virtual_key_code = ?", "2024-03", 67).Error; err != nil {
		t.Fatalf("monthly 缺失: %v", err)
	}
	if monthly.MonthlyCount != 1 {
		t.Fatalf("monthly=%+v", monthly)
	}

	var daily schema.DailyActivityStat
	if err := db.First(&daily, "stat_date = ?", "2024-03-10").Error; err != nil {
		t.Fatalf("daily 缺失: %v", err)
	}
	if daily.KeyPresses != 1 || daily.HotkeyTriggers != 1 {
		t.Fatalf("daily=%+v", daily)
	}

	var hourly schema.HourlyActivityStat
	if err := db.First(&hourly, "stat_hour = ?", "2024-03-10 14").Error; err != nil {
		t.Fatalf("hourly 缺失: %v", err)
	}
	if hourly.KeyPresses != 1 || hourly.HotkeyTriggers != 1 {
		t.Fatalf("hourly=%+v", hourly)
	}

	var hkTotal schema.HotkeyTotalStat
	if err := db.First(&hkTotal, "hotkey_id = ?", "CTRL+C").Error; err != nil {
		t.Fatalf("hotkey_total 缺失: %v", err)
	}
	var hkDaily schema.HotkeyDailyStat
	if err := db.First(&hkDaily, "stat_date = ? AND hotkey_id = ?", "2024-03-10", "CTRL+C").Error; err != nil {
		t.Fatalf("hotkey_daily 缺失: %v", err)
	}
}

func TestMonthlyPartitionInvariant(t *testing.T) {
	db := testutil.OpenTestDB(t)
	clock := &fixedClock{t: time.Date(2024, 2, 28, 10, 0, 0, 0, time.Local)}
	rec := newTestRecorder(db, DefaultRecorderConfig(), clock)
	ctx := context.Background()

	// 跨两个月记录同一个键
	for i := 0; i < 5; i++ {
		if err := rec.RecordKeyEvent(ctx, 65, "a", nil); err != nil {
			t.Fatalf("RecordKeyEvent error: %v", err)
		}
	}
	clock.t = time.Date(2024, 3, 2, 9, 0, 0, 0, time.Local)
	for i := 0; i < 7; i++ {
		if err := rec.RecordKeyEvent(ctx, 65, "a", nil); err != nil {
			t.Fatalf("RecordKeyEvent error: %v", err)
		}
	}

	var total schema.KeyTotalStat
	db.First(&total, "virtual_key_code = ?", 65)

	var monthlySum int64
	db.Model(&schema.MonthlyKeyStat{}).
		Where("virtual_key_code = ?", 65).
		Select("COALESCE(SUM(monthly_count), 0)").
		Scan(&monthlySum)

	if total.TotalCount != 12 || monthlySum != total.TotalCount {
		t.Fatalf("total=%d monthlySum=%d, 月度分区和必须等于总计", total.TotalCount, monthlySum)
	}
}

func TestDailyEqualsSumOfHourly(t *testing.T) {
	db := testutil.OpenTestDB(t)
	clock := &fixedClock{t: time.Date(2024, 3, 10, 0, 15, 0, 0, time.Local)}
	rec := newTestRecorder(db, DefaultRecorderConfig(), clock)
	ctx := context.Background()

	// 同一天的三个小时各记若干次
	for _, n := range []int{2, 3, 4} {
		for i := 0; i < n; i++ {
			if err := rec.RecordKeyEvent(ctx, 65, "a", nil); err != nil {
				t.Fatalf("RecordKeyEvent error: %v", err)
			}
		}
		clock.advance(time.Hour)
	}

	var daily schema.DailyActivityStat
	db.First(&daily, "stat_date = ?", "2024-03-10")

	var hourlySum int64
	db.Model(&schema.HourlyActivityStat{}).
		Where("stat_hour LIKE ?", "2024-03-10%").
		Select("COALESCE(SUM(key_presses), 0)").
		Scan(&hourlySum)

	if daily.KeyPresses != 9 || hourlySum != daily.KeyPresses {
		t.Fatalf("daily=%d hourlySum=%d, 小时和必须等于当日计数", daily.KeyPresses, hourlySum)
	}
}

func TestMalformedEventDiscarded(t *testing.T) {
	db := testutil.OpenTestDB(t)
	clock := &fixedClock{t: time.Now()}
	rec := newTestRecorder(db, DefaultRecorderConfig(), clock)

	if err := rec.RecordKeyEvent(context.Background(), 0, "?", nil); err != nil {
		t.Fatalf("畸形事件不应报错: %v", err)
	}

	var count int64
	db.Model(&schema.KeyTotalStat{}).Count(&count)
	if count != 0 {
		t.Fatalf("rows=%d, 畸形事件不得计入任何统计", count)
	}
}

func TestAmortizedPruneRespectsHorizon(t *testing.T) {
	db := testutil.OpenTestDB(t)
	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.Local)
	clock := &fixedClock{t: now}
	rec := newTestRecorder(db, RecorderConfig{PruneEvery: 5, RetainDays: 10}, clock)
	ctx := context.Background()

	// 窗口外两行、窗口内一行（边界前后各取一小时）
	stale := hourKey(now.AddDate(0, 0, -12))
	boundary := hourKey(now.AddDate(0, 0, -10).Add(time.Hour))
	if err := repository.IncrementHourlyActivity(db, stale, 1, 0, now); err != nil {
		t.Fatalf("seed error: %v", err)
	}
	if err := repository.IncrementHourlyActivity(db, boundary, 1, 0, now); err != nil {
		t.Fatalf("seed error: %v", err)
	}

	// 前 4 次不触发清理
	for i := 0; i < 4; i++ {
		if err := rec.RecordKeyEvent(ctx, 65, "a", nil); err != nil {
			t.Fatalf("RecordKeyEvent error: %v", err)
		}
	}
	var count int64
	db.Model(&schema.HourlyActivityStat{}).Count(&count)
	if count != 3 {
		t.Fatalf("rows=%d, 未到阈值不应清理", count)
	}

	// 第 5 次触发摊还清理
	if err := rec.RecordKeyEvent(ctx, 65, "a", nil); err != nil {
		t.Fatalf("RecordKeyEvent error: %v", err)
	}

	var staleCount int64
	db.Model(&schema.HourlyActivityStat{}).Where("stat_hour = ?", stale).Count(&staleCount)
	if staleCount != 0 {
		t.Fatalf("窗口外的行未被清理: %s", stale)
	}
	var keptCount int64
	db.Model(&schema.HourlyActivityStat{}).Where("stat_hour = ?", boundary).Count(&keptCount)
	if keptCount != 1 {
		t.Fatalf("窗口内的行被误删: %s", boundary)
	}
}
