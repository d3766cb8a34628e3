package migrate

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/yuqie6/TraceBoard/internal/repository"
	"github.com/yuqie6/TraceBoard/internal/schema"
	"gorm.io/gorm"
)

const rawTimestampLayout = "2006-01-02 15:04:05"

// monthVK 月度聚合的复合键
type monthVK struct {
	month string
	vk    int
}

// totalAgg 单个键码的累计状态
type totalAgg struct {
	keyName  string
	count    int64
	lastSeen string // 原始时间戳文本，取最大值
}

// migrateV0toV1 增量回填：逐批扫描原始日志，聚合后加法合并进总计/月度表。
// 合并是加法 upsert——对已有部分数据的目标表重跑会在其上继续累加，
// 只有从空表开始才是幂等的。成功后删除原始日志表。
func (m *Migrator) migrateV0toV1(ctx context.Context) error {
	slog.Info("开始 v0->v1 迁移（增量回填总计/月度表）")
	db := m.db.WithContext(ctx)

	if err := repository.AutoMigrateAggregates(db); err != nil {
		return fmt.Errorf("创建聚合表失败: %w", err)
	}

	totals := make(map[int]*totalAgg)
	monthly := make(map[monthVK]*totalAgg)

	var lastID int64
	var scanned int64
	for {
		var events []schema.KeyEvent
		err := db.Where("id > ?", lastID).
			Order("id ASC").
			Limit(m.batchSize).
			Find(&events).Error
		if err != nil {
			return fmt.Errorf("扫描原始日志失败: %w", err)
		}
		if len(events) == 0 {
			break
		}

		for _, ev := range events {
			if ev.VirtualKeyCode == nil {
				continue
			}
			vk := *ev.VirtualKeyCode
			name := ev.KeyName
			if name == "" {
				name = "-"
			}
			ts := ev.Timestamp
			if ts == "" {
				ts = m.now().Format(rawTimestampLayout)
			}
			if len(ts) < 7 {
				continue
			}

			agg, ok := totals[vk]
			if !ok {
				agg = &totalAgg{}
				totals[vk] = agg
			}
			agg.count++
			if ts >= agg.lastSeen {
				agg.lastSeen = ts
				agg.keyName = name
			}

			mk := monthVK{month: ts[:7], vk: vk}
			mAgg, ok := monthly[mk]
			if !ok {
				mAgg = &totalAgg{}
				monthly[mk] = mAgg
			}
			mAgg.count++
			mAgg.keyName = name
		}

		lastID = events[len(events)-1].ID
		scanned += int64(len(events))
		slog.Info("聚合原始日志", "scanned", scanned, "last_id", lastID)
	}

	// 合并提交；原始日志表只在聚合落库成功之后删除
	err := db.Transaction(func(tx *gorm.DB) error {
		for vk, agg := range totals {
			if err := repository.IncrementKeyTotal(tx, vk, agg.keyName, agg.count, m.parseRawTime(agg.lastSeen)); err != nil {
				return err
			}
		}
		for mk, agg := range monthly {
			if err := repository.IncrementMonthlyKey(tx, mk.month, mk.vk, agg.keyName, agg.count); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("合并聚合结果失败: %w", err)
	}
	slog.Info("增量回填完成", "keys", len(totals), "monthly_rows", len(monthly))

	if err := db.Migrator().DropTable(&schema.KeyEvent{}); err != nil {
		return fmt.Errorf("删除原始日志表失败: %w", err)
	}
	slog.Info("原始日志表已删除")

	return db.Transaction(func(tx *gorm.DB) error {
		return m.setVersion(tx, 1)
	})
}

// migrateV2toV3 小时粒度升级
// 原始日志仍在：清空四张活动聚合表后从日志整体重建（破坏性覆盖，重跑幂等）。
// 原始日志已不在：只为最近窗口补小时占位行，既有聚合不动。
func (m *Migrator) migrateV2toV3(ctx context.Context) error {
	db := m.db.WithContext(ctx)

	if !db.Migrator().HasTable(&schema.KeyEvent{}) {
		slog.Info("开始 v2->v3 升级（无原始日志，仅补齐小时占位）")
		if err := m.ensureRecentHours(ctx, recentHourBackfill); err != nil {
			return err
		}
		return db.Transaction(func(tx *gorm.DB) error {
			return m.setVersion(tx, 3)
		})
	}

	slog.Info("开始 v2->v3 升级（从原始日志全量重建，含小时粒度）")

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := m.rebuildFromRawLog(tx); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("全量重建失败: %w", err)
	}

	// 重建提交成功后才删除原始日志
	if err := db.Migrator().DropTable(&schema.KeyEvent{}); err != nil {
		return fmt.Errorf("删除原始日志表失败: %w", err)
	}
	slog.Info("原始日志表已删除")

	return db.Transaction(func(tx *gorm.DB) error {
		return m.setVersion(tx, 3)
	})
}

// rebuildFromRawLog 清空并重建 总计/月度/每日/每小时 四张表
// 月/日/小时桶键由事件时间戳按定宽前缀截取（7/10/13）得出。
func (m *Migrator) rebuildFromRawLog(tx *gorm.DB) error {
	for _, model := range []interface{}{
		&schema.KeyTotalStat{},
		&schema.MonthlyKeyStat{},
		&schema.DailyActivityStat{},
		&schema.HourlyActivityStat{},
	} {
		if err := tx.Where("1 = 1").Delete(model).Error; err != nil {
			return fmt.Errorf("清空聚合表失败: %w", err)
		}
	}

	var total int64
	if err := tx.Model(&schema.KeyEvent{}).Count(&total).Error; err != nil {
		return fmt.Errorf("统计原始日志失败: %w", err)
	}
	if total == 0 {
		return nil
	}

	keyTotal := make(map[int]int64)
	lastName := make(map[int]string)
	monthly := make(map[monthVK]int64)
	daily := make(map[string]int64)
	hourly := make(map[string]int64)

	var lastID int64
	var scanned int64
	for {
		var events []schema.KeyEvent
		err := tx.Where("id > ?", lastID).
			Order("id ASC").
			Limit(m.chunkSize).
			Find(&events).Error
		if err != nil {
			return fmt.Errorf("扫描原始日志失败: %w", err)
		}
		if len(events) == 0 {
			break
		}

		for _, ev := range events {
			// 缺键码或缺时间戳的脏数据直接跳过
			if ev.VirtualKeyCode == nil || len(ev.Timestamp) < 13 {
				continue
			}
			vk := *ev.VirtualKeyCode
			keyTotal[vk]++
			if ev.KeyName != "" {
				lastName[vk] = ev.KeyName
			}

			monthly[monthVK{month: ev.Timestamp[:7], vk: vk}]++
			daily[ev.Timestamp[:10]]++
			hourly[ev.Timestamp[:13]]++
		}

		lastID = events[len(events)-1].ID
		scanned += int64(len(events))
		slog.Info("重建进度", "scanned", scanned, "total", total)
	}

	now := m.now()

	totalRows := make([]schema.KeyTotalStat, 0, len(keyTotal))
	for vk, cnt := range keyTotal {
		totalRows = append(totalRows, schema.KeyTotalStat{
			VirtualKeyCode: vk,
			KeyName:        lastName[vk],
			TotalCount:     cnt,
			LastUpdated:    now,
		})
	}
	if len(totalRows) > 0 {
		if err := tx.CreateInBatches(totalRows, 200).Error; err != nil {
			return fmt.Errorf("写入按键总计失败: %w", err)
		}
	}

	monthlyRows := make([]schema.MonthlyKeyStat, 0, len(monthly))
	for mk, cnt := range monthly {
		monthlyRows = append(monthlyRows, schema.MonthlyKeyStat{
			StatMonth:      mk.month,
			VirtualKeyCode: mk.vk,
			KeyName:        lastName[mk.vk],
			MonthlyCount:   cnt,
		})
	}
	if len(monthlyRows) > 0 {
		if err := tx.CreateInBatches(monthlyRows, 200).Error; err != nil {
			return fmt.Errorf("写入月度统计失败: %w", err)
		}
	}

	dailyRows := make([]schema.DailyActivityStat, 0, len(daily))
	for day, cnt := range daily {
		dailyRows = append(dailyRows, schema.DailyActivityStat{
			StatDate:    day,
			KeyPresses:  cnt,
			LastUpdated: now,
		})
	}
	if len(dailyRows) > 0 {
		if err := tx.CreateInBatches(dailyRows, 200).Error; err != nil {
			return fmt.Errorf("写入每日活动失败: %w", err)
		}
	}

	hourlyRows := make([]schema.HourlyActivityStat, 0, len(hourly))
	for hour, cnt := range hourly {
		hourlyRows = append(hourlyRows, schema.HourlyActivityStat{
			StatHour:    hour,
			KeyPresses:  cnt,
			LastUpdated: now,
		})
	}
	if len(hourlyRows) > 0 {
		if err := tx.CreateInBatches(hourlyRows, 200).Error; err != nil {
			return fmt.Errorf("写入每小时活动失败: %w", err)
		}
	}

	slog.Info("全量重建完成",
		"keys", len(totalRows),
		"monthly_rows", len(monthlyRows),
		"daily_rows", len(dailyRows),
		"hourly_rows", len(hourlyRows))
	return nil
}

// parseRawTime 解析原始日志的文本时间戳，失败时退回当前时间
func (m *Migrator) parseRawTime(ts string) time.Time {
	t, err := time.ParseInLocation(rawTimestampLayout, ts, time.Local)
	if err != nil {
		return m.now()
	}
	return t
}
