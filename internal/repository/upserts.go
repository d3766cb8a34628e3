package repository

import (
	"time"

	"github.com/yuqie6/TraceBoard/internal/schema"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// 本文件集中全部"按自然键累加"的 upsert。
// 事件记录器的单事务和迁移器的增量合并共用同一组语句，
// 保证两条路径对同一行的语义完全一致。
// ON CONFLICT DO UPDATE 中裸列名指向已存在的行，excluded 指向新值。

// IncrementKeyTotal 按键总计累加
// 新名称非空时刷新 key_name，否则保留原值。
func IncrementKeyTotal(tx *gorm.DB, vk int, keyName string, delta int64, now time.Time) error {
	return tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "virtual_key_code"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"total_count":  gorm.Expr("total_count + ?", delta),
			"key_name":     gorm.Expr("CASE WHEN excluded.key_name <> '' THEN excluded.key_name ELSE key_name END"),
			"last_updated": now,
		}),
	}).Create(&schema.KeyTotalStat{
		VirtualKeyCode: vk,
		KeyName:        keyName,
		TotalCount:     delta,
		LastUpdated:    now,
	}).Error
}

// IncrementMonthlyKey 月度按键累加
// key_name 仅在原值为空时补写。
func IncrementMonthlyKey(tx *gorm.DB, month string, vk int, keyName string, delta int64) error {
	return tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "stat_month"}, {Name: "virtual_key_code"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"monthly_count": gorm.Expr("monthly_count + ?", delta),
			"key_name":      gorm.Expr("CASE WHEN key_name = '' THEN excluded.key_name ELSE key_name END"),
		}),
	}).Create(&schema.MonthlyKeyStat{
		StatMonth:      month,
		VirtualKeyCode: vk,
		KeyName:        keyName,
		MonthlyCount:   delta,
	}).Error
}

// IncrementDailyActivity 每日活动累加
func IncrementDailyActivity(tx *gorm.DB, date string, presses, triggers int64, now time.Time) error {
	return tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "stat_date"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"key_presses":     gorm.Expr("key_presses + ?", presses),
			"hotkey_triggers": gorm.Expr("hotkey_triggers + ?", triggers),
			"last_updated":    now,
		}),
	}).Create(&schema.DailyActivityStat{
		StatDate:       date,
		KeyPresses:     presses,
		HotkeyTriggers: triggers,
		LastUpdated:    now,
	}).Error
}

// IncrementHourlyActivity 每小时活动累加
func IncrementHourlyActivity(tx *gorm.DB, hour string, presses, triggers int64, now time.Time) error {
	return tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "stat_hour"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"key_presses":     gorm.Expr("key_presses + ?", presses),
			"hotkey_triggers": gorm.Expr("hotkey_triggers + ?", triggers),
			"last_updated":    now,
		}),
	}).Create(&schema.HourlyActivityStat{
		StatHour:       hour,
		KeyPresses:     presses,
		HotkeyTriggers: triggers,
		LastUpdated:    now,
	}).Error
}

// IncrementHotkeyTotal 热键总计累加
func IncrementHotkeyTotal(tx *gorm.DB, hotkeyID, displayName string, delta int64, now time.Time) error {
	return tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "hotkey_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"total_count":  gorm.Expr("total_count + ?", delta),
			"display_name": gorm.Expr("CASE WHEN excluded.display_name <> '' THEN excluded.display_name ELSE display_name END"),
			"last_updated": now,
		}),
	}).Create(&schema.HotkeyTotalStat{
		HotkeyID:    hotkeyID,
		DisplayName: displayName,
		TotalCount:  delta,
		LastUpdated: now,
	}).Error
}

// IncrementHotkeyDaily 热键每日累加
func IncrementHotkeyDaily(tx *gorm.DB, date, hotkeyID string, delta int64, now time.Time) error {
	return tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "stat_date"}, {Name: "hotkey_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"count":          gorm.Expr("count + ?", delta),
			"last_triggered": now,
		}),
	}).Create(&schema.HotkeyDailyStat{
		StatDate:      date,
		HotkeyID:      hotkeyID,
		Count:         delta,
		LastTriggered: now,
	}).Error
}
