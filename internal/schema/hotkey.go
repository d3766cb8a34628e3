package schema

import "time"

// HotkeyTotalStat 热键总计表
// 每个触发过的热键（如 "CTRL+C"）恰好一行。
type HotkeyTotalStat struct {
	HotkeyID    string    `gorm:"primaryKey;size:64" json:"hotkey_id"`
	DisplayName string    `gorm:"size:64" json:"display_name"`
	TotalCount  int64     `gorm:"not null;default:0" json:"total_count"`
	LastUpdated time.Time `json:"last_updated"`
}

// TableName 指定表名
func (HotkeyTotalStat) TableName() string {
	return "hotkey_total_stats"
}

// HotkeyDailyStat 热键每日统计
// 自然键为 (stat_date, hotkey_id)。
type HotkeyDailyStat struct {
	ID            int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	StatDate      string    `gorm:"size:10;not null;uniqueIndex:idx_hotkey_daily" json:"stat_date"` // YYYY-MM-DD
	HotkeyID      string    `gorm:"size:64;not null;uniqueIndex:idx_hotkey_daily" json:"hotkey_id"`
	Count         int64     `gorm:"not null;default:0" json:"count"`
	LastTriggered time.Time `json:"last_triggered"`
}

// TableName 指定表名
func (HotkeyDailyStat) TableName() string {
	return "hotkey_daily_stats"
}
