package schema

import "time"

// DailyActivityStat 每日活动统计
// 桶键为 YYYY-MM-DD，只有发生过事件的日期才有行。
type DailyActivityStat struct {
	StatDate       string    `gorm:"primaryKey;size:10" json:"stat_date"` // YYYY-MM-DD
	KeyPresses     int64     `gorm:"not null;default:0" json:"key_presses"`
	HotkeyTriggers int64     `gorm:"not null;default:0" json:"hotkey_triggers"`
	LastUpdated    time.Time `json:"last_updated"`
}

// TableName 指定表名
func (DailyActivityStat) TableName() string {
	return "daily_activity_stats"
}

// HourlyActivityStat 每小时活动统计
// 桶键为 "YYYY-MM-DD HH"，定宽零填充，字典序即时间序。
// 唯一允许删除的表：超出保留窗口的行会被清理。
type HourlyActivityStat struct {
	StatHour       string    `gorm:"primaryKey;size:13" json:"stat_hour"` // YYYY-MM-DD HH
	KeyPresses     int64     `gorm:"not null;default:0" json:"key_presses"`
	HotkeyTriggers int64     `gorm:"not null;default:0" json:"hotkey_triggers"`
	LastUpdated    time.Time `json:"last_updated"`
}

// TableName 指定表名
func (HourlyActivityStat) TableName() string {
	return "hourly_activity_stats"
}
