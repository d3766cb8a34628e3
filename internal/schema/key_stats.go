package schema

import "time"

// KeyTotalStat 按键总计表
// 每个曾经出现过的键码恰好一行，只增不删。
type KeyTotalStat struct {
	VirtualKeyCode int       `gorm:"primaryKey" json:"virtual_key_code"` // 平台稳定的虚拟键码
	KeyName        string    `gorm:"size:64" json:"key_name"`            // 人类可读名称（可能为空）
	TotalCount     int64     `gorm:"not null;default:0" json:"total_count"`
	LastUpdated    time.Time `json:"last_updated"`
}

// TableName 指定表名
func (KeyTotalStat) TableName() string {
	return "key_total_stats"
}

// MonthlyKeyStat 月度按键统计
// 自然键为 (stat_month, virtual_key_code)。
type MonthlyKeyStat struct {
	ID             int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	StatMonth      string `gorm:"size:7;not null;uniqueIndex:idx_month_key_code" json:"stat_month"` // YYYY-MM
	VirtualKeyCode int    `gorm:"not null;uniqueIndex:idx_month_key_code" json:"virtual_key_code"`
	KeyName        string `gorm:"size:64" json:"key_name"`
	MonthlyCount   int64  `gorm:"not null;default:0" json:"monthly_count"`
}

// TableName 指定表名
func (MonthlyKeyStat) TableName() string {
	return "monthly_key_stats"
}
