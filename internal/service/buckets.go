package service

import "time"

// 时间桶的规范文本格式。定宽零填充，字典序即时间序，
// 因此仓储层可以直接用字符串比较做范围扫描和保留清理。
const (
	MonthLayout = "2006-01"
	DayLayout   = "2006-01-02"
	HourLayout  = "2006-01-02 15"
)

// monthKey 时间所在月的桶键
func monthKey(t time.Time) string { return t.Format(MonthLayout) }

// dayKey 时间所在日的桶键
func dayKey(t time.Time) string { return t.Format(DayLayout) }

// hourKey 时间所在小时的桶键
func hourKey(t time.Time) string { return t.Format(HourLayout) }
