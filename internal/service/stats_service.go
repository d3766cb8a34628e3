package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/yuqie6/TraceBoard/internal/repository"
)

// ErrInvalidParam 所有客户端可见的查询参数错误都包裹此哨兵，
// 传输层据此映射为 400，存储错误不会原样外泄。
var ErrInvalidParam = errors.New("无效的查询参数")

// AllHotkeysID 热键序列查询的特殊 id：
// 请求全部热键按日求和而非单个热键的序列。
const AllHotkeysID = "ALL"

// 窗口上限，防止无界扫描
const (
	MaxDays   = 3650
	MaxHours  = 1440
	MaxMonths = 240
	MaxLimit  = 200
)

// StatsService 统计查询服务
// 读取稀疏的聚合行并补零为稠密序列，供看板直接渲染。
type StatsService struct {
	keyRepo      *repository.KeyStatsRepository
	activityRepo *repository.ActivityRepository
	hotkeyRepo   *repository.HotkeyRepository

	now func() time.Time // 测试注入
}

// NewStatsService 创建统计服务
func NewStatsService(
	keyRepo *repository.KeyStatsRepository,
	activityRepo *repository.ActivityRepository,
	hotkeyRepo *repository.HotkeyRepository,
) *StatsService {
	return &StatsService{
		keyRepo:      keyRepo,
		activityRepo: activityRepo,
		hotkeyRepo:   hotkeyRepo,
		now:          time.Now,
	}
}

// KeyCount 按键总计条目
type KeyCount struct {
	KeyName        string `json:"key_name"`
	VirtualKeyCode int    `json:"virtual_key_code"`
	Count          int64  `json:"count"`
}

// DailyPoint 每日活动点
type DailyPoint struct {
	Date           string `json:"date"` // YYYY-MM-DD
	KeyPresses     int64  `json:"key_presses"`
	HotkeyTriggers int64  `json:"hotkey_triggers"`
}

// HourlyPoint 每小时活动点
type HourlyPoint struct {
	Hour           string `json:"hour"` // YYYY-MM-DD HH
	KeyPresses     int64  `json:"key_presses"`
	HotkeyTriggers int64  `json:"hotkey_triggers"`
}

// MonthlyPoint 月度活动点
type MonthlyPoint struct {
	Month          string `json:"month"` // YYYY-MM
	KeyPresses     int64  `json:"key_presses"`
	HotkeyTriggers int64  `json:"hotkey_triggers"`
}

// HotkeyCount 热键总计条目
type HotkeyCount struct {
	HotkeyID    string `json:"hotkey_id"`
	DisplayName string `json:"display_name"`
	Count       int64  `json:"count"`
}

// SeriesPoint 热键每日序列点
type SeriesPoint struct {
	Date  string `json:"date"` // YYYY-MM-DD
	Count int64  `json:"count"`
}

// KeyTotals 全部按键总计，按次数降序
func (s *StatsService) KeyTotals(ctx context.Context) ([]KeyCount, error) {
	stats, err := s.keyRepo.ListTotals(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]KeyCount, 0, len(stats))
	for _, st := range stats {
		out = append(out, KeyCount{
			KeyName:        st.KeyName,
			VirtualKeyCode: st.VirtualKeyCode,
			Count:          st.TotalCount,
		})
	}
	return out, nil
}

// DailyActivity 以 endDate 结尾的 days 天稠密序列，最旧在前
func (s *StatsService) DailyActivity(ctx context.Context, days int, endDate string) ([]DailyPoint, error) {
	if days < 1 || days > MaxDays {
		return nil, fmt.Errorf("%w: days 必须在 1~%d 之间", ErrInvalidParam, MaxDays)
	}
	end, err := s.parseAnchor(endDate, DayLayout)
	if err != nil {
		return nil, err
	}
	start := end.AddDate(0, 0, -(days - 1))

	rows, err := s.activityRepo.GetDailyRange(ctx, dayKey(start), dayKey(end))
	if err != nil {
		return nil, err
	}
	byDate := make(map[string][2]int64, len(rows))
	for _, row := range rows {
		byDate[row.StatDate] = [2]int64{row.KeyPresses, row.HotkeyTriggers}
	}

	out := make([]DailyPoint, 0, days)
	for i := 0; i < days; i++ {
		date := dayKey(start.AddDate(0, 0, i))
		v := byDate[date] // 缺失补零
		out = append(out, DailyPoint{Date: date, KeyPresses: v[0], HotkeyTriggers: v[1]})
	}
	return out, nil
}

// HourlyActivity 以 endHour 结尾的 hours 小时稠密序列，最旧在前
func (s *StatsService) HourlyActivity(ctx context.Context, hours int, endHour string) ([]HourlyPoint, error) {
	if hours < 1 || hours > MaxHours {
		return nil, fmt.Errorf("%w: hours 必须在 1~%d 之间", ErrInvalidParam, MaxHours)
	}
	end, err := s.parseAnchor(endHour, HourLayout)
	if err != nil {
		return nil, err
	}
	start := end.Add(-time.Duration(hours-1) * time.Hour)

	rows, err := s.activityRepo.GetHourlyRange(ctx, hourKey(start), hourKey(end))
	if err != nil {
		return nil, err
	}
	byHour := make(map[string][2]int64, len(rows))
	for _, row := range rows {
		byHour[row.StatHour] = [2]int64{row.KeyPresses, row.HotkeyTriggers}
	}

	out := make([]HourlyPoint, 0, hours)
	for i := 0; i < hours; i++ {
		hour := hourKey(start.Add(time.Duration(i) * time.Hour))
		v := byHour[hour]
		out = append(out, HourlyPoint{Hour: hour, KeyPresses: v[0], HotkeyTriggers: v[1]})
	}
	return out, nil
}

// MonthlyActivity 以 endMonth 结尾的 months 月稠密序列，最旧在前
// 月度没有独立聚合表，由覆盖区间内的每日行按月前缀求和得出。
func (s *StatsService) MonthlyActivity(ctx context.Context, months int, endMonth string) ([]MonthlyPoint, error) {
	if months < 1 || months > MaxMonths {
		return nil, fmt.Errorf("%w: months 必须在 1~%d 之间", ErrInvalidParam, MaxMonths)
	}
	anchor, err := s.parseAnchor(endMonth, MonthLayout)
	if err != nil {
		return nil, err
	}
	// 统一取月首做日历运算，避免月长差异
	end := time.Date(anchor.Year(), anchor.Month(), 1, 0, 0, 0, 0, anchor.Location())
	start := end.AddDate(0, -(months - 1), 0)

	// "-31" 在定宽日键上不小于该月任何真实日期
	rows, err := s.activityRepo.GetDailyRange(ctx, monthKey(start)+"-01", monthKey(end)+"-31")
	if err != nil {
		return nil, err
	}
	byMonth := make(map[string][2]int64)
	for _, row := range rows {
		if len(row.StatDate) < 7 {
			continue
		}
		m := row.StatDate[:7]
		v := byMonth[m]
		byMonth[m] = [2]int64{v[0] + row.KeyPresses, v[1] + row.HotkeyTriggers}
	}

	out := make([]MonthlyPoint, 0, months)
	for i := 0; i < months; i++ {
		month := monthKey(start.AddDate(0, i, 0))
		v := byMonth[month]
		out = append(out, MonthlyPoint{Month: month, KeyPresses: v[0], HotkeyTriggers: v[1]})
	}
	return out, nil
}

// HotkeyTotals 按触发次数降序的热键总计
func (s *StatsService) HotkeyTotals(ctx context.Context, limit int) ([]HotkeyCount, error) {
	if limit < 1 || limit > MaxLimit {
		return nil, fmt.Errorf("%w: limit 必须在 1~%d 之间", ErrInvalidParam, MaxLimit)
	}
	stats, err := s.hotkeyRepo.TopTotals(ctx, limit)
	if err != nil {
		return nil, err
	}
	out := make([]HotkeyCount, 0, len(stats))
	for _, st := range stats {
		out = append(out, HotkeyCount{
			HotkeyID:    st.HotkeyID,
			DisplayName: st.DisplayName,
			Count:       st.TotalCount,
		})
	}
	return out, nil
}

// HotkeySeries 单个热键（或 AllHotkeysID 求和）的每日稠密序列
func (s *StatsService) HotkeySeries(ctx context.Context, hotkeyID string, days int, endDate string) ([]SeriesPoint, error) {
	if hotkeyID == "" {
		return nil, fmt.Errorf("%w: hotkey_id 不能为空", ErrInvalidParam)
	}
	if days < 1 || days > MaxDays {
		return nil, fmt.Errorf("%w: days 必须在 1~%d 之间", ErrInvalidParam, MaxDays)
	}
	end, err := s.parseAnchor(endDate, DayLayout)
	if err != nil {
		return nil, err
	}
	start := end.AddDate(0, 0, -(days - 1))
	startKey, endKey := dayKey(start), dayKey(end)

	byDate := make(map[string]int64)
	if hotkeyID == AllHotkeysID {
		sums, err := s.hotkeyRepo.SumDailyRange(ctx, startKey, endKey)
		if err != nil {
			return nil, err
		}
		for _, sum := range sums {
			byDate[sum.StatDate] = sum.Count
		}
	} else {
		rows, err := s.hotkeyRepo.GetDailyRange(ctx, hotkeyID, startKey, endKey)
		if err != nil {
			return nil, err
		}
		for _, row := range rows {
			byDate[row.StatDate] = row.Count
		}
	}

	out := make([]SeriesPoint, 0, days)
	for i := 0; i < days; i++ {
		date := dayKey(start.AddDate(0, 0, i))
		out = append(out, SeriesPoint{Date: date, Count: byDate[date]})
	}
	return out, nil
}

// parseAnchor 解析窗口锚点；空串取当前时间
func (s *StatsService) parseAnchor(value, layout string) (time.Time, error) {
	if value == "" {
		return s.now(), nil
	}
	t, err := time.ParseInLocation(layout, value, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: 无法解析 %q", ErrInvalidParam, value)
	}
	return t, nil
}
