package repository

import (
	"context"
	"fmt"

	"github.com/yuqie6/TraceBoard/internal/schema"
	"gorm.io/gorm"
)

// HotkeyRepository 热键统计仓储
type HotkeyRepository struct {
	db *gorm.DB
}

// NewHotkeyRepository 创建仓储
func NewHotkeyRepository(db *gorm.DB) *HotkeyRepository {
	return &HotkeyRepository{db: db}
}

// TopTotals 按触发次数降序获取热键总计
func (r *HotkeyRepository) TopTotals(ctx context.Context, limit int) ([]schema.HotkeyTotalStat, error) {
	var stats []schema.HotkeyTotalStat
	err := r.db.WithContext(ctx).
		Order("total_count DESC").
		Limit(limit).
		Find(&stats).Error
	if err != nil {
		return nil, fmt.Errorf("查询热键总计失败: %w", err)
	}
	return stats, nil
}

// GetDailyRange 获取单个热键在日期闭区间内的每日行（稀疏结果）
func (r *HotkeyRepository) GetDailyRange(ctx context.Context, hotkeyID, startDate, endDate string) ([]schema.HotkeyDailyStat, error) {
	var stats []schema.HotkeyDailyStat
	err := r.db.WithContext(ctx).
		Where("hotkey_id = ? AND stat_date >= ? AND stat_date <= ?", hotkeyID, startDate, endDate).
		Order("stat_date ASC").
		Find(&stats).Error
	if err != nil {
		return nil, fmt.Errorf("查询热键每日统计失败: %w", err)
	}
	return stats, nil
}

// DailyHotkeySum 按日汇总（跨全部热键）
type DailyHotkeySum struct {
	StatDate string `json:"stat_date"`
	Count    int64  `json:"count"`
}

// SumDailyRange 日期闭区间内全部热键的按日求和
func (r *HotkeyRepository) SumDailyRange(ctx context.Context, startDate, endDate string) ([]DailyHotkeySum, error) {
	var sums []DailyHotkeySum
	err := r.db.WithContext(ctx).
		Model(&schema.HotkeyDailyStat{}).
		Select("stat_date, SUM(count) as count").
		Where("stat_date >= ? AND stat_date <= ?", startDate, endDate).
		Group("stat_date").
		Order("stat_date ASC").
		Scan(&sums).Error
	if err != nil {
		return nil, fmt.Errorf("汇总热键每日统计失败: %w", err)
	}
	return sums, nil
}
