package repository

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/yuqie6/TraceBoard/internal/schema"
	"gorm.io/gorm"
)

// ActivityRepository 日/小时活动仓储
type ActivityRepository struct {
	db *gorm.DB
}

// NewActivityRepository 创建仓储
func NewActivityRepository(db *gorm.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

// GetDailyRange 获取日期闭区间内的每日活动（稀疏结果）
func (r *ActivityRepository) GetDailyRange(ctx context.Context, startDate, endDate string) ([]schema.DailyActivityStat, error) {
	var stats []schema.DailyActivityStat
	err := r.db.WithContext(ctx).
		Where("stat_date >= ? AND stat_date <= ?", startDate, endDate).
		Order("stat_date ASC").
		Find(&stats).Error
	if err != nil {
		return nil, fmt.Errorf("查询每日活动失败: %w", err)
	}
	return stats, nil
}

// GetHourlyRange 获取小时桶闭区间内的活动（稀疏结果）
// 桶键定宽零填充，字符串比较即时间比较。
func (r *ActivityRepository) GetHourlyRange(ctx context.Context, startHour, endHour string) ([]schema.HourlyActivityStat, error) {
	var stats []schema.HourlyActivityStat
	err := r.db.WithContext(ctx).
		Where("stat_hour >= ? AND stat_hour <= ?", startHour, endHour).
		Order("stat_hour ASC").
		Find(&stats).Error
	if err != nil {
		return nil, fmt.Errorf("查询每小时活动失败: %w", err)
	}
	return stats, nil
}

// DeleteHourlyBefore 删除早于 cutoff 桶键的小时行（保留清理）
func (r *ActivityRepository) DeleteHourlyBefore(ctx context.Context, cutoffHour string) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("stat_hour < ?", cutoffHour).
		Delete(&schema.HourlyActivityStat{})
	if result.Error != nil {
		return 0, fmt.Errorf("清理小时活动失败: %w", result.Error)
	}
	if result.RowsAffected > 0 {
		slog.Info("清理过期小时统计", "deleted", result.RowsAffected, "cutoff", cutoffHour)
	}
	return result.RowsAffected, nil
}
