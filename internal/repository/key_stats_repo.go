package repository

import (
	"context"
	"fmt"

	"github.com/yuqie6/TraceBoard/internal/schema"
	"gorm.io/gorm"
)

// KeyStatsRepository 按键统计仓储
type KeyStatsRepository struct {
	db *gorm.DB
}

// NewKeyStatsRepository 创建仓储
func NewKeyStatsRepository(db *gorm.DB) *KeyStatsRepository {
	return &KeyStatsRepository{db: db}
}

// ListTotals 获取全部按键总计，按次数降序
func (r *KeyStatsRepository) ListTotals(ctx context.Context) ([]schema.KeyTotalStat, error) {
	var stats []schema.KeyTotalStat
	err := r.db.WithContext(ctx).
		Order("total_count DESC").
		Find(&stats).Error
	if err != nil {
		return nil, fmt.Errorf("查询按键总计失败: %w", err)
	}
	return stats, nil
}

// GetTotal 按键码获取总计
func (r *KeyStatsRepository) GetTotal(ctx context.Context, vk int) (*schema.KeyTotalStat, error) {
	var stat schema.KeyTotalStat
	err := r.db.WithContext(ctx).Where("virtual_key_code = ?", vk).First(&stat).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("查询按键总计失败: %w", err)
	}
	return &stat, nil
}

// GetMonthlyByKey 获取某键的全部月度行
func (r *KeyStatsRepository) GetMonthlyByKey(ctx context.Context, vk int) ([]schema.MonthlyKeyStat, error) {
	var stats []schema.MonthlyKeyStat
	err := r.db.WithContext(ctx).
		Where("virtual_key_code = ?", vk).
		Order("stat_month ASC").
		Find(&stats).Error
	if err != nil {
		return nil, fmt.Errorf("查询月度统计失败: %w", err)
	}
	return stats, nil
}
