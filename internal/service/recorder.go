package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/yuqie6/TraceBoard/internal/hotkey"
	"github.com/yuqie6/TraceBoard/internal/repository"
	"gorm.io/gorm"
)

// RecorderConfig 事件记录器配置
type RecorderConfig struct {
	PruneEvery int // 每多少次记录触发一次保留清理检查
	RetainDays int // 小时统计保留天数
}

// DefaultRecorderConfig 默认配置
func DefaultRecorderConfig() RecorderConfig {
	return RecorderConfig{PruneEvery: 2000, RetainDays: 10}
}

// Recorder 按键事件记录器
// 每次按下在一个事务内更新全部相关聚合行；
// 任何失败整体回滚并丢弃该事件——丢一条统计可以接受，
// 写了一半的聚合无法再从原始数据推导回来。
type Recorder struct {
	db           *gorm.DB
	activityRepo *repository.ActivityRepository
	cfg          RecorderConfig

	calls atomic.Int64
	now   func() time.Time // 测试注入
}

// NewRecorder 创建事件记录器
func NewRecorder(db *gorm.DB, activityRepo *repository.ActivityRepository, cfg RecorderConfig) *Recorder {
	if cfg.PruneEvery <= 0 {
		cfg.PruneEvery = DefaultRecorderConfig().PruneEvery
	}
	if cfg.RetainDays <= 0 {
		cfg.RetainDays = DefaultRecorderConfig().RetainDays
	}
	return &Recorder{
		db:           db,
		activityRepo: activityRepo,
		cfg:          cfg,
		now:          time.Now,
	}
}

// RecordKeyEvent 记录一次按键及其触发的热键
// fires 来自组合键状态机对同一次按下的判定结果。
func (r *Recorder) RecordKeyEvent(ctx context.Context, vk int, keyName string, fires []hotkey.Fire) error {
	if vk <= 0 {
		// 畸形事件，不计入任何统计
		slog.Debug("丢弃无效按键事件", "vk", vk)
		return nil
	}

	now := r.now()
	month := monthKey(now)
	day := dayKey(now)
	hour := hourKey(now)
	triggers := int64(len(fires))

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := repository.IncrementKeyTotal(tx, vk, keyName, 1, now); err != nil {
			return err
		}
		if err := repository.IncrementMonthlyKey(tx, month, vk, keyName, 1); err != nil {
			return err
		}
		if err := repository.IncrementDailyActivity(tx, day, 1, triggers, now); err != nil {
			return err
		}
		if err := repository.IncrementHourlyActivity(tx, hour, 1, triggers, now); err != nil {
			return err
		}
		for _, fire := range fires {
			if err := repository.IncrementHotkeyTotal(tx, fire.ID, fire.DisplayName, 1, now); err != nil {
				return err
			}
			if err := repository.IncrementHotkeyDaily(tx, day, fire.ID, 1, now); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("记录按键事件失败: %w", err)
	}

	r.maybePrune(ctx, now)
	return nil
}

// maybePrune 摊还式保留清理
// 每 PruneEvery 次记录检查一次，删除保留窗口之前的小时行。
// 清理只是尽力而为的内务，失败不影响记录路径。
func (r *Recorder) maybePrune(ctx context.Context, now time.Time) {
	n := r.calls.Add(1)
	if n%int64(r.cfg.PruneEvery) != 0 {
		return
	}

	cutoff := hourKey(now.AddDate(0, 0, -r.cfg.RetainDays))
	if _, err := r.activityRepo.DeleteHourlyBefore(ctx, cutoff); err != nil {
		slog.Warn("保留清理失败，跳过", "cutoff", cutoff, "error", err)
	}
}
