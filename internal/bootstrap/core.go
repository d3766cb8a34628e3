package bootstrap

import (
	"context"

	"github.com/yuqie6/TraceBoard/internal/migrate"
	"github.com/yuqie6/TraceBoard/internal/pkg/config"
	"github.com/yuqie6/TraceBoard/internal/repository"
	"github.com/yuqie6/TraceBoard/internal/service"
)

// Core 持有跨二进制共享的核心依赖
type Core struct {
	Cfg *config.Config
	DB  *repository.Database

	Repos struct {
		KeyStats *repository.KeyStatsRepository
		Activity *repository.ActivityRepository
		Hotkey   *repository.HotkeyRepository
	}

	Services struct {
		Stats    *service.StatsService
		Recorder *service.Recorder
	}
}

// NewCore 构建核心依赖
// 迁移在任何记录/查询流量之前运行完成；迁移失败直接拒绝启动，
// 带着未升级的表结构运行只会把聚合写坏。
func NewCore(ctx context.Context, cfgPath string) (*Core, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}
	config.SetupLogger(cfg.App.LogLevel)

	db, err := repository.NewDatabase(cfg.Storage.DBPath)
	if err != nil {
		return nil, err
	}

	if err := migrate.NewMigrator(db.DB).Run(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	c := &Core{Cfg: cfg, DB: db}

	// Repos
	c.Repos.KeyStats = repository.NewKeyStatsRepository(db.DB)
	c.Repos.Activity = repository.NewActivityRepository(db.DB)
	c.Repos.Hotkey = repository.NewHotkeyRepository(db.DB)

	// Services
	c.Services.Stats = service.NewStatsService(c.Repos.KeyStats, c.Repos.Activity, c.Repos.Hotkey)
	c.Services.Recorder = service.NewRecorder(db.DB, c.Repos.Activity, service.RecorderConfig{
		PruneEvery: cfg.Recorder.PruneEvery,
		RetainDays: cfg.Recorder.RetainDays,
	})

	return c, nil
}

// Close 关闭核心依赖资源
func (c *Core) Close() error {
	if c == nil || c.DB == nil {
		return nil
	}
	return c.DB.Close()
}
