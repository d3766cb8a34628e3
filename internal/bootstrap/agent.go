package bootstrap

import (
	"context"
	"log/slog"

	"github.com/fsnotify/fsnotify"
	"github.com/yuqie6/TraceBoard/internal/capture"
	"github.com/yuqie6/TraceBoard/internal/hotkey"
	"github.com/yuqie6/TraceBoard/internal/pkg/config"
)

// Agent 采集代理运行时
// 消费按下/释放信号流：按下先过组合键状态机再记录，释放只喂状态机。
// 记录失败只打日志，绝不向采集路径抛错——丢一条统计好过打断监听。
type Agent struct {
	core    *Core
	tracker *hotkey.Tracker
	cfgPath string // 非空时监视该文件，热键定义变更即热更新
}

// NewAgent 创建采集代理
func NewAgent(core *Core, cfgPath string) (*Agent, error) {
	defs, err := core.Cfg.HotkeyDefinitions()
	if err != nil {
		return nil, err
	}
	return &Agent{
		core:    core,
		tracker: hotkey.NewTracker(defs),
		cfgPath: cfgPath,
	}, nil
}

// Run 运行事件循环直到信号源结束或 ctx 取消
func (a *Agent) Run(ctx context.Context, src capture.Source) error {
	var watchCh <-chan fsnotify.Event
	if a.cfgPath != "" {
		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			slog.Warn("创建配置监视器失败，热键热更新不可用", "error", err)
		} else {
			defer watcher.Close()
			if err := watcher.Add(a.cfgPath); err != nil {
				slog.Warn("监视配置文件失败", "path", a.cfgPath, "error", err)
			} else {
				watchCh = watcher.Events
			}
		}
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case we, ok := <-watchCh:
			if !ok {
				watchCh = nil
				continue
			}
			if we.Op.Has(fsnotify.Write) || we.Op.Has(fsnotify.Create) {
				a.reloadHotkeys()
			}

		case ev, ok := <-src.Events():
			if !ok {
				return nil
			}
			a.handle(ctx, ev)
		}
	}
}

// handle 处理单条输入信号
func (a *Agent) handle(ctx context.Context, ev capture.Event) {
	switch ev.Kind {
	case capture.KindPress:
		fires, repeat := a.tracker.Press(ev.VK)
		if repeat {
			// 按住不放时系统自动重复的按下，不计入统计
			return
		}
		if err := a.core.Services.Recorder.RecordKeyEvent(ctx, ev.VK, ev.KeyName, fires); err != nil {
			slog.Error("记录按键失败，事件丢弃", "vk", ev.VK, "error", err)
		}
	case capture.KindRelease:
		a.tracker.Release(ev.VK)
	}
}

// reloadHotkeys 配置文件变更时重载热键定义
// 新配置无效时保留旧定义继续运行。
func (a *Agent) reloadHotkeys() {
	cfg, err := config.Load(a.cfgPath)
	if err != nil {
		slog.Warn("重载配置失败，保留现有热键定义", "error", err)
		return
	}
	defs, err := cfg.HotkeyDefinitions()
	if err != nil {
		slog.Warn("热键配置无效，保留现有定义", "error", err)
		return
	}
	a.tracker.SetDefinitions(defs)
	slog.Info("热键定义已热更新", "count", len(defs))
}
