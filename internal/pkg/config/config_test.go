package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("写入临时配置失败: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.App.Name != "traceboard" {
		t.Errorf("app.name=%q", cfg.App.Name)
	}
	if cfg.Server.ListenAddr != "127.0.0.1:21315" {
		t.Errorf("listen_addr=%q", cfg.Server.ListenAddr)
	}
	if cfg.Recorder.PruneEvery != 2000 || cfg.Recorder.RetainDays != 10 {
		t.Errorf("recorder=%+v", cfg.Recorder)
	}

	defs, err := cfg.HotkeyDefinitions()
	if err != nil {
		t.Fatalf("HotkeyDefinitions error: %v", err)
	}
	if len(defs) == 0 {
		t.Fatalf("未配置热键时应回退到内置默认列表")
	}
}

func TestLoadOverrides(t *testing.T) {
	path := writeTempConfig(t, `
app:
  log_level: debug
server:
  listen_addr: "127.0.0.1:9999"
recorder:
  prune_every: 50
  retain_days: 3
hotkeys:
  - id: copy
    display_name: "复制"
    modifiers: ["ctrl"]
    trigger_vk: 67
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.App.LogLevel != "debug" {
		t.Errorf("log_level=%q", cfg.App.LogLevel)
	}
	if cfg.Server.ListenAddr != "127.0.0.1:9999" {
		t.Errorf("listen_addr=%q", cfg.Server.ListenAddr)
	}
	if cfg.Recorder.PruneEvery != 50 || cfg.Recorder.RetainDays != 3 {
		t.Errorf("recorder=%+v", cfg.Recorder)
	}

	defs, err := cfg.HotkeyDefinitions()
	if err != nil {
		t.Fatalf("HotkeyDefinitions error: %v", err)
	}
	if len(defs) != 1 || defs[0].ID != "copy" || defs[0].TriggerVK != 67 {
		t.Fatalf("defs=%+v", defs)
	}
	// 修饰键名大小写在转换时归一
	if string(defs[0].Modifiers[0]) != "CTRL" {
		t.Fatalf("modifiers=%v", defs[0].Modifiers)
	}
}

func TestLoadRejectsInvalidHotkeys(t *testing.T) {
	path := writeTempConfig(t, `
hotkeys:
  - id: broken
    modifiers: []
    trigger_vk: 67
`)
	if _, err := Load(path); err == nil {
		t.Fatalf("无修饰键的热键定义应在加载时被拒绝")
	}

	path = writeTempConfig(t, `
hotkeys:
  - id: dup
    modifiers: ["ctrl"]
    trigger_vk: 67
  - id: dup
    modifiers: ["ctrl"]
    trigger_vk: 86
`)
	if _, err := Load(path); err == nil {
		t.Fatalf("重复的热键 id 应在加载时被拒绝")
	}
}
