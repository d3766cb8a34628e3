package config

import (
	"fmt"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"
)

// DefaultConfigPath 默认配置文件路径（可执行文件旁的 config/config.yaml）
func DefaultConfigPath() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("获取可执行文件路径失败: %w", err)
	}
	exeDir := filepath.Dir(exe)
	return filepath.Join(exeDir, "config", "config.yaml"), nil
}

// WriteFile 把配置落盘为 YAML（首次运行生成样板用）
func WriteFile(path string, cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("cfg 不能为空")
	}
	if path == "" {
		return fmt.Errorf("path 不能为空")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("创建配置目录失败: %w", err)
	}

	hotkeys := make([]map[string]any, 0, len(cfg.Hotkeys))
	for _, hk := range cfg.Hotkeys {
		hotkeys = append(hotkeys, map[string]any{
			"id":           hk.ID,
			"display_name": hk.DisplayName,
			"modifiers":    hk.Modifiers,
			"trigger_vk":   hk.TriggerVK,
		})
	}

	payload := map[string]any{
		"app": map[string]any{
			"name":      cfg.App.Name,
			"version":   cfg.App.Version,
			"log_level": cfg.App.LogLevel,
		},
		"storage": map[string]any{
			"db_path": cfg.Storage.DBPath,
		},
		"server": map[string]any{
			"listen_addr": cfg.Server.ListenAddr,
		},
		"recorder": map[string]any{
			"prune_every": cfg.Recorder.PruneEvery,
			"retain_days": cfg.Recorder.RetainDays,
		},
		"hotkeys": hotkeys,
	}

	b, err := yaml.Marshal(payload)
	if err != nil {
		return fmt.Errorf("序列化配置失败: %w", err)
	}

	if err := os.WriteFile(path, b, 0o600); err != nil {
		return fmt.Errorf("写入配置文件失败: %w", err)
	}
	return nil
}
