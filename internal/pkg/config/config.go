package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"github.com/yuqie6/TraceBoard/internal/hotkey"
)

// Config 应用配置
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Server   ServerConfig   `mapstructure:"server"`
	Recorder RecorderConfig `mapstructure:"recorder"`
	Hotkeys  []HotkeyConfig `mapstructure:"hotkeys"`
}

// AppConfig 应用配置
type AppConfig struct {
	Name     string `mapstructure:"name"`
	Version  string `mapstructure:"version"`
	LogLevel string `mapstructure:"log_level"`
}

// StorageConfig 存储配置
type StorageConfig struct {
	DBPath string `mapstructure:"db_path"`
}

// ServerConfig 查询服务配置
type ServerConfig struct {
	ListenAddr string `mapstructure:"listen_addr"`
}

// RecorderConfig 记录器配置
type RecorderConfig struct {
	PruneEvery int `mapstructure:"prune_every"` // 每 N 次记录做一次保留清理检查
	RetainDays int `mapstructure:"retain_days"` // 小时统计保留天数
}

// HotkeyConfig 热键定义（配置形态）
type HotkeyConfig struct {
	ID          string   `mapstructure:"id"`
	DisplayName string   `mapstructure:"display_name"`
	Modifiers   []string `mapstructure:"modifiers"`
	TriggerVK   int      `mapstructure:"trigger_vk"`
}

// Load 加载配置文件
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// 设置默认值
	setDefaults(v)

	// 设置配置文件路径
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// 默认查找路径
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	// 支持环境变量
	v.SetEnvPrefix("TRACEBOARD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 读取配置文件
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			slog.Warn("配置文件未找到，使用默认配置")
		} else {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
	} else {
		slog.Info("加载配置文件", "path", v.ConfigFileUsed())
	}

	// 解析配置
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	// 处理相对路径
	cfg.Storage.DBPath = resolvePath(cfg.Storage.DBPath)

	// 热键定义在加载时即校验，拒绝带病启动
	if _, err := cfg.HotkeyDefinitions(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// setDefaults 设置默认值
func setDefaults(v *viper.Viper) {
	// App
	v.SetDefault("app.name", "traceboard")
	v.SetDefault("app.version", "0.3.0")
	v.SetDefault("app.log_level", "info")

	// Storage
	v.SetDefault("storage.db_path", "./data/key_events.db")

	// Server
	v.SetDefault("server.listen_addr", "127.0.0.1:21315")

	// Recorder
	v.SetDefault("recorder.prune_every", 2000)
	v.SetDefault("recorder.retain_days", 10)
}

// HotkeyDefinitions 把配置形态的热键转换为校验过的类型化定义
// 未配置任何热键时使用内置默认列表。
func (c *Config) HotkeyDefinitions() ([]hotkey.Definition, error) {
	if len(c.Hotkeys) == 0 {
		return hotkey.DefaultDefinitions(), nil
	}

	defs := make([]hotkey.Definition, 0, len(c.Hotkeys))
	for _, hc := range c.Hotkeys {
		mods := make([]hotkey.Modifier, 0, len(hc.Modifiers))
		for _, m := range hc.Modifiers {
			mods = append(mods, hotkey.Modifier(strings.ToUpper(strings.TrimSpace(m))))
		}
		defs = append(defs, hotkey.Definition{
			ID:          hc.ID,
			DisplayName: hc.DisplayName,
			Modifiers:   mods,
			TriggerVK:   hc.TriggerVK,
		})
	}
	if err := hotkey.ValidateDefinitions(defs); err != nil {
		return nil, fmt.Errorf("热键配置无效: %w", err)
	}
	return defs, nil
}

// resolvePath 解析相对路径为绝对路径
func resolvePath(path string) string {
	if filepath.IsAbs(path) {
		return path
	}

	// 获取可执行文件目录
	exe, err := os.Executable()
	if err != nil {
		return path
	}

	exeDir := filepath.Dir(exe)
	return filepath.Join(exeDir, path)
}

// SetupLogger 根据配置设置日志级别
func SetupLogger(level string) {
	var logLevel slog.Level
	switch strings.ToLower(level) {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})
	slog.SetDefault(slog.New(handler))
}
