package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/yuqie6/TraceBoard/internal/pkg/config"
)

var initCfgForce bool

func init() {
	initCfgCmd := &cobra.Command{
		Use:   "init-config [路径]",
		Short: "生成样板配置文件",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var path string
			if len(args) == 1 {
				path = args[0]
			} else {
				p, err := config.DefaultConfigPath()
				if err != nil {
					return err
				}
				path = p
			}

			if !initCfgForce {
				if _, err := os.Stat(path); err == nil {
					return fmt.Errorf("配置文件已存在: %s（使用 --force 覆盖）", path)
				}
			}

			// 空路径加载得到纯默认配置
			cfg, err := config.Load("")
			if err != nil {
				return err
			}
			if err := config.WriteFile(path, cfg); err != nil {
				return err
			}
			cmd.Printf("已生成配置文件: %s\n", path)
			return nil
		},
	}
	initCfgCmd.Flags().BoolVar(&initCfgForce, "force", false, "覆盖已存在的配置文件")
	rootCmd.AddCommand(initCfgCmd)
}
