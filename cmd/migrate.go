package cmd

import (
	"github.com/spf13/cobra"
	"github.com/yuqie6/TraceBoard/internal/migrate"
	"github.com/yuqie6/TraceBoard/internal/pkg/config"
	"github.com/yuqie6/TraceBoard/internal/repository"
)

var migrateConfigPath string

func init() {
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "离线执行数据库升级",
		Long:  "检测存量库的 schema 版本并执行全部待完成的迁移步骤，可在同一库上安全重跑。",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(migrateConfigPath)
			if err != nil {
				return err
			}
			config.SetupLogger(cfg.App.LogLevel)

			db, err := repository.NewDatabase(cfg.Storage.DBPath)
			if err != nil {
				return err
			}
			defer db.Close()

			return migrate.NewMigrator(db.DB).Run(cmd.Context())
		},
	}
	migrateCmd.Flags().StringVarP(&migrateConfigPath, "config", "c", "", "配置文件路径")
	rootCmd.AddCommand(migrateCmd)
}
