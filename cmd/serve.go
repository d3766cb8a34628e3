package cmd

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/yuqie6/TraceBoard/internal/bootstrap"
	"github.com/yuqie6/TraceBoard/internal/httpapi"
)

var serveConfigPath string

func init() {
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "启动查询服务",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			core, err := bootstrap.NewCore(ctx, serveConfigPath)
			if err != nil {
				return err
			}
			defer core.Close()

			api := httpapi.NewAPI(core.Services.Stats, core.Services.Recorder)
			srv, err := httpapi.Start(api, core.Cfg.Server.ListenAddr)
			if err != nil {
				return err
			}

			<-ctx.Done()

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
	serveCmd.Flags().StringVarP(&serveConfigPath, "config", "c", "", "配置文件路径")
	rootCmd.AddCommand(serveCmd)
}
