package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/yuqie6/TraceBoard/internal/bootstrap"
	"github.com/yuqie6/TraceBoard/internal/capture"
)

var (
	agentConfigPath string
	agentReplayFile string
)

func init() {
	agentCmd := &cobra.Command{
		Use:   "agent",
		Short: "启动采集代理",
		Long:  "消费按下/释放信号流并写入聚合统计。信号源为 JSONL 回放文件或标准输入。",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			core, err := bootstrap.NewCore(ctx, agentConfigPath)
			if err != nil {
				return err
			}
			defer core.Close()

			agent, err := bootstrap.NewAgent(core, agentConfigPath)
			if err != nil {
				return err
			}

			var src *capture.ReplaySource
			if agentReplayFile != "" {
				f, err := os.Open(agentReplayFile)
				if err != nil {
					return fmt.Errorf("打开回放文件失败: %w", err)
				}
				defer f.Close()
				src = capture.NewReplaySource(f)
			} else {
				src = capture.NewReplaySource(os.Stdin)
			}
			defer src.Close()

			if err := agent.Run(ctx, src); err != nil && ctx.Err() == nil {
				return err
			}
			return nil
		},
	}
	agentCmd.Flags().StringVarP(&agentConfigPath, "config", "c", "", "配置文件路径")
	agentCmd.Flags().StringVar(&agentReplayFile, "replay", "", "JSONL 事件回放文件（缺省读标准输入）")
	rootCmd.AddCommand(agentCmd)
}
