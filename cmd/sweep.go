package main

import (
	"context"
	"fmt"

	"placement-portal/internal/config"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Move open jobs whose deadline has passed to Interviewing, once",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := loadRuntime()
		if err != nil {
			return err
		}
		defer func() { _ = log.Sync() }()

		moved, err := runOnceManual(cmd.Context(), cfg, newAppBuilder(cmd.Context(), log))
		if err != nil {
			return err
		}
		log.Info("manual sweep finished", zap.Int("moved", moved))
		fmt.Fprintf(cmd.OutOrStdout(), "%d job(s) moved to Interviewing.\n", moved)
		return nil
	},
}

// runOnceManual 加载数据后执行一次巡检，返回加载与巡检中改为 Interviewing 的职位总数。
func runOnceManual(ctx context.Context, cfg config.Config, build appBuilder) (int, error) {
	deps, cleanup, err := build(cfg)
	if err != nil {
		return 0, err
	}
	defer cleanup()

	moved := 0
	if deps.bootstrap != nil {
		if moved, err = deps.bootstrap(ctx); err != nil {
			return 0, fmt.Errorf("bootstrap portal: %w", err)
		}
	}
	n, err := deps.sched.RunOnce(ctx)
	if err != nil {
		return moved, err
	}
	return moved + n, nil
}
