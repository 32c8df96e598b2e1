package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"placement-portal/internal/config"
	"placement-portal/internal/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// httpServer 抽象 http.Server，便于测试替换。
type httpServer interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the portal HTTP API and the deadline scheduler",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return serve(ctx)
	},
}

func serve(ctx context.Context) error {
	cfg, log, err := loadRuntime()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	deps, cleanup, err := newAppBuilder(ctx, log)(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	if _, err := deps.bootstrap(ctx); err != nil {
		return fmt.Errorf("bootstrap portal: %w", err)
	}

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           deps.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	log.Info("listening", zap.String("addr", cfg.Server.Addr))
	return runServer(ctx, srv, deps.sched, shutdownTimeout(cfg.Server), deps.watch)
}

// runServer 并发运行 HTTP 服务、调度器与后台任务；上下文取消后在 timeout 内优雅关闭。
func runServer(ctx context.Context, srv httpServer, sched sweepScheduler, timeout time.Duration, background ...func(context.Context) error) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		return ignoreCanceled(sched.Start(gctx))
	})
	for _, task := range background {
		if task == nil {
			continue
		}
		task := task
		g.Go(func() error {
			return ignoreCanceled(task(gctx))
		})
	}
	return g.Wait()
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func shutdownTimeout(cfg config.ServerConfig) time.Duration {
	if d, err := time.ParseDuration(cfg.ShutdownTimeout); err == nil && d > 0 {
		return d
	}
	return 5 * time.Second
}

// loadRuntime 读取配置并创建日志。
func loadRuntime() (config.Config, *zap.Logger, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("load config: %w", err)
	}
	log, err := logger.New(cfg.Log)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, log, nil
}
