package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"placement-portal/internal/api"
	"placement-portal/internal/archive"
	"placement-portal/internal/config"
	"placement-portal/internal/metrics"
	"placement-portal/internal/notifier"
	"placement-portal/internal/portal"
	"placement-portal/internal/scheduler"
	"placement-portal/internal/storage"
	"placement-portal/internal/subscription"

	"go.uber.org/zap"
)

// sweepScheduler 抽象截止时间调度器，便于测试替换。
type sweepScheduler interface {
	Start(ctx context.Context) error
	RunOnce(ctx context.Context) (int, error)
}

// shortlistExporter 抽象名单导出，便于测试替换。
type shortlistExporter interface {
	ExportJobShortlist(jobID int) (string, string, error)
	ExportGlobalShortlist(term string) (string, string, error)
	ExportCompanyShortlist(name string) (string, string, error)
}

// appDeps 各子命令共用的组件。bootstrap 与 watch 为空时跳过。
type appDeps struct {
	sched     sweepScheduler
	exporter  shortlistExporter
	handler   http.Handler
	bootstrap func(ctx context.Context) (int, error)
	watch     func(ctx context.Context) error
}

// appBuilder 按配置组装组件，返回的 cleanup 负责释放资源。
type appBuilder func(cfg config.Config) (appDeps, func(), error)

// newAppBuilder 绑定根上下文与日志。
func newAppBuilder(ctx context.Context, logger *zap.Logger) appBuilder {
	return func(cfg config.Config) (appDeps, func(), error) {
		return buildApp(ctx, cfg, logger)
	}
}

// buildApp 组装存储、同步、通知、门户状态、调度器与 HTTP 处理器。
func buildApp(ctx context.Context, cfg config.Config, logger *zap.Logger) (appDeps, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
	fail := func(err error) (appDeps, func(), error) {
		cleanup()
		return appDeps{}, func() {}, err
	}

	store, err := storage.NewStore(cfg.Database)
	if err != nil {
		return fail(fmt.Errorf("init store: %w", err))
	}
	closers = append(closers, func() {
		if err := store.Close(); err != nil {
			logger.Warn("close store", zap.Error(err))
		}
	})

	var (
		remote storage.Remote
		redis  *storage.RedisRemote
	)
	if cfg.Redis.Enabled() {
		redis = storage.NewRedisRemote(cfg.Redis)
		remote = redis
		closers = append(closers, func() { _ = redis.Close() })
	}
	syncer := storage.NewSyncer(remote, store, storage.NewReadiness(), logger)
	if redis != nil {
		logger.Info("connecting to remote store", zap.String("addr", cfg.Redis.Addr))
		go func() {
			if err := syncer.Connect(ctx, redis.Ping, 100*time.Millisecond); err != nil && !errors.Is(err, context.Canceled) {
				logger.Warn("remote store connect stopped", zap.Error(err))
			}
		}()
	}

	arch, err := archive.New(ctx, cfg.Archive)
	if err != nil {
		return fail(fmt.Errorf("init archive: %w", err))
	}

	broadcaster, closeBroadcaster := buildBroadcaster(cfg, store, logger)
	closers = append(closers, closeBroadcaster)

	state := portal.New(portal.Options{
		Admin:       cfg.Admin,
		Persister:   portal.SyncPersister{Saver: syncer},
		Broadcaster: broadcaster,
		Archive:     arch,
		Uploads:     store,
		Logger:      logger,
	})
	// 先等待在途广播，再关闭通知渠道与存储。
	closers = append(closers, state.Wait)

	if err := metrics.RegisterPortalCollector(nil, state); err != nil {
		logger.Warn("register portal metrics", zap.Error(err))
	}

	sched := scheduler.NewScheduler(state, logger, cfg.Scheduler)
	subs := subscription.NewService(store, cfg.Subscription, state)
	handler := api.NewHandler(api.Deps{
		Portal:        state,
		Status:        syncer,
		Sweeper:       sched,
		Subscriptions: subs,
		Uploads:       store,
		Logger:        logger,
	})

	return appDeps{
		sched:    sched,
		exporter: state,
		handler:  handler,
		bootstrap: func(ctx context.Context) (int, error) {
			return state.Bootstrap(ctx, syncer)
		},
		watch: func(ctx context.Context) error {
			return state.Watch(ctx, syncer)
		},
	}, cleanup, nil
}

// buildBroadcaster 按配置组合通知渠道：日志始终启用，邮件、Webhook、NATS 按需启用。
func buildBroadcaster(cfg config.Config, store notifier.SubscriptionStore, logger *zap.Logger) (notifier.Notifier, func()) {
	targets := notifier.Multi{notifier.NewLogNotifier(logger)}
	closeFn := func() {}

	if cfg.Email.Enabled() {
		targets = append(targets, notifier.NewSubscriptionNotifier(store, cfg.Email, nil, notifier.NewEmailNotifier(cfg.Email, nil)))
	} else {
		logger.Info("email notifier disabled: missing host, port or from")
	}
	if cfg.Webhook.URL != "" {
		targets = append(targets, notifier.NewWebhookNotifier(cfg.Webhook))
	}
	if cfg.NATS.URL != "" {
		n, err := notifier.NewNATSNotifier(cfg.NATS)
		if err != nil {
			logger.Warn("nats notifier disabled", zap.Error(err))
		} else {
			targets = append(targets, n)
			closeFn = n.Close
		}
	}
	return targets, closeFn
}
