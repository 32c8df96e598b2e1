package scheduler

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"placement-portal/internal/metrics"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultInterval 未配置或无法解析时的巡检间隔。
const DefaultInterval = 5 * time.Minute

// Config 用于调度配置。Interval 可以是时长（如 5m）、5 段 cron 表达式或 @hourly 等描述符。
type Config struct {
	Interval string `yaml:"interval" json:"interval"`
	Timeout  string `yaml:"timeout" json:"timeout"`
}

// Sweeper 把截止时间已过的 Open 职位改为 Interviewing，返回改动数量。
type Sweeper interface {
	SweepDeadlines(ctx context.Context, now time.Time) (int, error)
}

// Scheduler 负责周期性执行截止时间巡检。
type Scheduler struct {
	sweeper   Sweeper
	logger    *zap.Logger
	interval  time.Duration
	schedule  cron.Schedule
	timeout   time.Duration
	running   atomic.Bool
	newTicker func(time.Duration) ticker
	now       func() time.Time
}

type ticker interface {
	C() <-chan time.Time
	Stop()
}

// NewScheduler 创建 Scheduler，解析配置的间隔与超时。
func NewScheduler(sweeper Sweeper, logger *zap.Logger, cfg Config) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	interval, schedule := parseSchedule(cfg.Interval)
	timeout := 30 * time.Second
	if cfg.Timeout != "" {
		if d, err := time.ParseDuration(cfg.Timeout); err == nil && d > 0 {
			timeout = d
		}
	}

	return &Scheduler{
		sweeper:   sweeper,
		logger:    logger.Named("scheduler"),
		interval:  interval,
		schedule:  schedule,
		timeout:   timeout,
		newTicker: defaultTicker,
		now:       time.Now,
	}
}

// Start 先执行一次巡检，然后按间隔或 cron 循环，直到上下文取消。
// 单次巡检失败只记录日志。
func (s *Scheduler) Start(ctx context.Context) error {
	if s.sweeper == nil {
		return fmt.Errorf("scheduler missing sweeper")
	}

	s.tick(ctx)

	g, ctx := errgroup.WithContext(ctx)
	if s.schedule != nil {
		g.Go(func() error {
			return s.startCron(ctx)
		})
		return g.Wait()
	}

	t := s.newTicker(s.interval)
	ch := t.C()
	g.Go(func() error {
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ch:
				s.tick(ctx)
			drain:
				for {
					select {
					case <-ch:
						continue
					default:
						break drain
					}
				}
			}
		}
	})
	return g.Wait()
}

// RunOnce 对外暴露单次巡检，便于手动触发。已有巡检在执行时直接返回 0。
func (s *Scheduler) RunOnce(ctx context.Context) (int, error) {
	return s.runOnce(ctx)
}

func (s *Scheduler) tick(ctx context.Context) {
	n, err := s.runOnce(ctx)
	if err != nil {
		if ctx.Err() == nil {
			s.logger.Error("deadline sweep failed", zap.Error(err))
		}
		return
	}
	if n > 0 {
		s.logger.Info("jobs moved to interviewing", zap.Int("count", n))
	}
}

func (s *Scheduler) runOnce(ctx context.Context) (int, error) {
	if s.running.Swap(true) {
		return 0, nil
	}
	defer s.running.Store(false)

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	n, err := s.sweeper.SweepDeadlines(ctx, s.now())
	if err != nil {
		return n, fmt.Errorf("sweep deadlines: %w", err)
	}
	metrics.AddSweptJobs(n)
	return n, nil
}

func defaultTicker(d time.Duration) ticker {
	return tickerWrapper{time.NewTicker(d)}
}

type tickerWrapper struct {
	*time.Ticker
}

func (t tickerWrapper) C() <-chan time.Time { return t.Ticker.C }
func (t tickerWrapper) Stop()               { t.Ticker.Stop() }

func (s *Scheduler) startCron(ctx context.Context) error {
	for {
		next := s.schedule.Next(s.now())
		if next.IsZero() {
			return fmt.Errorf("cron schedule never fires")
		}
		wait := next.Sub(s.now())
		if wait < 0 {
			wait = 0
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
			s.tick(ctx)
		}
	}
}

// parseSchedule 时长优先，其次按标准 cron 解析；都无法识别时使用默认间隔。
func parseSchedule(value string) (time.Duration, cron.Schedule) {
	if value == "" {
		return DefaultInterval, nil
	}
	if d, err := time.ParseDuration(value); err == nil && d > 0 {
		return d, nil
	}
	if sched, err := cron.ParseStandard(value); err == nil {
		return 0, sched
	}
	return DefaultInterval, nil
}
