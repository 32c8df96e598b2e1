package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestSchedulerRunOnce(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	sw := &stubSweeper{changed: 2}
	sched := NewScheduler(sw, nil, Config{Interval: "1h", Timeout: "5s"})
	sched.now = func() time.Time { return now }

	n, err := sched.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce error: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 swept jobs, got %d", n)
	}
	if got := sw.lastNow.Load(); got == nil || !got.(time.Time).Equal(now) {
		t.Fatalf("expected sweeper to receive scheduler clock, got %v", got)
	}
}

func TestSchedulerSkipsOverlappingRuns(t *testing.T) {
	t.Parallel()

	sw := &stubSweeper{block: make(chan struct{})}
	sched := NewScheduler(sw, nil, Config{Interval: "1h", Timeout: "5s"})

	first := make(chan error, 1)
	go func() {
		_, err := sched.RunOnce(context.Background())
		first <- err
	}()
	waitFor(t, func() bool { return sw.calls.Load() == 1 })

	n, err := sched.RunOnce(context.Background())
	if err != nil || n != 0 {
		t.Fatalf("expected overlapping run to be skipped, got n=%d err=%v", n, err)
	}

	close(sw.block)
	if err := <-first; err != nil {
		t.Fatalf("first run error: %v", err)
	}
	if sw.calls.Load() != 1 {
		t.Fatalf("expected sweeper called once, got %d", sw.calls.Load())
	}
}

func TestSchedulerRunsAtStartAndOnTick(t *testing.T) {
	t.Parallel()

	tickCh := make(chan time.Time, 4)
	sw := &stubSweeper{err: errors.New("store down")}
	sched := NewScheduler(sw, nil, Config{Interval: "100ms", Timeout: "5s"})
	sched.newTicker = func(time.Duration) ticker { return &stubTicker{ch: tickCh} }

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- sched.Start(ctx) }()

	waitFor(t, func() bool { return sw.calls.Load() == 1 })
	tickCh <- time.Now()
	waitFor(t, func() bool { return sw.calls.Load() == 2 })

	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context canceled, got %v", err)
	}
}

func TestSchedulerRequiresSweeper(t *testing.T) {
	t.Parallel()

	if err := NewScheduler(nil, nil, Config{}).Start(context.Background()); err == nil {
		t.Fatalf("expected error without sweeper")
	}
}

func TestParseSchedule(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in       string
		interval time.Duration
		cron     bool
	}{
		{"", DefaultInterval, false},
		{"1h", time.Hour, false},
		{"-1m", DefaultInterval, false},
		{"*/15 * * * *", 0, true},
		{"@hourly", 0, true},
		{"bogus", DefaultInterval, false},
	}
	for _, tc := range cases {
		interval, sched := parseSchedule(tc.in)
		if interval != tc.interval || (sched != nil) != tc.cron {
			t.Fatalf("parseSchedule(%q) = %v, cron=%v", tc.in, interval, sched != nil)
		}
	}
}

func TestCronNext(t *testing.T) {
	t.Parallel()

	cases := []struct {
		spec  string
		after time.Time
		want  time.Time
	}{
		{
			spec:  "*/15 * * * *",
			after: time.Date(2024, 6, 1, 10, 7, 30, 0, time.UTC),
			want:  time.Date(2024, 6, 1, 10, 15, 0, 0, time.UTC),
		},
		{
			spec:  "30 9 * * 1-5",
			after: time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC),
			want:  time.Date(2024, 6, 3, 9, 30, 0, 0, time.UTC),
		},
		{
			spec:  "0 0 1 1 *",
			after: time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC),
			want:  time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		},
	}
	for _, tc := range cases {
		_, sched := parseSchedule(tc.spec)
		if sched == nil {
			t.Fatalf("parseSchedule(%q) returned no cron schedule", tc.spec)
		}
		got := sched.Next(tc.after)
		if !got.Equal(tc.want) {
			t.Fatalf("next(%q) = %v, want %v", tc.spec, got, tc.want)
		}
	}
}

func TestParseScheduleFallsBackOnInvalidCron(t *testing.T) {
	t.Parallel()

	for _, spec := range []string{"* * *", "61 * * * *", "5-1 * * * *", "a * * * *"} {
		interval, sched := parseSchedule(spec)
		if sched != nil || interval != DefaultInterval {
			t.Fatalf("expected default interval for %q, got %v cron=%v", spec, interval, sched != nil)
		}
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("condition not met in time")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

// --- stubs ---

type stubSweeper struct {
	changed int
	err     error
	block   chan struct{}
	calls   atomic.Int32
	lastNow atomic.Value
}

func (s *stubSweeper) SweepDeadlines(_ context.Context, now time.Time) (int, error) {
	s.calls.Add(1)
	s.lastNow.Store(now)
	if s.block != nil {
		<-s.block
	}
	return s.changed, s.err
}

type stubTicker struct {
	ch chan time.Time
}

func (s *stubTicker) C() <-chan time.Time { return s.ch }
func (s *stubTicker) Stop()               {}
