package storage

import (
	"context"
	"sync"
)

// Readiness 一次性就绪信号。
type Readiness struct {
	once sync.Once
	ch   chan struct{}
}

// NewReadiness 创建未就绪的信号。
func NewReadiness() *Readiness {
	return &Readiness{ch: make(chan struct{})}
}

// Resolve 标记就绪，可重复调用。
func (r *Readiness) Resolve() {
	r.once.Do(func() { close(r.ch) })
}

// Ready 是否已就绪。
func (r *Readiness) Ready() bool {
	select {
	case <-r.ch:
		return true
	default:
		return false
	}
}

// Wait 阻塞到就绪或上下文结束。上下文没有截止时间时可能一直等待。
func (r *Readiness) Wait(ctx context.Context) error {
	select {
	case <-r.ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
