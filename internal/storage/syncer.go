package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"placement-portal/internal/metrics"

	"go.uber.org/zap"
)

// Status 远端连接状态。
type Status string

const (
	StatusConnecting Status = "connecting"
	StatusConnected  Status = "connected"
	StatusOffline    Status = "offline"
	StatusError      Status = "error"
)

// Source 快照来源。
type Source string

const (
	SourceRemote Source = "remote"
	SourceLocal  Source = "local"
)

// Remote 远端文档存储。
type Remote interface {
	Read(ctx context.Context, path string) ([]byte, error)
	Write(ctx context.Context, path string, body []byte) error
	Subscribe(ctx context.Context, path string, onChange func([]byte)) error
}

// Local 本地镜像。
type Local interface {
	ReadDocument(ctx context.Context, path string) ([]byte, error)
	WriteDocument(ctx context.Context, path string, body []byte) error
}

// Syncer 先写远端再镜像到本地，读取时远端失败退回本地。
// remote 为 nil 时只使用本地存储。
type Syncer struct {
	remote Remote
	local  Local
	ready  *Readiness
	logger *zap.Logger

	retry time.Duration

	mu     sync.RWMutex
	status Status
}

// NewSyncer 创建 Syncer。客户端句柄在构造时已存在，ready 随即解除阻塞；
// 远端不可达时读写失败直接回退本地，不等待连通。
func NewSyncer(remote Remote, local Local, ready *Readiness, logger *zap.Logger) *Syncer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ready == nil {
		ready = NewReadiness()
	}
	status := StatusConnecting
	if remote == nil {
		status = StatusOffline
	}
	ready.Resolve()
	return &Syncer{
		remote: remote,
		local:  local,
		ready:  ready,
		logger: logger.Named("syncer"),
		retry:  time.Second,
		status: status,
	}
}

// Status 当前连接状态。
func (s *Syncer) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

func (s *Syncer) setStatus(st Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = st
}

// Connect 在后台探测远端并更新状态：每隔 every 重试 ping 直到成功。
// 首次失败时把仍处于 connecting 的状态改为 offline。上下文取消时返回。
func (s *Syncer) Connect(ctx context.Context, ping func(context.Context) error, every time.Duration) error {
	if s.remote == nil || ping == nil {
		return nil
	}
	if every <= 0 {
		every = 100 * time.Millisecond
	}

	t := time.NewTicker(every)
	defer t.Stop()
	logged := false
	for {
		if err := ping(ctx); err == nil {
			s.setStatus(StatusConnected)
			s.logger.Info("remote store reachable")
			return nil
		} else if !logged {
			s.markOfflineIfConnecting()
			s.logger.Warn("remote store not reachable, using local copy until it is", zap.Error(err))
			logged = true
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
	}
}

func (s *Syncer) markOfflineIfConnecting() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status == StatusConnecting {
		s.status = StatusOffline
	}
}

// Save 写入快照。远端失败只记录日志并切换为 offline，本地镜像总会写入；
// 只有本地写入失败时返回错误。
func (s *Syncer) Save(ctx context.Context, path string, body []byte) error {
	if s.remote != nil {
		if err := s.ready.Wait(ctx); err != nil {
			return fmt.Errorf("wait for remote store: %w", err)
		}
		if err := s.remote.Write(ctx, path, body); err != nil {
			metrics.IncreaseSaveFailures(string(SourceRemote))
			s.logger.Warn("remote save failed, keeping local copy", zap.String("path", path), zap.Error(err))
			s.setStatus(StatusOffline)
		} else {
			s.setStatus(StatusConnected)
		}
	}

	if err := s.local.WriteDocument(ctx, path, body); err != nil {
		metrics.IncreaseSaveFailures(string(SourceLocal))
		return fmt.Errorf("save local copy: %w", err)
	}
	return nil
}

// Load 读取快照。远端不存在文档时返回 ErrNotFound，远端出错时读取本地镜像。
func (s *Syncer) Load(ctx context.Context, path string) ([]byte, Source, error) {
	if s.remote != nil {
		if err := s.ready.Wait(ctx); err != nil {
			return nil, SourceRemote, fmt.Errorf("wait for remote store: %w", err)
		}
		body, err := s.remote.Read(ctx, path)
		switch {
		case err == nil:
			s.setStatus(StatusConnected)
			return body, SourceRemote, nil
		case errors.Is(err, ErrNotFound):
			s.setStatus(StatusConnected)
			return nil, SourceRemote, ErrNotFound
		default:
			s.logger.Warn("remote load failed, using local copy", zap.String("path", path), zap.Error(err))
			s.setStatus(StatusOffline)
		}
	}

	body, err := s.local.ReadDocument(ctx, path)
	if err != nil {
		return nil, SourceLocal, err
	}
	return body, SourceLocal, nil
}

// Watch 订阅远端推送并整体应用。订阅断开后按 retry 间隔重连，直到上下文取消。
func (s *Syncer) Watch(ctx context.Context, path string, apply func([]byte)) error {
	if s.remote == nil {
		return nil
	}
	if err := s.ready.Wait(ctx); err != nil {
		return err
	}

	for {
		err := s.remote.Subscribe(ctx, path, func(body []byte) {
			s.setStatus(StatusConnected)
			apply(body)
		})
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.setStatus(StatusError)
		s.logger.Warn("live updates interrupted, resubscribing", zap.String("path", path), zap.Error(err))

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.retry):
		}
	}
}
