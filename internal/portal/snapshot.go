package portal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"placement-portal/internal/dataset"
	"placement-portal/internal/model"
	"placement-portal/internal/notification"
	"placement-portal/internal/storage"

	"go.uber.org/zap"
)

// DocumentPath 快照文档在远端与本地的路径。
const DocumentPath = "placementPortalData"

// Snapshot 持久化的门户状态。缺失的字段按空集合处理。
type Snapshot struct {
	Jobs            []model.Job              `json:"jobs"`
	ShortlistedData [][]any                  `json:"shortlistedData"`
	JobShortlisted  map[string][][]any       `json:"jobShortlisted"`
	Notifications   []notification.Persisted `json:"notifications"`
	Admins          []model.Admin            `json:"admins"`
}

// DecodeSnapshot 解析快照文档。
func DecodeSnapshot(body []byte) (Snapshot, error) {
	var snap Snapshot
	if err := json.Unmarshal(body, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	return snap, nil
}

// Loader 读取快照文档。
type Loader interface {
	Load(ctx context.Context, path string) ([]byte, storage.Source, error)
}

// Watcher 订阅快照推送。
type Watcher interface {
	Watch(ctx context.Context, path string, apply func([]byte)) error
}

// Saver 写入快照文档。
type Saver interface {
	Save(ctx context.Context, path string, body []byte) error
}

// SyncPersister 把快照编码为 JSON 后交给 Saver。
type SyncPersister struct {
	Saver Saver
}

// Persist 实现 Persister。
func (p SyncPersister) Persist(ctx context.Context, snap Snapshot) error {
	body, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	return p.Saver.Save(ctx, DocumentPath, body)
}

// Snapshot 返回当前状态的快照。
func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *State) snapshotLocked() Snapshot {
	perJob := s.shortlists.PerJob()
	jobShortlisted := make(map[string][][]any, len(perJob))
	for id, ds := range perJob {
		jobShortlisted[strconv.Itoa(id)] = ds.Grid()
	}
	return Snapshot{
		Jobs:            cloneJobs(s.jobs),
		ShortlistedData: s.shortlists.Global().Grid(),
		JobShortlisted:  jobShortlisted,
		Notifications:   s.notes.Serialize(),
		Admins:          append([]model.Admin{}, s.admins...),
	}
}

// Restore 用快照整体替换状态，随后执行一次截止时间巡检；巡检有改动时保存。
func (s *State) Restore(ctx context.Context, snap Snapshot) error {
	_, err := s.restore(ctx, snap)
	return err
}

func (s *State) restore(ctx context.Context, snap Snapshot) (int, error) {
	swept := 0
	err := s.mutate(ctx, func(t *turn) error {
		s.restoreLocked(snap)
		swept = s.sweepLocked(s.now())
		if swept == 0 {
			t.unchanged()
		}
		return nil
	})
	return swept, err
}

func (s *State) restoreLocked(snap Snapshot) {
	s.jobs = cloneJobs(snap.Jobs)

	s.admins = make([]model.Admin, 0, len(snap.Admins))
	for _, a := range snap.Admins {
		if a.ID != BuiltinAdminID {
			s.admins = append(s.admins, a)
		}
	}

	ids := make([]string, 0, len(snap.JobShortlisted))
	for key := range snap.JobShortlisted {
		ids = append(ids, key)
	}
	sort.Strings(ids)
	perJob := make(map[int]*dataset.Dataset, len(ids))
	for _, key := range ids {
		id, err := strconv.Atoi(key)
		if err != nil {
			s.logger.Warn("skip shortlist with invalid job id", zap.String("key", key))
			continue
		}
		if ds := dataset.FromGrid(snap.JobShortlisted[key]); ds != nil {
			perJob[id] = ds
		}
	}

	s.shortlists.SyncJobs(s.jobs)
	s.shortlists.Restore(perJob, dataset.FromGrid(snap.ShortlistedData))
	s.notes.Rehydrate(snap.Notifications, s.jobs)
}

// Bootstrap 启动时加载快照，返回加载时因截止时间已过而转为 Interviewing 的职位数。
// 远端与本地都没有文档时保存一份空快照。
func (s *State) Bootstrap(ctx context.Context, loader Loader) (int, error) {
	body, source, err := loader.Load(ctx, DocumentPath)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		s.logger.Info("no saved portal data, starting empty", zap.String("source", string(source)))
		return 0, s.mutate(ctx, func(*turn) error { return nil })
	case err != nil:
		return 0, fmt.Errorf("load portal data: %w", err)
	}

	snap, err := DecodeSnapshot(body)
	if err != nil {
		return 0, err
	}
	swept, err := s.restore(ctx, snap)
	if err != nil {
		return 0, err
	}
	s.logger.Info("portal data loaded",
		zap.String("source", string(source)),
		zap.Int("jobs", len(snap.Jobs)),
		zap.Int("notifications", len(snap.Notifications)),
		zap.Int("swept", swept))
	return swept, nil
}

// Watch 订阅远端推送，每次推送整体替换本地状态，直到上下文取消。
func (s *State) Watch(ctx context.Context, watcher Watcher) error {
	return watcher.Watch(ctx, DocumentPath, func(body []byte) {
		snap, err := DecodeSnapshot(body)
		if err != nil {
			s.logger.Warn("ignore invalid pushed snapshot", zap.Error(err))
			return
		}
		if err := s.Restore(ctx, snap); err != nil {
			s.logger.Warn("apply pushed snapshot", zap.Error(err))
		}
	})
}
