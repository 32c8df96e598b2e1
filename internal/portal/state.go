package portal

import (
	"context"
	"sync"
	"time"

	"placement-portal/internal/archive"
	"placement-portal/internal/metrics"
	"placement-portal/internal/model"
	"placement-portal/internal/notification"
	"placement-portal/internal/shortlist"

	"go.uber.org/zap"
)

// BuiltinAdminID 配置文件中内置管理员的固定 ID，不可删除。
const BuiltinAdminID = "default"

// AdminConfig 内置管理员账号。Password 为空时内置账号无法登录。
type AdminConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Email    string `yaml:"email"`
}

// Persister 保存快照。
type Persister interface {
	Persist(ctx context.Context, snap Snapshot) error
}

// Broadcaster 把新通知推送给外部订阅者。
type Broadcaster interface {
	Notify(ctx context.Context, n notification.Notification) error
}

// UploadRecorder 记录名单上传审计。
type UploadRecorder interface {
	RecordUpload(ctx context.Context, rec *model.UploadRecord) error
}

// Options 构造 State 的依赖，除 Admin 外均可为空。
type Options struct {
	Admin       AdminConfig
	Persister   Persister
	Broadcaster Broadcaster
	Archive     archive.Archiver
	Uploads     UploadRecorder
	Logger      *zap.Logger
	Now         func() time.Time
}

// State 门户的全部状态。mu 串行化每一次操作；persistMu 保证快照按修改顺序落盘。
type State struct {
	mu        sync.Mutex
	persistMu sync.Mutex
	inflight  sync.WaitGroup

	jobs       []model.Job
	admins     []model.Admin
	shortlists *shortlist.Store
	notes      *notification.Registry

	builtin     AdminConfig
	persister   Persister
	broadcaster Broadcaster
	archive     archive.Archiver
	uploads     UploadRecorder
	logger      *zap.Logger
	now         func() time.Time
}

// New 创建空状态。
func New(opts Options) *State {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Archive == nil {
		opts.Archive = archive.Nop{}
	}
	notes := notification.NewRegistry()
	notes.SetClock(opts.Now)
	return &State{
		shortlists:  shortlist.NewStore(),
		notes:       notes,
		builtin:     opts.Admin,
		persister:   opts.Persister,
		broadcaster: opts.Broadcaster,
		archive:     opts.Archive,
		uploads:     opts.Uploads,
		logger:      opts.Logger.Named("portal"),
		now:         opts.Now,
	}
}

// turn 收集一次操作的副作用。
type turn struct {
	announced []notification.Notification
	clean     bool
}

func (t *turn) announce(n notification.Notification) { t.announced = append(t.announced, n) }

// unchanged 表示本次操作没有修改状态，不需要保存。
func (t *turn) unchanged() { t.clean = true }

// mutate 在锁内执行 fn，随后按顺序保存快照并广播新通知。
// 保存失败只记录日志，内存中的修改保留。
func (s *State) mutate(ctx context.Context, fn func(t *turn) error) error {
	var t turn
	s.mu.Lock()
	if err := fn(&t); err != nil {
		s.mu.Unlock()
		return err
	}
	if t.clean {
		s.mu.Unlock()
		return nil
	}
	snap := s.snapshotLocked()
	s.persistMu.Lock()
	s.mu.Unlock()

	ctx = context.WithoutCancel(ctx)
	if s.persister != nil {
		if err := s.persister.Persist(ctx, snap); err != nil {
			s.logger.Error("save portal data", zap.Error(err))
		}
	}
	s.persistMu.Unlock()

	s.broadcast(ctx, t.announced)
	return nil
}

func (s *State) broadcast(ctx context.Context, notes []notification.Notification) {
	if s.broadcaster == nil || len(notes) == 0 {
		return
	}
	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		for _, n := range notes {
			if err := s.broadcaster.Notify(ctx, n); err != nil {
				s.logger.Warn("broadcast notification", zap.Int64("id", n.ID), zap.Error(err))
			}
		}
	}()
}

// Wait 等待进行中的广播结束。
func (s *State) Wait() {
	s.inflight.Wait()
}

// addNote 写入注册表并计数，调用方需持有 mu。
func (s *State) addNote(d notification.Draft) notification.Notification {
	n := s.notes.Add(d)
	metrics.IncreaseNotificationsTotal(string(n.Type))
	return n
}

// Banner 是否显示“名单已更新”横幅。
func (s *State) Banner() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.shortlists.Banner()
}

// DismissBanner 关闭横幅，不落盘。
func (s *State) DismissBanner() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shortlists.DismissBanner()
}

// Version 名单派生数据的版本号。
func (s *State) Version() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.shortlists.Version()
}

// Stats 供 Prometheus 采集的统计。
func (s *State) Stats() metrics.Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	byStatus := map[string]int{
		string(model.JobStatusOpen):         0,
		string(model.JobStatusInterviewing): 0,
		string(model.JobStatusClosed):       0,
	}
	for _, j := range s.jobs {
		byStatus[string(j.Status)]++
	}
	return metrics.Stats{
		JobsByStatus:        byStatus,
		ShortlistedTotal:    s.shortlists.Global().Len(),
		Companies:           len(s.shortlists.CompanyAggregates()),
		UnreadNotifications: s.notes.Unread(),
		Admins:              len(s.admins),
	}
}
