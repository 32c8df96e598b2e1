package api

import (
	"context"
	"net/http"

	"placement-portal/internal/dataset"
	"placement-portal/internal/metrics"
	"placement-portal/internal/model"
	"placement-portal/internal/notification"
	"placement-portal/internal/portal"
	"placement-portal/internal/shortlist"
	"placement-portal/internal/storage"
	"placement-portal/internal/subscription"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// Portal 抽象门户状态接口，便于测试替换。
type Portal interface {
	Jobs() []model.Job
	Job(id int) (model.Job, error)
	SearchJobs(term string) []model.Job
	CreateJob(ctx context.Context, input model.Job) (model.Job, error)
	UpdateJob(ctx context.Context, id int, input model.Job) (model.Job, error)
	SetJobStatus(ctx context.Context, id int, status string) (model.Job, error)
	DeleteJob(ctx context.Context, id int) error

	UploadShortlist(ctx context.Context, jobID int, fileName string, data []byte) (portal.UploadResult, error)
	ClearShortlist(ctx context.Context, jobID int) error
	JobShortlist(jobID int, term string) (*dataset.Dataset, error)
	GlobalShortlist(term string) *dataset.Dataset
	Companies() []shortlist.CompanyCount
	CompanyCandidates(name, term string) (*dataset.Dataset, error)
	ExportJobShortlist(jobID int) (string, string, error)
	ExportGlobalShortlist(term string) (string, string, error)
	ExportCompanyShortlist(name string) (string, string, error)

	Notifications() []notification.Notification
	UnreadCount() int
	PostAnnouncement(ctx context.Context, d notification.Draft) (notification.Notification, error)
	EditNotification(ctx context.Context, id int64, d notification.Draft) (notification.Notification, error)
	DeleteNotification(ctx context.Context, id int64) error
	MarkRead(ctx context.Context, id int64) error
	MarkAllRead(ctx context.Context) (int, error)
	InvokeAction(ctx context.Context, id int64) (notification.Effect, error)

	Login(username, password string) (model.Admin, error)
	Admins() []model.Admin
	AddAdmin(ctx context.Context, in portal.AdminInput) (model.Admin, error)
	DeleteAdmin(ctx context.Context, id string) error

	Banner() bool
	DismissBanner()
	Version() uint64
}

// StatusProvider 返回远端同步状态。
type StatusProvider interface {
	Status() storage.Status
}

// Sweeper 手动触发截止时间巡检。
type Sweeper interface {
	RunOnce(ctx context.Context) (int, error)
}

// SubscriptionService 处理订阅创建，并公布允许的渠道。
type SubscriptionService interface {
	Create(ctx context.Context, req subscription.Request) (model.Subscription, error)
	Channels() []string
}

// UploadHistory 查询名单上传记录。
type UploadHistory interface {
	ListUploads(ctx context.Context, jobID int) ([]model.UploadRecord, error)
}

// Deps HTTP 层依赖。Portal 必填，其余为空时对应接口返回 503。
type Deps struct {
	Portal        Portal
	Status        StatusProvider
	Sweeper       Sweeper
	Subscriptions SubscriptionService
	Uploads       UploadHistory
	Logger        *zap.Logger
}

type server struct {
	portal  Portal
	status  StatusProvider
	sweep   Sweeper
	subs    SubscriptionService
	uploads UploadHistory
	logger  *zap.Logger
}

// NewHandler 构造 HTTP 路由。
func NewHandler(deps Deps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &server{
		portal:  deps.Portal,
		status:  deps.Status,
		sweep:   deps.Sweeper,
		subs:    deps.Subscriptions,
		uploads: deps.Uploads,
		logger:  logger.Named("api"),
	}

	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(logger.Named("http")))
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/status", s.getStatus)
		r.Post("/login", s.login)
		r.Post("/banner/dismiss", s.dismissBanner)
		r.Post("/subscriptions", s.createSubscription)

		r.Get("/jobs", s.listJobs)
		r.Get("/jobs/{id}", s.getJob)
		r.Get("/jobs/{id}/shortlist", s.getJobShortlist)
		r.Get("/jobs/{id}/shortlist/export", s.exportJobShortlist)

		r.Get("/shortlisted", s.getGlobalShortlist)
		r.Get("/shortlisted/export", s.exportGlobalShortlist)

		r.Get("/companies", s.listCompanies)
		r.Get("/companies/{name}/candidates", s.getCompanyCandidates)
		r.Get("/companies/{name}/export", s.exportCompanyShortlist)

		r.Get("/notifications", s.listNotifications)
		r.Post("/notifications/read-all", s.markAllRead)
		r.Post("/notifications/{id}/read", s.markRead)
		r.Post("/notifications/{id}/action", s.invokeAction)

		r.Group(func(r chi.Router) {
			r.Use(s.adminOnly)

			r.Post("/jobs", s.createJob)
			r.Put("/jobs/{id}", s.updateJob)
			r.Patch("/jobs/{id}/status", s.setJobStatus)
			r.Delete("/jobs/{id}", s.deleteJob)
			r.Post("/jobs/{id}/shortlist", s.uploadShortlist)
			r.Delete("/jobs/{id}/shortlist", s.clearShortlist)
			r.Get("/jobs/{id}/uploads", s.listUploads)

			r.Post("/notifications", s.postNotification)
			r.Put("/notifications/{id}", s.editNotification)
			r.Delete("/notifications/{id}", s.deleteNotification)

			r.Get("/admins", s.listAdmins)
			r.Post("/admins", s.addAdmin)
			r.Delete("/admins/{id}", s.deleteAdmin)

			r.Post("/sweep", s.runSweep)
		})
	})

	return r
}

type statusResponse struct {
	Connection storage.Status `json:"connection"`
	Banner     bool           `json:"banner"`
	Version    uint64         `json:"version"`
	Unread     int            `json:"unread"`
	Channels   []string       `json:"channels"`
}

func (s *server) getStatus(w http.ResponseWriter, r *http.Request) {
	resp := statusResponse{
		Connection: storage.StatusOffline,
		Banner:     s.portal.Banner(),
		Version:    s.portal.Version(),
		Unread:     s.portal.UnreadCount(),
	}
	if s.status != nil {
		resp.Connection = s.status.Status()
	}
	if s.subs != nil {
		resp.Channels = s.subs.Channels()
	}
	writeJSON(w, r, http.StatusOK, resp)
}

func (s *server) dismissBanner(w http.ResponseWriter, r *http.Request) {
	s.portal.DismissBanner()
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) createSubscription(w http.ResponseWriter, r *http.Request) {
	if s.subs == nil {
		writeMessage(w, r, http.StatusServiceUnavailable, "subscription disabled")
		return
	}
	var req subscription.Request
	if !decodeJSON(w, r, &req) {
		return
	}
	sub, err := s.subs.Create(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, sub)
}

func (s *server) listUploads(w http.ResponseWriter, r *http.Request) {
	if s.uploads == nil {
		writeMessage(w, r, http.StatusServiceUnavailable, "upload history disabled")
		return
	}
	id, ok := intParam(w, r, "id")
	if !ok {
		return
	}
	if _, err := s.portal.Job(id); err != nil {
		s.writeError(w, r, err)
		return
	}
	recs, err := s.uploads.ListUploads(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, recs)
}

func (s *server) runSweep(w http.ResponseWriter, r *http.Request) {
	if s.sweep == nil {
		writeMessage(w, r, http.StatusServiceUnavailable, "scheduler disabled")
		return
	}
	n, err := s.sweep.RunOnce(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]int{"moved": n})
}
