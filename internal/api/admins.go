package api

import (
	"net/http"
	"time"

	"placement-portal/internal/model"
	"placement-portal/internal/portal"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// adminView 管理员的对外形式，不含密码。
type adminView struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email,omitempty"`
	CreatedAt time.Time `json:"createdDate"`
	Builtin   bool      `json:"builtin,omitempty"`
}

func newAdminView(a model.Admin) adminView {
	return adminView{
		ID:        a.ID,
		Username:  a.Username,
		Email:     a.Email,
		CreatedAt: a.CreatedAt,
		Builtin:   a.ID == portal.BuiltinAdminID,
	}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *server) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	admin, err := s.portal.Login(req.Username, req.Password)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, newAdminView(admin))
}

func (s *server) listAdmins(w http.ResponseWriter, r *http.Request) {
	admins := s.portal.Admins()
	out := make([]adminView, 0, len(admins))
	for _, a := range admins {
		out = append(out, newAdminView(a))
	}
	writeJSON(w, r, http.StatusOK, out)
}

func (s *server) addAdmin(w http.ResponseWriter, r *http.Request) {
	var in portal.AdminInput
	if !decodeJSON(w, r, &in) {
		return
	}
	admin, err := s.portal.AddAdmin(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.logger.Info("admin added", zap.String("username", admin.Username), zap.String("by", adminFrom(r.Context())))
	writeJSON(w, r, http.StatusCreated, newAdminView(admin))
}

func (s *server) deleteAdmin(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.portal.DeleteAdmin(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.logger.Info("admin deleted", zap.String("id", id), zap.String("by", adminFrom(r.Context())))
	w.WriteHeader(http.StatusNoContent)
}
