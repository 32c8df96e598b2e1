package portal

import (
	"context"
	"strings"

	"placement-portal/internal/apperr"
	"placement-portal/internal/model"

	"github.com/google/uuid"
)

// AdminInput 新增管理员的表单。
type AdminInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
}

// Login 校验管理员账号，失败时统一返回 invalid credentials。
func (s *State) Login(username, password string) (model.Admin, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.builtin.Password != "" && username == s.builtin.Username && password == s.builtin.Password {
		return s.builtinAdmin(), nil
	}
	for _, a := range s.admins {
		if a.Username == username && a.Password == password {
			return a, nil
		}
	}
	return model.Admin{}, apperr.Unauthorized("invalid credentials", nil)
}

// Admins 返回内置管理员及其余管理员。
func (s *State) Admins() []model.Admin {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Admin, 0, len(s.admins)+1)
	out = append(out, s.builtinAdmin())
	out = append(out, s.admins...)
	return out
}

// AddAdmin 新增管理员，用户名不能与内置或已有管理员重复。
func (s *State) AddAdmin(ctx context.Context, in AdminInput) (model.Admin, error) {
	username := strings.TrimSpace(in.Username)
	if username == "" || in.Password == "" {
		return model.Admin{}, apperr.InvalidInput("username and password are required", nil)
	}
	var out model.Admin
	err := s.mutate(ctx, func(*turn) error {
		if username == s.builtin.Username {
			return errUsernameTaken()
		}
		for _, a := range s.admins {
			if a.Username == username {
				return errUsernameTaken()
			}
		}
		out = model.Admin{
			ID:        uuid.NewString(),
			Username:  username,
			Password:  in.Password,
			Email:     strings.TrimSpace(in.Email),
			CreatedAt: s.now(),
		}
		s.admins = append(s.admins, out)
		return nil
	})
	return out, err
}

// DeleteAdmin 删除管理员，内置管理员不可删除。
func (s *State) DeleteAdmin(ctx context.Context, id string) error {
	if id == BuiltinAdminID {
		return apperr.InvalidInput("The built-in admin cannot be deleted", nil)
	}
	return s.mutate(ctx, func(*turn) error {
		for i, a := range s.admins {
			if a.ID == id {
				s.admins = append(s.admins[:i], s.admins[i+1:]...)
				return nil
			}
		}
		return apperr.NotFound("Admin not found", nil)
	})
}

func (s *State) builtinAdmin() model.Admin {
	return model.Admin{
		ID:       BuiltinAdminID,
		Username: s.builtin.Username,
		Password: s.builtin.Password,
		Email:    s.builtin.Email,
	}
}

func errUsernameTaken() error {
	return apperr.InvalidInput("Username already exists. Please choose a different username.", nil)
}
