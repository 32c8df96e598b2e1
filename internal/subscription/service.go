package subscription

import (
	"context"
	"fmt"
	"net/mail"
	"sort"
	"strings"

	"placement-portal/internal/apperr"
	"placement-portal/internal/model"

	"gorm.io/datatypes"
)

// Store 定义持久化接口。
type Store interface {
	CreateSubscription(ctx context.Context, sub *model.Subscription) error
}

// Directory 提供当前已知的公司名。
type Directory interface {
	CompanyNames() []string
}

// Config 控制可用渠道与可订阅公司。
type Config struct {
	AllowedChannels []string `yaml:"allowed_channels" json:"allowed_channels"`
	Companies       []string `yaml:"companies" json:"companies"`
}

// Request 表示订阅请求。
type Request struct {
	Email     string   `json:"email"`
	Channel   string   `json:"channel"`
	Companies []string `json:"companies"`
}

// Service 负责验证与写入订阅偏好。
type Service struct {
	store     Store
	directory Directory
	channels  map[string]struct{}
	companies []string
}

// NewService 创建订阅服务。directory 可为 nil。
func NewService(store Store, cfg Config, directory Directory) *Service {
	channelMap := make(map[string]struct{})
	for _, ch := range cfg.AllowedChannels {
		if trimmed := strings.ToLower(strings.TrimSpace(ch)); trimmed != "" {
			channelMap[trimmed] = struct{}{}
		}
	}
	if len(channelMap) == 0 {
		channelMap["email"] = struct{}{}
	}
	return &Service{store: store, directory: directory, channels: channelMap, companies: cfg.Companies}
}

// Channels 返回允许的渠道，按字母排序。
func (s *Service) Channels() []string {
	out := make([]string, 0, len(s.channels))
	for ch := range s.channels {
		out = append(out, ch)
	}
	sort.Strings(out)
	return out
}

// Create 校验请求并写入数据库。
func (s *Service) Create(ctx context.Context, req Request) (model.Subscription, error) {
	email := strings.TrimSpace(req.Email)
	if email == "" {
		return model.Subscription{}, apperr.InvalidInput("email required", nil)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return model.Subscription{}, apperr.InvalidInput("invalid email", err)
	}

	channel := strings.ToLower(strings.TrimSpace(req.Channel))
	if channel == "" {
		channel = "email"
	}
	if _, ok := s.channels[channel]; !ok {
		return model.Subscription{}, apperr.InvalidInput(fmt.Sprintf("unsupported channel %s", channel), nil)
	}

	known := s.knownCompanies()
	companyMap := datatypes.JSONMap{}
	for _, company := range req.Companies {
		trimmed := strings.TrimSpace(company)
		if trimmed == "" {
			continue
		}
		canonical, ok := known[strings.ToLower(trimmed)]
		if !ok && len(known) > 0 {
			return model.Subscription{}, apperr.InvalidInput(fmt.Sprintf("unknown company %s", trimmed), nil)
		}
		if canonical == "" {
			canonical = trimmed
		}
		companyMap[canonical] = true
	}

	sub := model.Subscription{
		Email:     email,
		Channel:   channel,
		Companies: companyMap,
	}
	if err := s.store.CreateSubscription(ctx, &sub); err != nil {
		return model.Subscription{}, err
	}
	return sub, nil
}

func (s *Service) knownCompanies() map[string]string {
	lookup := make(map[string]string)
	names := append([]string(nil), s.companies...)
	if s.directory != nil {
		names = append(names, s.directory.CompanyNames()...)
	}
	for _, name := range names {
		if trimmed := strings.TrimSpace(name); trimmed != "" {
			lookup[strings.ToLower(trimmed)] = trimmed
		}
	}
	return lookup
}
