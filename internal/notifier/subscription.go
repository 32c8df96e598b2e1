package notifier

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"placement-portal/internal/model"
	"placement-portal/internal/notification"
)

// SubscriptionStore 定义订阅读取接口。
type SubscriptionStore interface {
	ListSubscriptions(ctx context.Context) ([]model.Subscription, error)
}

// SubscriptionNotifier 会按订阅偏好推送通知。
type SubscriptionNotifier struct {
	store    SubscriptionStore
	emailCfg EmailConfig
	sender   EmailSender
	fallback Notifier
}

// NewSubscriptionNotifier 创建实例，没有任何订阅时交给 fallback。
func NewSubscriptionNotifier(store SubscriptionStore, cfg EmailConfig, sender EmailSender, fallback Notifier) *SubscriptionNotifier {
	return &SubscriptionNotifier{
		store:    store,
		emailCfg: cfg,
		sender:   sender,
		fallback: fallback,
	}
}

// Notify 给关注该公司的订阅者逐个发送邮件，单个地址失败不影响其他地址。
func (n *SubscriptionNotifier) Notify(ctx context.Context, note notification.Notification) error {
	if n.store == nil {
		return nil
	}

	subs, err := n.store.ListSubscriptions(ctx)
	if err != nil {
		return fmt.Errorf("list subscriptions: %w", err)
	}
	if len(subs) == 0 {
		if n.fallback != nil {
			return n.fallback.Notify(ctx, note)
		}
		return nil
	}

	var errs []error
	for _, addr := range recipients(subs, note) {
		cfg := n.emailCfg
		cfg.To = []string{addr}
		if err := NewEmailNotifier(cfg, n.sender).Notify(ctx, note); err != nil {
			errs = append(errs, fmt.Errorf("notify %s: %w", addr, err))
		}
	}
	return errors.Join(errs...)
}

// recipients 按订阅顺序返回需要接收该通知的邮箱，同一邮箱只出现一次。
func recipients(subs []model.Subscription, note notification.Notification) []string {
	seen := make(map[string]struct{}, len(subs))
	var out []string
	for _, sub := range subs {
		switch strings.ToLower(strings.TrimSpace(sub.Channel)) {
		case "email", "":
		default:
			continue
		}
		if !matchesSubscription(sub, note) {
			continue
		}
		addr := strings.TrimSpace(sub.Email)
		key := strings.ToLower(addr)
		if _, dup := seen[key]; dup || addr == "" {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, addr)
	}
	return out
}

// matchesSubscription 没有关注公司时全部接收，否则标题或正文需包含某个关注的公司名。
func matchesSubscription(sub model.Subscription, note notification.Notification) bool {
	if len(sub.Companies) == 0 {
		return true
	}
	text := strings.ToLower(note.Title + "\n" + note.Message)
	for company, v := range sub.Companies {
		if !isTruthy(v) || strings.TrimSpace(company) == "" {
			continue
		}
		if strings.Contains(text, strings.ToLower(company)) {
			return true
		}
	}
	return false
}

func isTruthy(v any) bool {
	switch val := v.(type) {
	case bool:
		return val
	case string:
		return strings.TrimSpace(strings.ToLower(val)) == "true"
	case float64:
		return val != 0
	default:
		return val != nil
	}
}
