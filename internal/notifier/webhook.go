package notifier

import (
	"context"
	"fmt"
	"time"

	"placement-portal/internal/notification"

	"github.com/go-resty/resty/v2"
)

// WebhookConfig 通知回调配置，URL 为空时不启用。
type WebhookConfig struct {
	URL     string `yaml:"url" json:"url"`
	Token   string `yaml:"token" json:"token"`
	Timeout string `yaml:"timeout" json:"timeout"`
}

// WebhookNotifier 以 JSON POST 把通知推送到外部地址。
type WebhookNotifier struct {
	client *resty.Client
	url    string
}

// NewWebhookNotifier 创建 WebhookNotifier，Token 非空时放入 Authorization 头。
func NewWebhookNotifier(cfg WebhookConfig) *WebhookNotifier {
	timeout := 10 * time.Second
	if d, err := time.ParseDuration(cfg.Timeout); err == nil && d > 0 {
		timeout = d
	}
	client := resty.New()
	client.SetTimeout(timeout)
	client.SetHeader("Content-Type", "application/json")
	if cfg.Token != "" {
		client.SetHeader("Authorization", "Bearer "+cfg.Token)
	}
	return &WebhookNotifier{client: client, url: cfg.URL}
}

// Notify 推送通知，非 2xx 视为失败。
func (n *WebhookNotifier) Notify(ctx context.Context, note notification.Notification) error {
	resp, err := n.client.R().
		SetContext(ctx).
		SetBody(note).
		Post(n.url)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("post webhook: status %d", resp.StatusCode())
	}
	return nil
}
