package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"placement-portal/internal/notification"

	"github.com/nats-io/nats.go"
)

// DefaultNATSSubject 通知发布的默认主题。
const DefaultNATSSubject = "portal.notifications"

// NATSConfig NATS 配置，URL 为空时不启用。
type NATSConfig struct {
	URL     string `yaml:"url" json:"url"`
	Subject string `yaml:"subject" json:"subject"`
	Timeout string `yaml:"timeout" json:"timeout"`
}

// publisher 抽象 NATS 发布，便于测试替换。
type publisher interface {
	Publish(subject string, data []byte) error
}

// NATSNotifier 把通知以 JSON 发布到 NATS 主题。
type NATSNotifier struct {
	pub     publisher
	conn    *nats.Conn
	subject string
}

// NewNATSNotifier 连接 NATS，断线后无限重连。
func NewNATSNotifier(cfg NATSConfig) (*NATSNotifier, error) {
	timeout := 5 * time.Second
	if d, err := time.ParseDuration(cfg.Timeout); err == nil && d > 0 {
		timeout = d
	}
	conn, err := nats.Connect(cfg.URL,
		nats.Name("placement-portal"),
		nats.Timeout(timeout),
		nats.ReconnectWait(time.Second),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	n := newNATSNotifier(conn, cfg.Subject)
	n.conn = conn
	return n, nil
}

func newNATSNotifier(pub publisher, subject string) *NATSNotifier {
	if subject == "" {
		subject = DefaultNATSSubject
	}
	return &NATSNotifier{pub: pub, subject: subject}
}

// Notify 发布通知。
func (n *NATSNotifier) Notify(ctx context.Context, note notification.Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(note)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	if err := n.pub.Publish(n.subject, data); err != nil {
		return fmt.Errorf("publish %s: %w", n.subject, err)
	}
	return nil
}

// Close 排空并关闭连接。
func (n *NATSNotifier) Close() {
	if n.conn != nil {
		_ = n.conn.Drain()
	}
}
