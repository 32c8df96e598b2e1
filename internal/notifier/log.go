package notifier

import (
	"context"

	"placement-portal/internal/notification"

	"go.uber.org/zap"
)

// LogNotifier 仅记录通知，适合开发阶段使用。
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier 创建日志通知器，未提供 logger 时不输出。
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogNotifier{logger: logger.Named("notify")}
}

// Notify 记录一条通知。
func (n LogNotifier) Notify(_ context.Context, note notification.Notification) error {
	n.logger.Info("notification",
		zap.Int64("id", note.ID),
		zap.String("type", string(note.Type)),
		zap.String("title", note.Title),
		zap.String("message", note.Message),
	)
	return nil
}
