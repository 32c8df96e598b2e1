package notifier

import (
	"context"
	"errors"

	"placement-portal/internal/notification"
)

// Notifier 把新通知广播到站外渠道。
type Notifier interface {
	Notify(ctx context.Context, n notification.Notification) error
}

// Multi 依次调用所有通知器，汇总错误。
type Multi []Notifier

// Notify 单个通知器失败不影响其他通知器。
func (m Multi) Notify(ctx context.Context, n notification.Notification) error {
	var errs []error
	for _, target := range m {
		if target == nil {
			continue
		}
		if err := target.Notify(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
