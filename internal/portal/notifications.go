package portal

import (
	"context"
	"strings"

	"placement-portal/internal/apperr"
	"placement-portal/internal/notification"
)

// Notifications 返回新到旧排列的通知。
func (s *State) Notifications() []notification.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.notes.List()
}

// UnreadCount 未读通知数。
func (s *State) UnreadCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.notes.Unread()
}

// PostAnnouncement 管理员发布通知并推送给订阅者。
func (s *State) PostAnnouncement(ctx context.Context, d notification.Draft) (notification.Notification, error) {
	if err := validateDraft(d); err != nil {
		return notification.Notification{}, err
	}
	var out notification.Notification
	err := s.mutate(ctx, func(t *turn) error {
		out = s.addNote(d)
		t.announce(out)
		return nil
	})
	return out, err
}

// EditNotification 修改通知内容。
func (s *State) EditNotification(ctx context.Context, id int64, d notification.Draft) (notification.Notification, error) {
	if err := validateDraft(d); err != nil {
		return notification.Notification{}, err
	}
	var out notification.Notification
	err := s.mutate(ctx, func(*turn) error {
		n, ok := s.notes.Update(id, d)
		if !ok {
			return apperr.NotFound("Notification not found", nil)
		}
		out = n
		return nil
	})
	return out, err
}

// DeleteNotification 删除通知。
func (s *State) DeleteNotification(ctx context.Context, id int64) error {
	return s.mutate(ctx, func(*turn) error {
		if !s.notes.Remove(id) {
			return apperr.NotFound("Notification not found", nil)
		}
		return nil
	})
}

// MarkRead 标记单条已读，已读时不重复保存。
func (s *State) MarkRead(ctx context.Context, id int64) error {
	return s.mutate(ctx, func(t *turn) error {
		changed, found := s.notes.MarkRead(id)
		if !found {
			return apperr.NotFound("Notification not found", nil)
		}
		if !changed {
			t.unchanged()
		}
		return nil
	})
}

// MarkAllRead 全部标记已读，返回改变的条数。
func (s *State) MarkAllRead(ctx context.Context) (int, error) {
	changed := 0
	err := s.mutate(ctx, func(t *turn) error {
		changed = s.notes.MarkAllRead()
		if changed == 0 {
			t.unchanged()
		}
		return nil
	})
	return changed, err
}

// InvokeAction 执行通知按钮，成功时通知被标记为已读。
// 指向的职位已被删除时返回 "Job details not found"，通知保持未读。
func (s *State) InvokeAction(ctx context.Context, id int64) (notification.Effect, error) {
	var eff notification.Effect
	err := s.mutate(ctx, func(t *turn) error {
		before, _ := s.notes.Get(id)
		if a := before.Action; a != nil && a.Kind == notification.ActionJobDetail {
			if _, ok := s.jobByID(a.JobID); !ok {
				eff = notification.Effect{Kind: notification.EffectNotice, Message: "Job details not found", Severity: notification.TypeError}
				t.unchanged()
				return nil
			}
		}
		var err error
		eff, err = s.notes.Invoke(id)
		if err != nil {
			return err
		}
		if after, _ := s.notes.Get(id); after.Read == before.Read {
			t.unchanged()
		}
		return nil
	})
	return eff, err
}

func validateDraft(d notification.Draft) error {
	if strings.TrimSpace(d.Title) == "" {
		return apperr.InvalidInput("notification title is required", nil)
	}
	return nil
}
