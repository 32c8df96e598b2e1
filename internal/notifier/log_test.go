package notifier

import (
	"context"
	"testing"

	"placement-portal/internal/notification"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogNotifierWritesNotification(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zap.InfoLevel)
	n := NewLogNotifier(zap.New(core))

	note := notification.Notification{ID: 42, Type: notification.TypeSuccess, Title: "Acme Shortlist Updated!", Message: "3 candidates shortlisted"}
	if err := n.Notify(context.Background(), note); err != nil {
		t.Fatalf("Notify error: %v", err)
	}

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 log entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["title"] != "Acme Shortlist Updated!" || fields["id"] != int64(42) {
		t.Fatalf("log entry missing notification info: %v", fields)
	}
	if entries[0].LoggerName != "notify" {
		t.Fatalf("unexpected logger name %q", entries[0].LoggerName)
	}
}

func TestLogNotifierNilLogger(t *testing.T) {
	t.Parallel()

	if err := NewLogNotifier(nil).Notify(context.Background(), notification.Notification{Title: "x"}); err != nil {
		t.Fatalf("Notify error: %v", err)
	}
}
