package logger

import "testing"

func TestNewDefaults(t *testing.T) {
	t.Parallel()

	l, err := New(Config{})
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	if !l.Core().Enabled(0) {
		t.Fatalf("expected info level enabled")
	}
	if l.Core().Enabled(-1) {
		t.Fatalf("debug should be disabled by default")
	}
}

func TestNewDebugConsole(t *testing.T) {
	t.Parallel()

	l, err := New(Config{Level: "DEBUG", Format: "console"})
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	if !l.Core().Enabled(-1) {
		t.Fatalf("expected debug level enabled")
	}
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	t.Parallel()

	if _, err := New(Config{Level: "loud"}); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}
