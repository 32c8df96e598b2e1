package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOfWrapped(t *testing.T) {
	t.Parallel()

	base := NotFound("Job not found", nil)
	wrapped := fmt.Errorf("delete job: %w", base)

	if got := KindOf(wrapped); got != KindNotFound {
		t.Fatalf("expected not_found, got %s", got)
	}
	if !Is(wrapped, KindNotFound) {
		t.Fatalf("expected Is to match not_found")
	}
	if got := MessageOf(wrapped); got != "Job not found" {
		t.Fatalf("unexpected message %q", got)
	}
}

func TestKindOfPlainError(t *testing.T) {
	t.Parallel()

	err := errors.New("boom")
	if got := KindOf(err); got != KindInternal {
		t.Fatalf("expected internal, got %s", got)
	}
	if Is(nil, KindInternal) {
		t.Fatalf("nil error should not match any kind")
	}
	if got := MessageOf(err); got != "boom" {
		t.Fatalf("unexpected message %q", got)
	}
}

func TestErrorKeepsCause(t *testing.T) {
	t.Parallel()

	cause := errors.New("redis down")
	err := Unavailable("remote store unavailable", cause)

	if !errors.Is(err, cause) {
		t.Fatalf("expected cause in chain")
	}
	if err.Error() != "remote store unavailable: redis down" {
		t.Fatalf("unexpected text %q", err.Error())
	}
	if len(err.Stack) == 0 {
		t.Fatalf("expected captured stack")
	}
}
