package storage

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestSyncerSaveRemoteFailureKeepsLocal(t *testing.T) {
	t.Parallel()

	remote := &stubRemote{writeErr: errors.New("redis down")}
	local := newStubLocal()
	s := NewSyncer(remote, local, readyNow(), nil)

	if err := s.Save(context.Background(), "doc", []byte(`{"jobs":[]}`)); err != nil {
		t.Fatalf("Save should swallow remote errors, got %v", err)
	}
	if got := string(local.docs["doc"]); got != `{"jobs":[]}` {
		t.Fatalf("local mirror not written: %q", got)
	}
	if s.Status() != StatusOffline {
		t.Fatalf("expected offline status, got %s", s.Status())
	}
}

func TestSyncerSaveWritesBoth(t *testing.T) {
	t.Parallel()

	remote := &stubRemote{}
	local := newStubLocal()
	s := NewSyncer(remote, local, readyNow(), nil)

	for _, body := range []string{"1", "2"} {
		if err := s.Save(context.Background(), "doc", []byte(body)); err != nil {
			t.Fatalf("Save error: %v", err)
		}
	}
	if len(remote.writes) != 2 {
		t.Fatalf("expected one remote write per save, got %d", len(remote.writes))
	}
	if string(local.docs["doc"]) != "2" {
		t.Fatalf("expected last write to win locally")
	}
	if s.Status() != StatusConnected {
		t.Fatalf("expected connected, got %s", s.Status())
	}
}

func TestSyncerSaveLocalFailure(t *testing.T) {
	t.Parallel()

	local := newStubLocal()
	local.writeErr = errors.New("disk full")
	s := NewSyncer(nil, local, nil, nil)

	if err := s.Save(context.Background(), "doc", []byte("x")); err == nil {
		t.Fatalf("expected local error")
	}
}

func TestSyncerLoadFallsBackToLocal(t *testing.T) {
	t.Parallel()

	remote := &stubRemote{readErr: errors.New("timeout")}
	local := newStubLocal()
	local.docs["doc"] = []byte("local")
	s := NewSyncer(remote, local, readyNow(), nil)

	body, src, err := s.Load(context.Background(), "doc")
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if string(body) != "local" || src != SourceLocal {
		t.Fatalf("expected local body, got %q from %s", body, src)
	}
	if s.Status() != StatusOffline {
		t.Fatalf("expected offline, got %s", s.Status())
	}
}

func TestSyncerLoadRemoteNotFound(t *testing.T) {
	t.Parallel()

	remote := &stubRemote{readErr: ErrNotFound}
	local := newStubLocal()
	local.docs["doc"] = []byte("stale")
	s := NewSyncer(remote, local, readyNow(), nil)

	_, src, err := s.Load(context.Background(), "doc")
	if !errors.Is(err, ErrNotFound) || src != SourceRemote {
		t.Fatalf("expected remote ErrNotFound, got %v from %s", err, src)
	}
}

func TestSyncerLocalOnly(t *testing.T) {
	t.Parallel()

	s := NewSyncer(nil, newStubLocal(), nil, nil)
	if s.Status() != StatusOffline {
		t.Fatalf("local-only syncer should report offline, got %s", s.Status())
	}
	if _, _, err := s.Load(context.Background(), "doc"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := s.Watch(context.Background(), "doc", func([]byte) {}); err != nil {
		t.Fatalf("Watch without remote should return nil, got %v", err)
	}
}

// 远端始终不可达时读写不阻塞，直接回退本地镜像。
func TestSyncerUnreachableRemoteFallsBackWithoutWaiting(t *testing.T) {
	t.Parallel()

	remote := &stubRemote{readErr: errors.New("dial tcp: connection refused"), writeErr: errors.New("dial tcp: connection refused")}
	local := newStubLocal()
	local.docs["doc"] = []byte("local")
	ready := NewReadiness()
	s := NewSyncer(remote, local, ready, nil)
	if !ready.Ready() {
		t.Fatalf("readiness should resolve once the client handle exists")
	}

	connectCtx, stopConnect := context.WithCancel(context.Background())
	connected := make(chan error, 1)
	go func() {
		connected <- s.Connect(connectCtx, func(context.Context) error {
			return errors.New("refused")
		}, time.Millisecond)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	body, src, err := s.Load(ctx, "doc")
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if string(body) != "local" || src != SourceLocal {
		t.Fatalf("expected local body, got %q from %s", body, src)
	}
	if err := s.Save(ctx, "doc", []byte("next")); err != nil {
		t.Fatalf("Save error: %v", err)
	}
	if string(local.docs["doc"]) != "next" {
		t.Fatalf("local mirror not written: %q", local.docs["doc"])
	}
	if s.Status() != StatusOffline {
		t.Fatalf("expected offline, got %s", s.Status())
	}

	stopConnect()
	if err := <-connected; !errors.Is(err, context.Canceled) {
		t.Fatalf("expected Connect to stop on cancel, got %v", err)
	}
}

func TestSyncerConnectUpdatesStatus(t *testing.T) {
	t.Parallel()

	s := NewSyncer(&stubRemote{}, newStubLocal(), nil, nil)
	if s.Status() != StatusConnecting {
		t.Fatalf("expected connecting before first ping, got %s", s.Status())
	}

	pings := 0
	err := s.Connect(context.Background(), func(context.Context) error {
		pings++
		if pings < 3 {
			return errors.New("refused")
		}
		return nil
	}, time.Millisecond)
	if err != nil {
		t.Fatalf("Connect error: %v", err)
	}
	if pings != 3 {
		t.Fatalf("expected 3 pings, got %d", pings)
	}
	if s.Status() != StatusConnected {
		t.Fatalf("expected connected, got %s", s.Status())
	}
}

func TestSyncerWatchAppliesPushes(t *testing.T) {
	t.Parallel()

	remote := &stubRemote{pushes: [][]byte{[]byte("a"), []byte("b")}}
	s := NewSyncer(remote, newStubLocal(), readyNow(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	var (
		mu  sync.Mutex
		got []string
	)
	done := make(chan error, 1)
	go func() {
		done <- s.Watch(ctx, "doc", func(body []byte) {
			mu.Lock()
			defer mu.Unlock()
			got = append(got, string(body))
			if len(got) == 2 {
				cancel()
			}
		})
	}()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("watch did not stop")
	}
	mu.Lock()
	defer mu.Unlock()
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("unexpected pushes %v", got)
	}
}

func TestReadinessResolveTwice(t *testing.T) {
	t.Parallel()

	r := NewReadiness()
	r.Resolve()
	r.Resolve()
	if err := r.Wait(context.Background()); err != nil {
		t.Fatalf("Wait error: %v", err)
	}
}

// --- stubs ---

func readyNow() *Readiness {
	r := NewReadiness()
	r.Resolve()
	return r
}

type stubRemote struct {
	mu       sync.Mutex
	body     []byte
	readErr  error
	writeErr error
	writes   [][]byte
	pushes   [][]byte
}

func (s *stubRemote) Read(context.Context, string) ([]byte, error) {
	if s.readErr != nil {
		return nil, s.readErr
	}
	return s.body, nil
}

func (s *stubRemote) Write(_ context.Context, _ string, body []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writeErr != nil {
		return s.writeErr
	}
	s.writes = append(s.writes, body)
	return nil
}

func (s *stubRemote) Subscribe(ctx context.Context, _ string, onChange func([]byte)) error {
	for _, p := range s.pushes {
		onChange(p)
	}
	<-ctx.Done()
	return ctx.Err()
}

type stubLocal struct {
	docs     map[string][]byte
	writeErr error
}

func newStubLocal() *stubLocal {
	return &stubLocal{docs: map[string][]byte{}}
}

func (s *stubLocal) ReadDocument(_ context.Context, path string) ([]byte, error) {
	body, ok := s.docs[path]
	if !ok {
		return nil, ErrNotFound
	}
	return body, nil
}

func (s *stubLocal) WriteDocument(_ context.Context, path string, body []byte) error {
	if s.writeErr != nil {
		return s.writeErr
	}
	s.docs[path] = body
	return nil
}
