package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"placement-portal/internal/model"

	"gorm.io/datatypes"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := NewStore(Config{Path: filepath.Join(t.TempDir(), "nested", "portal.db")})
	if err != nil {
		t.Fatalf("NewStore error: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

func TestStoreDocumentUpsert(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	if _, err := store.ReadDocument(ctx, "placementPortalData"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := store.WriteDocument(ctx, "placementPortalData", []byte(`{"jobs":[]}`)); err != nil {
		t.Fatalf("WriteDocument error: %v", err)
	}
	if err := store.WriteDocument(ctx, "placementPortalData", []byte(`{"jobs":[{"id":1}]}`)); err != nil {
		t.Fatalf("WriteDocument overwrite error: %v", err)
	}

	body, err := store.ReadDocument(ctx, "placementPortalData")
	if err != nil {
		t.Fatalf("ReadDocument error: %v", err)
	}
	if string(body) != `{"jobs":[{"id":1}]}` {
		t.Fatalf("unexpected body %s", body)
	}
}

func TestStoreSubscriptions(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	sub := &model.Subscription{Email: "student@example.com", Channel: "email", Companies: datatypes.JSONMap{"Acme": true}}
	if err := store.CreateSubscription(ctx, sub); err != nil {
		t.Fatalf("CreateSubscription error: %v", err)
	}
	if sub.ID == 0 {
		t.Fatalf("expected generated id")
	}

	subs, err := store.ListSubscriptions(ctx)
	if err != nil {
		t.Fatalf("ListSubscriptions error: %v", err)
	}
	if len(subs) != 1 || subs[0].Email != "student@example.com" {
		t.Fatalf("unexpected subscriptions %+v", subs)
	}
	if v, ok := subs[0].Companies["Acme"].(bool); !ok || !v {
		t.Fatalf("companies not persisted: %+v", subs[0].Companies)
	}
}

func TestStoreUploads(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	for _, rec := range []*model.UploadRecord{
		{JobID: 1, FileName: "round1.csv", Rows: 10},
		{JobID: 2, FileName: "acme.xlsx", Rows: 4},
		{JobID: 1, FileName: "round2.csv", Rows: 3, ArchiveKey: "shortlists/1/2_round2.csv"},
	} {
		if err := store.RecordUpload(ctx, rec); err != nil {
			t.Fatalf("RecordUpload error: %v", err)
		}
	}

	recs, err := store.ListUploads(ctx, 1)
	if err != nil {
		t.Fatalf("ListUploads error: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("expected 2 uploads for job 1, got %d", len(recs))
	}
	if recs[0].FileName != "round2.csv" {
		t.Fatalf("expected newest first, got %s", recs[0].FileName)
	}

	all, err := store.ListUploads(ctx, 0)
	if err != nil {
		t.Fatalf("ListUploads all error: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 uploads, got %d", len(all))
	}
}

func TestNewStorePostgresRequiresDSN(t *testing.T) {
	t.Parallel()

	if _, err := NewStore(Config{Driver: "postgres"}); err == nil {
		t.Fatalf("expected error without dsn")
	}
}
