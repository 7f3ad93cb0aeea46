package history_test

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"bgmsync/internal/history"
	"bgmsync/internal/testsupport"
)

func TestBeginFinishRecent(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenHistory(t, cfg)
	ctx := context.Background()

	syncID, err := store.Begin(ctx, history.KindSync)
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if err := store.Finish(ctx, syncID, history.Outcome{Items: 3, Errors: 1, CatalogDigest: "abc"}); err != nil {
		t.Fatalf("Finish: %v", err)
	}
	pubID, err := store.Begin(ctx, history.KindPublish)
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}

	runs, err := store.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].ID != pubID || runs[0].Status != history.StatusRunning {
		t.Fatalf("expected running publish first, got %+v", runs[0])
	}
	if runs[1].Status != "ok" || runs[1].Items != 3 || runs[1].Errors != 1 {
		t.Fatalf("unexpected sync row %+v", runs[1])
	}
	if runs[1].FinishedAt.IsZero() {
		t.Fatal("finished run should have finished_at")
	}
}

func TestLastDigestIgnoresFailedRuns(t *testing.T) {
	store, err := history.Open(filepath.Join(t.TempDir(), "state", "history.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer store.Close()
	ctx := context.Background()

	if d, err := store.LastDigest(ctx); err != nil || d != "" {
		t.Fatalf("expected empty digest on fresh db, got %q err=%v", d, err)
	}

	ok, _ := store.Begin(ctx, history.KindSync)
	_ = store.Finish(ctx, ok, history.Outcome{CatalogDigest: "first"})
	failed, _ := store.Begin(ctx, history.KindSync)
	_ = store.Finish(ctx, failed, history.Outcome{Status: "catalog_unavailable", CatalogDigest: "second"})

	d, err := store.LastDigest(ctx)
	if err != nil {
		t.Fatalf("LastDigest: %v", err)
	}
	if d != "first" {
		t.Fatalf("expected digest of last ok sync, got %q", d)
	}
}

func TestReopenKeepsRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	store, err := history.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := store.Begin(context.Background(), history.KindSync); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	store.Close()

	reopened, err := history.Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	runs, err := reopened.Recent(context.Background(), 0)
	if err != nil || len(runs) != 1 {
		t.Fatalf("expected 1 run after reopen, got %d err=%v", len(runs), err)
	}
}

func TestOpenRejectsForeignSchemaVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	if _, err := db.Exec("PRAGMA user_version = 99"); err != nil {
		t.Fatalf("set user_version: %v", err)
	}
	db.Close()

	store, err := history.Open(path)
	if !errors.Is(err, history.ErrSchemaMismatch) {
		if store != nil {
			store.Close()
		}
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
}
