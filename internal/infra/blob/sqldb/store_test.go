package sqldb

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"meetcore/internal/blob/core"
)

func newSQLiteStore(t *testing.T) *Store {
	t.Helper()
	store, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "nested", "meet.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteStoreCRUD(t *testing.T) {
	ctx := context.Background()
	store := newSQLiteStore(t)
	if store.Driver() != core.DriverSQLite {
		t.Fatalf("unexpected driver %s", store.Driver())
	}
	info, err := store.Put(ctx, "Open/Open.ffss", bytes.NewReader([]byte("<FFSS/>")), core.PutOptions{ContentType: "application/xml", Metadata: map[string]string{"competition": "1"}})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if info.Size != 7 || info.ETag == "" {
		t.Fatalf("unexpected info %+v", info)
	}
	head, err := store.Head(ctx, "Open/Open.ffss")
	if err != nil {
		t.Fatalf("head: %v", err)
	}
	if head.ETag != info.ETag || head.Metadata["competition"] != "1" || head.ContentType != "application/xml" {
		t.Fatalf("unexpected head %+v", head)
	}
	if _, err := store.Put(ctx, "Open/Open.ffss", bytes.NewReader([]byte("<FFSS Version=\"1\"/>")), core.PutOptions{}); err != nil {
		t.Fatalf("replace: %v", err)
	}
	got, rc, err := store.Get(ctx, "Open/Open.ffss")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	body, _ := io.ReadAll(rc)
	_ = rc.Close()
	if string(body) != `<FFSS Version="1"/>` || got.Metadata != nil {
		t.Fatalf("expected replaced document, got %q %+v", body, got)
	}
	ok, err := store.Delete(ctx, "Open/Open.ffss")
	if err != nil || !ok {
		t.Fatalf("delete: %v %v", ok, err)
	}
	ok, err = store.Delete(ctx, "Open/Open.ffss")
	if err != nil || ok {
		t.Fatalf("second delete should be false: %v %v", ok, err)
	}
}

func TestSQLiteStoreListAndMissing(t *testing.T) {
	ctx := context.Background()
	store := newSQLiteStore(t)
	for _, k := range []string{"b/b.ffss", "a/a.ffss", "a_b/a_b.ffss"} {
		if _, err := store.Put(ctx, k, strings.NewReader(k), core.PutOptions{}); err != nil {
			t.Fatalf("put %s: %v", k, err)
		}
	}
	list, err := store.List(ctx, "a")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 || list[0].Key != "a/a.ffss" || list[1].Key != "a_b/a_b.ffss" {
		t.Fatalf("unexpected list %+v", list)
	}
	if _, err := store.Head(ctx, "zz"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, _, err := store.Get(ctx, "zz"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := store.Put(ctx, "", strings.NewReader("x"), core.PutOptions{}); err == nil {
		t.Fatalf("expected empty key error")
	}
}

func TestSQLiteStoreReopenKeepsDocuments(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "meet.db")
	first, err := OpenSQLite(ctx, path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := first.Put(ctx, "k", strings.NewReader("v"), core.PutOptions{}); err != nil {
		t.Fatalf("put: %v", err)
	}
	_ = first.Close()
	second, err := OpenSQLite(ctx, path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer func() { _ = second.Close() }()
	if _, err := second.Head(ctx, "k"); err != nil {
		t.Fatalf("document lost on reopen: %v", err)
	}
}

func TestPostgresDialectStatements(t *testing.T) {
	upsert := postgresDialect.upsert()
	if !strings.Contains(upsert, "$7") || strings.Contains(upsert, "?") {
		t.Fatalf("unexpected postgres upsert: %s", upsert)
	}
	if !strings.Contains(postgresDialect.createTable(), "BYTEA") {
		t.Fatalf("expected BYTEA column")
	}
	if got := postgresDialect.selectOne("etag"); got != "SELECT etag FROM documents WHERE doc_key=$1" {
		t.Fatalf("unexpected select: %s", got)
	}
	if strings.Contains(sqliteDialect.upsert(), "$") {
		t.Fatalf("sqlite upsert must use ? placeholders")
	}
}

func TestOpenErrors(t *testing.T) {
	restore := OverrideSQLOpen(func(_, _ string) (*sql.DB, error) { return nil, errors.New("boom") })
	defer restore()
	if _, err := OpenPostgres(context.Background(), ""); err == nil || !strings.Contains(err.Error(), "boom") {
		t.Fatalf("expected open failure, got %v", err)
	}
}

func TestPostgresStoreIntegration(t *testing.T) {
	dsn := os.Getenv("MEETCORE_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("MEETCORE_TEST_POSTGRES_DSN not set")
	}
	ctx := context.Background()
	store, err := OpenPostgres(ctx, dsn)
	if err != nil {
		t.Fatalf("open postgres: %v", err)
	}
	defer func() { _ = store.Close() }()
	key := "itest/itest.ffss"
	if _, err := store.Put(ctx, key, strings.NewReader("doc"), core.PutOptions{}); err != nil {
		t.Fatalf("put: %v", err)
	}
	defer func() { _, _ = store.Delete(ctx, key) }()
	if _, err := store.Head(ctx, key); err != nil {
		t.Fatalf("head: %v", err)
	}
}
