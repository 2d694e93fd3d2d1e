package fs

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"meetcore/internal/blob/core"
)

func newTempStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	store, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return store
}

func readAll(t *testing.T, store *Store, key string) (core.Info, string) {
	t.Helper()
	info, rc, err := store.Get(context.Background(), key)
	if err != nil {
		t.Fatalf("get %s: %v", key, err)
	}
	defer func() { _ = rc.Close() }()
	b, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read %s: %v", key, err)
	}
	return info, string(b)
}

func TestStore_PutGetHeadListDelete(t *testing.T) { //nolint:cyclop
	ctx := context.Background()
	store := newTempStore(t)
	if store.Driver() != core.DriverFilesystem {
		t.Fatalf("unexpected driver %s", store.Driver())
	}
	info, err := store.Put(ctx, "Open/Open.ffss", bytes.NewReader([]byte("hello")), core.PutOptions{ContentType: "application/xml", Metadata: map[string]string{"k": "v"}})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if info.Key != "Open/Open.ffss" || info.Size != 5 {
		t.Fatalf("unexpected info %+v", info)
	}
	h, err := store.Head(ctx, "Open/Open.ffss")
	if err != nil {
		t.Fatalf("head: %v", err)
	}
	g, body := readAll(t, store, "Open/Open.ffss")
	if body != "hello" || g.ETag != h.ETag || g.Metadata["k"] != "v" {
		t.Fatalf("unexpected get artifacts %+v %q", g, body)
	}
	list, err := store.List(ctx, "Open/")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || list[0].Key != "Open/Open.ffss" {
		t.Fatalf("unexpected list %+v", list)
	}
	ok, err := store.Delete(ctx, "Open/Open.ffss")
	if err != nil || !ok {
		t.Fatalf("delete: %v %v", ok, err)
	}
	ok, err = store.Delete(ctx, "Open/Open.ffss")
	if err != nil || ok {
		t.Fatalf("second delete should be false")
	}
}

func TestStore_PutReplaces(t *testing.T) {
	ctx := context.Background()
	store := newTempStore(t)
	first, err := store.Put(ctx, "doc", bytes.NewReader([]byte("v1")), core.PutOptions{})
	if err != nil {
		t.Fatalf("put v1: %v", err)
	}
	second, err := store.Put(ctx, "doc", bytes.NewReader([]byte("version2")), core.PutOptions{})
	if err != nil {
		t.Fatalf("put v2: %v", err)
	}
	if first.ETag == second.ETag {
		t.Fatalf("expected etag to change")
	}
	if _, body := readAll(t, store, "doc"); body != "version2" {
		t.Fatalf("expected replaced content, got %q", body)
	}
	entries, err := os.ReadDir(store.Root())
	if err != nil {
		t.Fatalf("readdir: %v", err)
	}
	for _, e := range entries {
		if filepath.Ext(e.Name()) != ".meta" && e.Name() != "doc" {
			t.Fatalf("temp file left behind: %s", e.Name())
		}
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("boom") }

func TestStore_FailedPutKeepsPrevious(t *testing.T) {
	ctx := context.Background()
	store := newTempStore(t)
	if _, err := store.Put(ctx, "doc", bytes.NewReader([]byte("stable")), core.PutOptions{}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if _, err := store.Put(ctx, "doc", failingReader{}, core.PutOptions{}); err == nil {
		t.Fatalf("expected reader failure")
	}
	if _, body := readAll(t, store, "doc"); body != "stable" {
		t.Fatalf("previous content lost: %q", body)
	}
}

func TestStore_MissingKey(t *testing.T) {
	ctx := context.Background()
	store := newTempStore(t)
	if _, _, err := store.Get(ctx, "absent"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound from get, got %v", err)
	}
	if _, err := store.Head(ctx, "absent"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound from head, got %v", err)
	}
}

func TestStore_ListsFilesWithoutSidecar(t *testing.T) {
	store := newTempStore(t)
	dir := filepath.Join(store.Root(), "Meet")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "Meet.ffss"), []byte("<FFSS/>"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	list, err := store.List(context.Background(), "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || list[0].Key != "Meet/Meet.ffss" || list[0].Size != 7 {
		t.Fatalf("unexpected list %+v", list)
	}
	if _, body := readAll(t, store, "Meet/Meet.ffss"); body != "<FFSS/>" {
		t.Fatalf("unexpected body %q", body)
	}
}

func TestSanitizeKeyErrors(t *testing.T) {
	cases := []string{"", "../escape", "/abs", "a/../b", "a/..", "doc.meta"}
	for _, c := range cases {
		if _, err := sanitizeKey(c); err == nil {
			t.Fatalf("expected error for key %q", c)
		}
	}
}

func TestStore_DottedNames(t *testing.T) {
	ctx := context.Background()
	store := newTempStore(t)
	keys := []string{
		"Coupe de Noël... 2026/Coupe de Noël... 2026.ffss",
		"Interclubs St.. Malo/Interclubs St.. Malo.ffss",
		"..hidden/..hidden.ffss",
	}
	for _, key := range keys {
		if _, err := store.Put(ctx, key, bytes.NewReader([]byte(key)), core.PutOptions{}); err != nil {
			t.Fatalf("put %q: %v", key, err)
		}
		if _, body := readAll(t, store, key); body != key {
			t.Fatalf("get %q: unexpected body %q", key, body)
		}
	}
	list, err := store.List(ctx, "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != len(keys) {
		t.Fatalf("expected %d documents, got %+v", len(keys), list)
	}
}

func TestListMetaCorrupt(t *testing.T) {
	dir := t.TempDir()
	store, err := New(dir)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	data := filepath.Join(dir, "bad.txt")
	if err := os.WriteFile(data, []byte("data"), 0o644); err != nil {
		t.Fatalf("write data: %v", err)
	}
	if err := os.WriteFile(data+".meta", []byte("{"), 0o644); err != nil {
		t.Fatalf("write meta: %v", err)
	}
	if _, err := store.List(context.Background(), ""); err == nil {
		t.Fatalf("expected list error on corrupt meta")
	}
}

func TestWriteJSONMarshalError(t *testing.T) {
	old := jsonMarshal
	jsonMarshal = func(v any) ([]byte, error) { return nil, errors.New("marsh") }
	defer func() { jsonMarshal = old }()
	if err := writeJSON(filepath.Join(t.TempDir(), "x.meta"), struct{}{}); err == nil {
		t.Fatalf("expected marshal error")
	}
}

func TestNewRejectsFileRoot(t *testing.T) {
	dir := t.TempDir()
	filePath := filepath.Join(dir, "afile")
	if err := os.WriteFile(filePath, []byte("x"), 0o600); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if _, err := New(filePath); err == nil {
		t.Fatalf("expected error when root is file")
	}
}

func TestStorePathAndCancelledPut(t *testing.T) {
	store := newTempStore(t)
	p, err := store.Path("a/b.ffss")
	if err != nil || p != filepath.Join(store.Root(), "a", "b.ffss") {
		t.Fatalf("unexpected path %q %v", p, err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := store.Put(ctx, "x", bytes.NewReader(nil), core.PutOptions{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
}
