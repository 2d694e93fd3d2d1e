// Package sqldb stores documents as rows of a single table in SQLite or
// PostgreSQL through database/sql.
package sqldb

import (
	"bytes"
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver
	_ "modernc.org/sqlite"             // pure go sqlite driver

	"meetcore/internal/blob/core"
)

const (
	defaultSQLitePath  = "meetcore.db"
	defaultPostgresDSN = "postgres://localhost/meetcore?sslmode=disable"
)

var (
	sqlOpen = sql.Open
	openMu  sync.Mutex
)

// dialect captures the SQL differences between the supported engines.
type dialect struct {
	driver      string
	blobDriver  core.Driver
	contentType string
	placeholder func(n int) string
}

var (
	sqliteDialect = dialect{
		driver:      "sqlite",
		blobDriver:  core.DriverSQLite,
		contentType: "BLOB",
		placeholder: func(int) string { return "?" },
	}
	postgresDialect = dialect{
		driver:      "pgx",
		blobDriver:  core.DriverPostgres,
		contentType: "BYTEA",
		placeholder: func(n int) string { return fmt.Sprintf("$%d", n) },
	}
)

func (d dialect) createTable() string {
	return `CREATE TABLE IF NOT EXISTS documents (
		doc_key TEXT PRIMARY KEY,
		content ` + d.contentType + ` NOT NULL,
		content_type TEXT NOT NULL,
		metadata TEXT NOT NULL,
		etag TEXT NOT NULL,
		size BIGINT NOT NULL,
		updated_at BIGINT NOT NULL
	)`
}

func (d dialect) upsert() string {
	p := d.placeholder
	return fmt.Sprintf(`INSERT INTO documents(doc_key,content,content_type,metadata,etag,size,updated_at)
		VALUES(%s,%s,%s,%s,%s,%s,%s)
		ON CONFLICT(doc_key) DO UPDATE SET content=EXCLUDED.content, content_type=EXCLUDED.content_type,
		metadata=EXCLUDED.metadata, etag=EXCLUDED.etag, size=EXCLUDED.size, updated_at=EXCLUDED.updated_at`,
		p(1), p(2), p(3), p(4), p(5), p(6), p(7))
}

func (d dialect) selectOne(columns string) string {
	return `SELECT ` + columns + ` FROM documents WHERE doc_key=` + d.placeholder(1)
}

func (d dialect) deleteOne() string {
	return `DELETE FROM documents WHERE doc_key=` + d.placeholder(1)
}

const infoColumns = `doc_key, content_type, metadata, etag, size, updated_at`

// Store implements core.Store on a documents table. Every write is a single
// upsert statement, so readers never observe a partial document.
type Store struct {
	db      *sql.DB
	dialect dialect
}

// OpenSQLite opens (creating if needed) an sqlite database file.
func OpenSQLite(ctx context.Context, path string) (*Store, error) {
	if path == "" {
		path = defaultSQLitePath
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}
	return open(ctx, sqliteDialect, path)
}

// OpenPostgres connects to PostgreSQL using dsn.
func OpenPostgres(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		dsn = defaultPostgresDSN
	}
	return open(ctx, postgresDialect, dsn)
}

func open(ctx context.Context, d dialect, dsn string) (*Store, error) {
	openMu.Lock()
	db, err := sqlOpen(d.driver, dsn)
	openMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", d.driver, err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", d.driver, err)
	}
	if _, err := db.ExecContext(ctx, d.createTable()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create documents table: %w", err)
	}
	return &Store{db: db, dialect: d}, nil
}

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *Store) DB() *sql.DB { return s.db }

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) Driver() core.Driver { return s.dialect.blobDriver }

func (s *Store) Put(ctx context.Context, key string, r io.Reader, opts core.PutOptions) (core.Info, error) {
	if strings.TrimSpace(key) == "" {
		return core.Info{}, fmt.Errorf("empty key")
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return core.Info{}, err
	}
	md, err := json.Marshal(opts.Metadata)
	if err != nil {
		return core.Info{}, err
	}
	sum := sha256.Sum256(data)
	now := time.Now().UTC()
	info := core.Info{
		Key:          key,
		Size:         int64(len(data)),
		ContentType:  opts.ContentType,
		ETag:         hex.EncodeToString(sum[:]),
		Metadata:     core.CloneMetadata(opts.Metadata),
		LastModified: now,
	}
	if _, err := s.db.ExecContext(ctx, s.dialect.upsert(),
		key, data, info.ContentType, string(md), info.ETag, info.Size, now.UnixNano()); err != nil {
		return core.Info{}, fmt.Errorf("upsert %s: %w", key, err)
	}
	return info, nil
}

func (s *Store) Get(ctx context.Context, key string) (core.Info, io.ReadCloser, error) {
	row := s.db.QueryRowContext(ctx, s.dialect.selectOne(infoColumns+`, content`), key)
	var content []byte
	info, err := scanInfo(row, &content)
	if err != nil {
		return core.Info{}, nil, notFound(key, err)
	}
	return info, io.NopCloser(bytes.NewReader(content)), nil
}

func (s *Store) Head(ctx context.Context, key string) (core.Info, error) {
	info, err := scanInfo(s.db.QueryRowContext(ctx, s.dialect.selectOne(infoColumns), key))
	if err != nil {
		return core.Info{}, notFound(key, err)
	}
	return info, nil
}

func (s *Store) Delete(ctx context.Context, key string) (bool, error) {
	res, err := s.db.ExecContext(ctx, s.dialect.deleteOne(), key)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// List filters by prefix in Go so that LIKE wildcards in keys need no escaping.
func (s *Store) List(ctx context.Context, prefix string) ([]core.Info, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+infoColumns+` FROM documents ORDER BY doc_key`)
	if err != nil {
		return nil, fmt.Errorf("select documents: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var infos []core.Info
	for rows.Next() {
		info, err := scanInfo(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		if strings.HasPrefix(info.Key, prefix) {
			infos = append(infos, info)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return infos, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanInfo(row scanner, extra ...any) (core.Info, error) {
	var (
		info    core.Info
		md      string
		updated int64
	)
	dest := append([]any{&info.Key, &info.ContentType, &md, &info.ETag, &info.Size, &updated}, extra...)
	if err := row.Scan(dest...); err != nil {
		return core.Info{}, err
	}
	if err := json.Unmarshal([]byte(md), &info.Metadata); err != nil {
		return core.Info{}, fmt.Errorf("decode metadata: %w", err)
	}
	info.LastModified = time.Unix(0, updated).UTC()
	return info, nil
}

func notFound(key string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s", core.ErrNotFound, key)
	}
	return err
}

// OverrideSQLOpen swaps the sqlOpen function for tests and returns a restore function.
func OverrideSQLOpen(fn func(driverName, dataSourceName string) (*sql.DB, error)) func() {
	openMu.Lock()
	defer openMu.Unlock()
	prev := sqlOpen
	sqlOpen = fn
	return func() {
		openMu.Lock()
		defer openMu.Unlock()
		sqlOpen = prev
	}
}
