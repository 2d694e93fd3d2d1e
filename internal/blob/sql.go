package blob

import (
	"context"

	"meetcore/internal/infra/blob/sqldb"
)

// NewSQLite stores documents in an sqlite file at path.
func NewSQLite(ctx context.Context, path string) (Store, error) {
	return sqldb.OpenSQLite(ctx, path)
}

// NewPostgres stores documents in the PostgreSQL database named by dsn.
func NewPostgres(ctx context.Context, dsn string) (Store, error) {
	return sqldb.OpenPostgres(ctx, dsn)
}
