package blob

import (
	"context"
	"fmt"
)

// Config selects and configures a backend. The zero value opens a
// filesystem store under ./meetdata.
type Config struct {
	Driver      Driver
	FSRoot      string
	SQLitePath  string
	PostgresDSN string
	S3          S3Config
}

// Open constructs the Store named by cfg.Driver.
func Open(ctx context.Context, cfg Config) (Store, error) {
	driver := cfg.Driver
	if driver == "" {
		driver = DriverFilesystem
	}
	switch driver {
	case DriverFilesystem:
		return NewFilesystem(cfg.FSRoot)
	case DriverS3:
		return NewS3(ctx, cfg.S3)
	case DriverMemory:
		return NewMemory(), nil
	case DriverSQLite:
		return NewSQLite(ctx, cfg.SQLitePath)
	case DriverPostgres:
		return NewPostgres(ctx, cfg.PostgresDSN)
	default:
		return nil, fmt.Errorf("unknown blob driver %s", driver)
	}
}
