package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rundown-api/rundown/internal/config"
)

// Open returns a database handle for the configured driver.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*sql.DB, error) {
	switch cfg.Driver {
	case "", "sqlite":
		return NewSQLite(cfg)
	case "postgres":
		return NewPostgres(ctx, cfg)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}
