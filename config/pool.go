package config

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
)

// BootPool opens the pgx pool used for remote aggregate functions and
// LISTEN/NOTIFY. It shares the gorm connection settings.
func BootPool(ctx context.Context) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(GetDatabaseURL())
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse pool config")
	}
	cfg.MaxConns = 8
	cfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open pool")
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, errors.Wrap(err, "failed to ping pool")
	}

	GetLogrusInstance().Info("pgx pool initialized")
	return pool, nil
}
