package storage

import (
	"context"
	"fmt"

	"spinlog/internal/config"
)

// Open builds the KV selected by cfg, sealed when cfg.Secret is set.
func Open(ctx context.Context, cfg config.StorageConfig) (KV, error) {
	var (
		kv  KV
		err error
	)
	switch cfg.Driver {
	case config.DriverBunt:
		kv, err = OpenBunt(cfg.Path)
	case config.DriverSQLite:
		kv, err = OpenSQL(ctx, SQLite, cfg.Path, cfg.Table)
	case config.DriverPostgres:
		kv, err = OpenSQL(ctx, Postgres, cfg.DSN, cfg.Table)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}

	if cfg.Secret == "" {
		return kv, nil
	}
	sealed, err := NewSealed(kv, cfg.Secret)
	if err != nil {
		_ = kv.Close()
		return nil, err
	}
	return sealed, nil
}
