package storage

import (
	"context"
	"fmt"
	"path/filepath"

	"promptsmith/config"
)

// Open builds the backend selected in config.toml.
func Open(ctx context.Context, cfg *config.Config) (Provider, error) {
	sc := cfg.Storage

	switch sc.Backend {
	case "memory":
		return NewMemoryStore(sc.QuotaBytes), nil
	case "", "file":
		return NewFileStore(cfg.StoragePath(), sc.QuotaBytes)
	case "sqlite":
		path := cfg.StoragePath()
		if err := config.EnsureDir(filepath.Dir(path)); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		return NewSQLiteStore(path, sc.QuotaBytes)
	case "redis":
		addr := sc.RedisAddr
		if addr == "" {
			addr = "localhost:6379"
		}
		password := ""
		if cfg.CredentialStore != nil {
			password = cfg.CredentialStore.Get("redis")
		}
		return NewRedisStore(ctx, addr, password, sc.RedisPrefix)
	default:
		return nil, fmt.Errorf("unknown storage backend: %s", sc.Backend)
	}
}
