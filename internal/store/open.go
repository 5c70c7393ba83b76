package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/MikeSquared-Agency/MRAT/internal/config"
)

// Open connects the store selected by cfg.Driver and applies migrations when
// AutoMigrate is set.
func Open(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) (Store, error) {
	switch cfg.Driver {
	case "postgres":
		s, err := NewPostgresStore(ctx, cfg.URL)
		if err != nil {
			return nil, err
		}
		if cfg.AutoMigrate {
			if err := s.Migrate(); err != nil {
				s.Close()
				return nil, fmt.Errorf("migrate postgres: %w", err)
			}
		}
		logger.Info("connected to database", "driver", cfg.Driver)
		return s, nil
	case "sqlite":
		s, err := OpenSQLite(cfg.Path)
		if err != nil {
			return nil, err
		}
		if cfg.AutoMigrate {
			if err := s.Migrate(); err != nil {
				s.Close()
				return nil, fmt.Errorf("migrate sqlite: %w", err)
			}
		}
		logger.Info("opened database", "driver", cfg.Driver, "path", cfg.Path)
		return s, nil
	case "memory":
		logger.Info("using in-memory store")
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}
