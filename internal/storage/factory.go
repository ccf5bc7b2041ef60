package storage

import (
	"context"
	"fmt"
)

// Config selects and configures a storage backend.
type Config struct {
	// Driver is one of "memory", "sqlite", "postgres", or "postgrespool".
	// Empty defaults to memory.
	Driver string

	// DSN is the connection string for database-backed drivers.
	DSN string

	// Providers seeds the provider directory on first open.
	Providers []ProviderInfo
}

// Open creates the storage backend described by cfg. GORM-backed drivers run
// AutoMigrate before returning; the postgrespool driver expects goose
// migrations to have been applied (see internal/migrate).
func Open(ctx context.Context, cfg Config) (Storage, error) {
	switch cfg.Driver {
	case "", "memory":
		return NewMemoryWithProviders(cfg.Providers), nil

	case "sqlite", "postgres":
		s, err := NewGormStorage(cfg.Driver, cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("open %s storage: %w", cfg.Driver, err)
		}
		if err := s.Migrate(ctx); err != nil {
			s.Close()
			return nil, fmt.Errorf("migrate %s storage: %w", cfg.Driver, err)
		}
		if err := seedProviders(ctx, s, cfg.Providers); err != nil {
			s.Close()
			return nil, err
		}
		return s, nil

	case "postgrespool":
		s, err := OpenPostgresPool(ctx, cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres pool storage: %w", err)
		}
		if err := seedProviders(ctx, s, cfg.Providers); err != nil {
			s.Close()
			return nil, err
		}
		return s, nil

	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

func seedProviders(ctx context.Context, s Storage, providers []ProviderInfo) error {
	for _, p := range providers {
		existing, err := s.GetProvider(ctx, p.Key)
		if err != nil {
			return fmt.Errorf("seed provider %s: %w", p.Key, err)
		}
		if existing != nil {
			continue
		}
		if err := s.UpsertProvider(ctx, p); err != nil {
			return fmt.Errorf("seed provider %s: %w", p.Key, err)
		}
	}
	return nil
}
