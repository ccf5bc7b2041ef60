package migrate

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/wattfinder/wattfinder/internal/storage"
)

// The goose path and the GORM sqlite backend must share the single "sqlite"
// database/sql driver glebarez registers; linking a second sqlite
// implementation alongside it panics at init.
func TestMigrateAndGormShareSqliteDriver(t *testing.T) {
	ctx := context.Background()
	dsn := filepath.Join(t.TempDir(), "wattfinder.db")

	if err := Up(ctx, "sqlite", dsn); err != nil {
		t.Fatalf("Up: %v", err)
	}
	if err := Status(ctx, "sqlite", dsn); err != nil {
		t.Fatalf("Status: %v", err)
	}

	st, err := storage.NewGormStorage("sqlite", dsn)
	if err != nil {
		t.Fatalf("NewGormStorage: %v", err)
	}
	defer st.Close()
	if err := st.Ping(ctx); err != nil {
		t.Fatalf("Ping: %v", err)
	}
}

func TestMigrateDown(t *testing.T) {
	ctx := context.Background()
	dsn := filepath.Join(t.TempDir(), "wattfinder.db")

	if err := Up(ctx, "sqlite", dsn); err != nil {
		t.Fatalf("Up: %v", err)
	}
	if err := Down(ctx, "sqlite", dsn); err != nil {
		t.Fatalf("Down: %v", err)
	}
}
