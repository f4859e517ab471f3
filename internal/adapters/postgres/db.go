package postgres

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"sort"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// migrationLockID serialises migrators when serve and worker start together.
const migrationLockID int64 = 0x73746f7265

const (
	pingTimeout     = 5 * time.Second
	connMaxIdleTime = 15 * time.Minute
	connMaxLifetime = time.Hour
)

func storeLogger() *slog.Logger {
	return slog.Default().With("module", "postgres", "layer", "adapter")
}

// Connect opens the storefront pool. TranslateError keeps unique violations mappable to
// domain.ErrConflict in the repositories.
func Connect(ctx context.Context, databaseURL string, maxConns int32) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{
		PrepareStmt:    true,
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("gorm sql db: %w", err)
	}
	if maxConns > 0 {
		sqlDB.SetMaxOpenConns(int(maxConns))
		sqlDB.SetMaxIdleConns(max(1, int(maxConns)/2))
	}
	sqlDB.SetConnMaxIdleTime(connMaxIdleTime)
	sqlDB.SetConnMaxLifetime(connMaxLifetime)

	if err := Ping(ctx, db); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	storeLogger().InfoContext(ctx, "postgres pool ready",
		"operation", "connect",
		"outcome", "success",
		"max_conns", maxConns,
	)
	return db, nil
}

// Ping checks the pool answers within pingTimeout. /readyz uses it.
func Ping(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("gorm sql db: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		return fmt.Errorf("ping postgres: %w", err)
	}
	return nil
}

// migrationNames lists embedded .sql files in apply order.
func migrationNames(fsys fs.FS) ([]string, error) {
	entries, err := fs.ReadDir(fsys, "migrations")
	if err != nil {
		return nil, fmt.Errorf("read migrations dir: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".sql") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

// RunMigrations applies embedded migrations that schema_migrations has not recorded yet.
// Each file runs in its own transaction together with its bookkeeping row, under an
// advisory lock, so `storefront migrate` can be re-run safely.
func RunMigrations(ctx context.Context, db *gorm.DB) error {
	names, err := migrationNames(migrationFS)
	if err != nil {
		return err
	}

	return db.WithContext(ctx).Connection(func(conn *gorm.DB) error {
		if err := conn.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (
			version    TEXT PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`).Error; err != nil {
			return fmt.Errorf("create schema_migrations: %w", err)
		}
		if err := conn.Exec("SELECT pg_advisory_lock(?)", migrationLockID).Error; err != nil {
			return fmt.Errorf("acquire migration lock: %w", err)
		}
		defer conn.Exec("SELECT pg_advisory_unlock(?)", migrationLockID)

		var applied []string
		if err := conn.Raw("SELECT version FROM schema_migrations").Scan(&applied).Error; err != nil {
			return fmt.Errorf("list applied migrations: %w", err)
		}
		done := make(map[string]struct{}, len(applied))
		for _, v := range applied {
			done[v] = struct{}{}
		}

		pending := 0
		for _, name := range names {
			if _, ok := done[name]; ok {
				continue
			}
			raw, err := migrationFS.ReadFile(path.Join("migrations", name))
			if err != nil {
				return fmt.Errorf("read migration %s: %w", name, err)
			}
			err = conn.Transaction(func(tx *gorm.DB) error {
				if err := tx.Exec(string(raw)).Error; err != nil {
					return err
				}
				return tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", name).Error
			})
			if err != nil {
				return fmt.Errorf("apply migration %s: %w", name, err)
			}
			pending++
			storeLogger().InfoContext(ctx, "migration applied",
				"operation", "apply_migration",
				"outcome", "success",
				"migration", name,
			)
		}
		storeLogger().InfoContext(ctx, "schema up to date",
			"operation", "run_migrations",
			"outcome", "success",
			"applied_count", pending,
			"known_count", len(names),
		)
		return nil
	})
}
