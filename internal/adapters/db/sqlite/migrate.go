package sqlite

import (
	"context"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
	"gorm.io/gorm"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// RunMigrations applies the embedded catalog schema.
func RunMigrations(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("sql handle: %w", err)
	}

	if err := goose.SetDialect("sqlite3"); err != nil {
		return err
	}

	goose.SetBaseFS(migrationsFS)
	if err := goose.UpContext(ctx, sqlDB, "migrations"); err != nil {
		return fmt.Errorf("apply catalog migrations: %w", err)
	}
	return nil
}

// MigrationStatus reports the applied schema version.
func MigrationStatus(db *gorm.DB) (int64, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return 0, fmt.Errorf("sql handle: %w", err)
	}
	if err := goose.SetDialect("sqlite3"); err != nil {
		return 0, err
	}
	goose.SetBaseFS(migrationsFS)
	return goose.GetDBVersion(sqlDB)
}
