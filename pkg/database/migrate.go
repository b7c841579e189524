package database

import (
	"context"
	"embed"
	"fmt"
	"io/fs"

	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Migrate applies pending goose migrations through a database/sql view of the pool.
func Migrate(ctx context.Context, db *DB, log *zap.Logger) error {
	sqlDB := stdlib.OpenDBFromPool(db.Pool())
	defer sqlDB.Close()

	fsys, err := fs.Sub(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}

	provider, err := goose.NewProvider(goose.DialectPostgres, sqlDB, fsys)
	if err != nil {
		return fmt.Errorf("create migration provider: %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}

	for _, result := range results {
		log.Info("Migration applied",
			zap.String("source", result.Source.Path),
			zap.Int64("version", result.Source.Version),
			zap.Duration("duration", result.Duration),
		)
	}

	return nil
}
