package db

import (
	"context"
	"database/sql"

	"github.com/pressly/goose/v3"

	"ADL-backend/internal/platform/db/migrations"
)

// 起動時にスキーマを最新化する
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect(driverName); err != nil {
		return err
	}
	return goose.UpContext(ctx, db, ".")
}
