package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"

	"github.com/noah-isme/attendance-tracker-api/migrations"
)

// Migrate applies goose migrations embedded in the binary.
// Supported commands: up, down, status, reset.
func Migrate(ctx context.Context, db *sql.DB, command string) error {
	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}

	var err error
	switch command {
	case "up":
		err = goose.UpContext(ctx, db, ".")
	case "down":
		err = goose.DownContext(ctx, db, ".")
	case "status":
		err = goose.StatusContext(ctx, db, ".")
	case "reset":
		err = goose.ResetContext(ctx, db, ".")
	default:
		return fmt.Errorf("unknown migrate command %q", command)
	}
	if err != nil {
		return fmt.Errorf("goose %s: %w", command, err)
	}
	return nil
}
