package seed

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
)

// DefaultUsers are inserted on first boot.
var DefaultUsers = []struct {
	Name  string
	Email string
}{
	{"Admin User", "admin@example.com"},
	{"Test User", "test@example.com"},
}

// Users inserts DefaultUsers when the users table is empty. It reports how
// many rows were written.
func Users(ctx context.Context, db *sqlx.DB, logger *slog.Logger) (int, error) {
	var count int64
	if err := db.GetContext(ctx, &count, `SELECT COUNT(*) FROM users`); err != nil {
		return 0, fmt.Errorf("seed: count users: %w", err)
	}
	if count > 0 {
		return 0, nil
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("seed: begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PreparexContext(ctx, tx.Rebind(`INSERT INTO users (name, email) VALUES (?, ?)`))
	if err != nil {
		return 0, fmt.Errorf("seed: prepare: %w", err)
	}
	defer stmt.Close()

	rows := 0
	for _, u := range DefaultUsers {
		if _, err := stmt.ExecContext(ctx, u.Name, u.Email); err != nil {
			return 0, fmt.Errorf("seed: insert %s: %w", u.Email, err)
		}
		rows++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("seed: commit: %w", err)
	}
	logger.Info("seeded users table", slog.Int("rows", rows))
	return rows, nil
}
