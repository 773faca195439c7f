package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"userdesk/m/domain"
)

// dialect holds the few expressions that differ between engines.
type dialect struct {
	// createdAt renders created_at as "YYYY-MM-DD HH:MM:SS".
	createdAt string
	// day renders created_at as "YYYY-MM-DD".
	day string
}

var dialects = map[string]dialect{
	"sqlite": {
		createdAt: `COALESCE(strftime('%Y-%m-%d %H:%M:%S', created_at), '')`,
		day:       `DATE(created_at)`,
	},
	"pgx": {
		createdAt: `COALESCE(to_char(created_at AT TIME ZONE 'UTC', 'YYYY-MM-DD HH24:MI:SS'), '')`,
		day:       `to_char(created_at AT TIME ZONE 'UTC', 'YYYY-MM-DD')`,
	},
}

// UserStore runs parameterized statements against the users table.
type UserStore struct {
	db      *sqlx.DB
	columns string
	day     string
}

// NewUserStore constructs a UserStore over an open handle. Statements are
// written with ? placeholders and rebound for the handle's driver.
func NewUserStore(db *sqlx.DB) (*UserStore, error) {
	d, ok := dialects[db.DriverName()]
	if !ok {
		return nil, fmt.Errorf("store: unsupported driver %q", db.DriverName())
	}
	return &UserStore{
		db:      db,
		columns: "id, name, email, avatar, " + d.createdAt + " AS created_at",
		day:     d.day,
	}, nil
}

// Ping checks that the database is reachable.
func (s *UserStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// List returns every user in the engine's default order.
func (s *UserStore) List(ctx context.Context) ([]domain.User, error) {
	users := []domain.User{}
	if err := s.db.SelectContext(ctx, &users, `SELECT `+s.columns+` FROM users`); err != nil {
		return nil, mapError(err)
	}
	return users, nil
}

// Get returns the user with the given id or ErrNotFound.
func (s *UserStore) Get(ctx context.Context, id int64) (*domain.User, error) {
	var user domain.User
	err := s.db.GetContext(ctx, &user, s.db.Rebind(`SELECT `+s.columns+` FROM users WHERE id = ?`), id)
	if err != nil {
		return nil, mapError(err)
	}
	return &user, nil
}

// Insert adds a user and returns the stored row, including its id and
// created_at default. A duplicate email yields a *ConstraintError.
func (s *UserStore) Insert(ctx context.Context, name, email string, avatar *string) (*domain.User, error) {
	var user domain.User
	query := s.db.Rebind(`INSERT INTO users (name, email, avatar) VALUES (?, ?, ?) RETURNING ` + s.columns)
	if err := s.db.QueryRowxContext(ctx, query, name, email, avatar).StructScan(&user); err != nil {
		return nil, mapError(err)
	}
	return &user, nil
}

// Update sets name and email, and avatar when it is non-nil. It returns the
// updated row and the avatar the row held before the update.
func (s *UserStore) Update(ctx context.Context, id int64, name, email string, avatar *string) (*domain.User, *string, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, nil, err
	}
	defer tx.Rollback()

	var previous *string
	if err := tx.GetContext(ctx, &previous, tx.Rebind(`SELECT avatar FROM users WHERE id = ?`), id); err != nil {
		return nil, nil, mapError(err)
	}

	if avatar != nil {
		_, err = tx.ExecContext(ctx, tx.Rebind(`UPDATE users SET name = ?, email = ?, avatar = ? WHERE id = ?`), name, email, *avatar, id)
	} else {
		_, err = tx.ExecContext(ctx, tx.Rebind(`UPDATE users SET name = ?, email = ? WHERE id = ?`), name, email, id)
	}
	if err != nil {
		return nil, nil, mapError(err)
	}

	var user domain.User
	if err := tx.GetContext(ctx, &user, tx.Rebind(`SELECT `+s.columns+` FROM users WHERE id = ?`), id); err != nil {
		return nil, nil, mapError(err)
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, mapError(err)
	}
	return &user, previous, nil
}

// Delete removes the user with the given id and returns the avatar it held.
// Deleting a missing id is not an error.
func (s *UserStore) Delete(ctx context.Context, id int64) (*string, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var avatar *string
	err = tx.GetContext(ctx, &avatar, tx.Rebind(`SELECT avatar FROM users WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, mapError(err)
	}

	if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM users WHERE id = ?`), id); err != nil {
		return nil, mapError(err)
	}
	if err := tx.Commit(); err != nil {
		return nil, mapError(err)
	}
	return avatar, nil
}

// Growth counts users per creation date, oldest date first.
func (s *UserStore) Growth(ctx context.Context) ([]domain.GrowthPoint, error) {
	query := fmt.Sprintf(`SELECT %[1]s AS date, COUNT(*) AS count
                FROM users
                WHERE created_at IS NOT NULL
                GROUP BY %[1]s
                ORDER BY %[1]s ASC`, s.day)

	points := []domain.GrowthPoint{}
	if err := s.db.SelectContext(ctx, &points, query); err != nil {
		return nil, mapError(err)
	}
	return points, nil
}

// Count returns the number of users.
func (s *UserStore) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM users`); err != nil {
		return 0, mapError(err)
	}
	return count, nil
}
