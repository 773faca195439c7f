package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// ErrNotFound is returned when a lookup by id matches no row.
var ErrNotFound = errors.New("store: record not found")

// ConstraintKind classifies an integrity constraint violation.
type ConstraintKind string

const (
	ConstraintUnique  ConstraintKind = "unique"
	ConstraintNotNull ConstraintKind = "not_null"
	ConstraintOther   ConstraintKind = "other"
)

// ConstraintError reports a rejected write together with the table and
// column the engine named. The write had no effect.
type ConstraintError struct {
	Kind   ConstraintKind
	Table  string
	Column string
	Cause  error
}

func (e *ConstraintError) Error() string {
	return fmt.Sprintf("store: %s constraint violated on %s.%s: %v", e.Kind, e.Table, e.Column, e.Cause)
}

func (e *ConstraintError) Unwrap() error { return e.Cause }

// IsUniqueViolation reports whether err is a unique constraint violation on column.
func IsUniqueViolation(err error, column string) bool {
	var ce *ConstraintError
	if !errors.As(err, &ce) {
		return false
	}
	return ce.Kind == ConstraintUnique && ce.Column == column
}

// mapError translates driver errors into ErrNotFound or *ConstraintError.
// Anything else is returned unchanged.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}

	var se *sqlite.Error
	if errors.As(err, &se) {
		if ce := fromSQLite(se); ce != nil {
			return ce
		}
		return err
	}

	var pe *pgconn.PgError
	if errors.As(err, &pe) {
		if ce := fromPostgres(pe); ce != nil {
			return ce
		}
	}
	return err
}

func fromSQLite(se *sqlite.Error) *ConstraintError {
	code := se.Code()
	if code&0xff != sqlite3.SQLITE_CONSTRAINT {
		return nil
	}

	kind := ConstraintOther
	switch code {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		kind = ConstraintUnique
	case sqlite3.SQLITE_CONSTRAINT_NOTNULL:
		kind = ConstraintNotNull
	case sqlite3.SQLITE_CONSTRAINT:
		// Extended codes disabled: fall back to the engine's message prefix.
		msg := se.Error()
		switch {
		case strings.Contains(msg, "UNIQUE constraint failed"):
			kind = ConstraintUnique
		case strings.Contains(msg, "NOT NULL constraint failed"):
			kind = ConstraintNotNull
		}
	}

	table, column := sqliteTarget(se.Error())
	return &ConstraintError{Kind: kind, Table: table, Column: column, Cause: se}
}

// sqliteTarget extracts "table.column" from messages such as
// "UNIQUE constraint failed: users.email (2067)". Only the first column of
// a composite key is returned.
func sqliteTarget(msg string) (string, string) {
	const marker = "constraint failed: "
	idx := strings.LastIndex(msg, marker)
	if idx < 0 {
		return "", ""
	}
	target := msg[idx+len(marker):]
	if end := strings.IndexAny(target, " ,"); end >= 0 {
		target = target[:end]
	}
	table, column, ok := strings.Cut(target, ".")
	if !ok {
		return "", target
	}
	return table, column
}

func fromPostgres(pe *pgconn.PgError) *ConstraintError {
	switch pe.Code {
	case "23505":
		return &ConstraintError{
			Kind:   ConstraintUnique,
			Table:  pe.TableName,
			Column: postgresKeyColumn(pe.TableName, pe.ConstraintName),
			Cause:  pe,
		}
	case "23502":
		return &ConstraintError{Kind: ConstraintNotNull, Table: pe.TableName, Column: pe.ColumnName, Cause: pe}
	}
	if strings.HasPrefix(pe.Code, "23") {
		return &ConstraintError{Kind: ConstraintOther, Table: pe.TableName, Column: pe.ColumnName, Cause: pe}
	}
	return nil
}

// postgresKeyColumn recovers the column from default constraint names
// like users_email_key.
func postgresKeyColumn(table, constraint string) string {
	if constraint == table+"_pkey" {
		return "id"
	}
	name := strings.TrimPrefix(constraint, table+"_")
	return strings.TrimSuffix(name, "_key")
}
