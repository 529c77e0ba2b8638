package repository

import (
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// ErrorMap names the domain errors that database failures translate to.
// Nil fields leave the matching failure unchanged.
type ErrorMap struct {
	NotFound  error
	Duplicate error
	// MissingParent is returned for foreign key violations.
	MissingParent error
}

// Map translates database errors to domain errors.
// sql.ErrNoRows maps to NotFound, PostgreSQL unique violations (23505) to Duplicate,
// and foreign key violations (23503) to MissingParent. Other errors pass through.
func (m ErrorMap) Map(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, sql.ErrNoRows) && m.NotFound != nil {
		return m.NotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == pgUniqueViolation && m.Duplicate != nil:
			return m.Duplicate
		case pgErr.Code == pgForeignKeyViolation && m.MissingParent != nil:
			return m.MissingParent
		}
	}

	return err
}
