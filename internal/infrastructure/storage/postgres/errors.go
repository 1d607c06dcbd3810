package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// PostgreSQL SQLSTATE codes the repositories react to.
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeCheckViolation      = "23514"
)

// UniqueViolation reports whether err is a unique-constraint failure and
// returns the constraint (or index) name.
func UniqueViolation(err error) (string, bool) {
	return constraintError(err, codeUniqueViolation)
}

// ForeignKeyViolation reports whether err is a foreign-key failure.
func ForeignKeyViolation(err error) (string, bool) {
	return constraintError(err, codeForeignKeyViolation)
}

// CheckViolation reports whether err is a CHECK constraint failure.
func CheckViolation(err error) (string, bool) {
	return constraintError(err, codeCheckViolation)
}

func constraintError(err error, code string) (string, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == code {
		return pgErr.ConstraintName, true
	}
	return "", false
}
