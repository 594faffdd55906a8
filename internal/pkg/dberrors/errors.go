// Package dberrors translates PostgreSQL failures into application errors.
package dberrors

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/yigit/schoolrecords/internal/pkg/apperrors"
)

// SQLSTATE codes the repositories care about
const (
	CodeUniqueViolation = "23505"
	CodeCheckViolation  = "23514"
)

// Conflicts maps a unique constraint name to the message reported when an
// insert or update violates it.
type Conflicts map[string]string

// Code returns the SQLSTATE of err, or "" when err did not come from the server.
func Code(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// IsUniqueViolation reports whether err violates the named unique constraint.
// An empty constraint matches any unique violation.
func IsUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != CodeUniqueViolation {
		return false
	}
	return constraint == "" || pgErr.ConstraintName == constraint
}

// Translate converts a failed statement of op into an application error.
// Known unique violations become conflicts and check violations become bad
// requests. Anything else means the store could not serve the request.
func Translate(op string, err error, conflicts Conflicts) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case CodeUniqueViolation:
			if msg, ok := conflicts[pgErr.ConstraintName]; ok {
				return apperrors.NewConflictError(msg)
			}
		case CodeCheckViolation:
			return apperrors.NewBadRequestError(op + ": value rejected by " + pgErr.ConstraintName)
		}
	}
	return apperrors.NewStoreUnavailableError(op, err)
}
