package postgresql

import (
	"errors"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgExclusionViolation  = "23P01"
	pgInvalidTextRepr     = "22P02"
)

func pgErrorCode(err error) (string, string) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code, pgErr.ConstraintName
	}
	return "", ""
}

func isUniqueViolation(err error, constraint string) bool {
	code, name := pgErrorCode(err)
	return code == pgUniqueViolation && (constraint == "" || name == constraint)
}

func isForeignKeyViolation(err error) bool {
	code, _ := pgErrorCode(err)
	return code == pgForeignKeyViolation
}

func isExclusionViolation(err error, constraint string) bool {
	code, name := pgErrorCode(err)
	return code == pgExclusionViolation && name == constraint
}

// isInvalidID reports a malformed UUID parameter, which can never match a row.
func isInvalidID(err error) bool {
	code, _ := pgErrorCode(err)
	return code == pgInvalidTextRepr
}
