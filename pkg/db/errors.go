package db

import (
	"strings"

	pkgerrors "github.com/angelmondragon/orderledger-backend/pkg/errors"
)

const pgUniqueViolation = "23505"

// IsUniqueViolation reports whether err is a unique violation, optionally of
// the named constraint. Postgres errors carry the constraint name; SQLite
// only mentions the columns in its message, so matching falls back to text.
func IsUniqueViolation(err error, constraintName string) bool {
	if err == nil {
		return false
	}
	if info := pkgerrors.PostgresInfo(err); info != nil {
		return info.Code == pgUniqueViolation && (constraintName == "" || info.Constraint == constraintName)
	}

	msg := err.Error()
	if !strings.Contains(msg, "duplicate key value") && !strings.Contains(msg, "UNIQUE constraint failed") {
		return false
	}
	return constraintName == "" || strings.Contains(msg, constraintName)
}
