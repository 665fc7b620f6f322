package db

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const (
	PgCodeUniqueViolation      = "23505"
	PgCodeSerializationFailure = "40001"
	PgCodeDeadlockDetected     = "40P01"
	PgCodeLockNotAvailable     = "55P03"
)

func IsDuplicateKeyErr(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	if PgErrorCode(err) == PgCodeUniqueViolation {
		return true
	}

	msg := err.Error()
	// MySQL 1062, SQLite 2067
	return strings.Contains(msg, "duplicate key value violates unique constraint") ||
		strings.Contains(msg, "Error 1062") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}

// PgErrorCode returns the SQLSTATE of a wrapped postgres error, or "".
func PgErrorCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr != nil {
		return pgErr.Code
	}
	return ""
}

// IsRetryable reports transaction failures that succeed when replayed from the start.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	switch PgErrorCode(err) {
	case PgCodeSerializationFailure, PgCodeDeadlockDetected:
		return true
	}
	msg := err.Error()
	// MySQL 1213 deadlock, SQLite busy
	return strings.Contains(msg, "Error 1213") ||
		strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "SQLITE_BUSY")
}
