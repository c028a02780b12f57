package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

const (
	pgErrCodeUniqueViolation      = "23505"
	pgErrCodeExclusionViolation   = "23P01"
	pgErrCodeSerializationFailure = "40001"
	pgErrCodeDeadlockDetected     = "40P01"

	roomNameConstraint = "idx_meeting_rooms_name"
)

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return ""
	}
	return pgErr.Code
}

// isUniqueViolationOn reports a 23505 raised by the named constraint or
// unique index.
func isUniqueViolationOn(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == pgErrCodeUniqueViolation && pgErr.ConstraintName == constraint
}

func isRoomNameTaken(err error) bool {
	return isUniqueViolationOn(err, roomNameConstraint)
}

func isExclusionViolation(err error) bool {
	return pgCode(err) == pgErrCodeExclusionViolation
}

func isRetryableError(err error) bool {
	switch pgCode(err) {
	case pgErrCodeSerializationFailure, pgErrCodeDeadlockDetected:
		return true
	default:
		return false
	}
}
