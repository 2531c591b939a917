package errors

import (
	stderrs "errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// SQLSTATE codes with a dedicated mapping
const (
	pgErrUniqueViolation           = "23505"
	pgErrForeignKeyViolation       = "23503"
	pgErrNotNullViolation          = "23502"
	pgErrCheckViolation            = "23514"
	pgErrInvalidTextRepresentation = "22P02"
	pgErrUndefinedFunction         = "42883"
	pgErrQueryCanceled             = "57014"
	pgErrAdminShutdown             = "57P01"
	pgErrCannotConnectNow          = "57P03"
)

// ExtractPgError returns the PgError at the root of err
func ExtractPgError(err error) (*pgconn.PgError, bool) {
	var pgErr *pgconn.PgError
	if stderrs.As(err, &pgErr) {
		return pgErr, true
	}
	return nil, false
}

// IsSQLState reports whether err is a PgError with SQLSTATE code
func IsSQLState(err error, code string) bool {
	pgErr, ok := ExtractPgError(err)
	return ok && pgErr.Code == code
}

// IsDataException reports a SQLSTATE class 22 error: the statement rejected
// its input, such as a malformed uuid, while the server itself is healthy
func IsDataException(err error) bool {
	pgErr, ok := ExtractPgError(err)
	return ok && len(pgErr.Code) == 5 && pgErr.Code[:2] == "22"
}

// IsDuplicateKey reports a unique constraint violation
func IsDuplicateKey(err error) bool {
	return IsSQLState(err, pgErrUniqueViolation) || IsCode(err, ErrorCodeDuplicateKey)
}

// IsConnectionFailure reports whether the database could not be reached at all
func IsConnectionFailure(err error) bool {
	if err == nil {
		return false
	}
	if IsSQLState(err, pgErrCannotConnectNow) || IsSQLState(err, pgErrAdminShutdown) {
		return true
	}
	var ce *pgconn.ConnectError
	return stderrs.As(err, &ce)
}

// DBErrorCode maps a PgError to an ErrorCode; ok is false for non-pg errors
func DBErrorCode(err error) (ErrorCode, bool) {
	pgErr, ok := ExtractPgError(err)
	if !ok {
		var ce *pgconn.ConnectError
		if stderrs.As(err, &ce) {
			return ErrorCodeUnavailable, true
		}
		return ErrorCodeUnknown, false
	}
	switch pgErr.Code {
	case pgErrUniqueViolation:
		return ErrorCodeDuplicateKey, true
	case pgErrForeignKeyViolation, pgErrInvalidTextRepresentation:
		return ErrorCodeInvalidArgument, true
	case pgErrNotNullViolation, pgErrCheckViolation:
		return ErrorCodeValidation, true
	case pgErrQueryCanceled:
		return ErrorCodeTimeout, true
	case pgErrCannotConnectNow, pgErrAdminShutdown:
		return ErrorCodeUnavailable, true
	case pgErrUndefinedFunction:
		return ErrorCodeUpstream, true
	}
	return ErrorCodeDB, true
}

// FromPostgres wraps err with the mapped code; nil stays nil
func FromPostgres(err error, msg string) error {
	if err == nil {
		return nil
	}
	if code, ok := DBErrorCode(err); ok {
		return Wrap(err, code, msg)
	}
	if e := FromContext(err, msg); IsCode(e, ErrorCodeTimeout) {
		return e
	}
	return Wrap(err, ErrorCodeDB, msg)
}
