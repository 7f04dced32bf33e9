package errors

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"go.uber.org/zap"
)

// Process exit codes returned by the command line tools.
const (
	ExitOK        = 0
	ExitFailure   = 1
	ExitConfig    = 2
	ExitConnect   = 3
	ExitMigrate   = 4
	ExitInventory = 5
)

// Error represents a typed failure with a stable code and the exit status it maps to.
type Error struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	ExitCode int    `json:"exit_code"`
	Err      error  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches errors sharing the same code so wrapped copies compare equal to the sentinels.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) || e == nil || t == nil {
		return false
	}
	return e.Code == t.Code
}

// New creates a new Error instance.
func New(code string, exitCode int, message string) *Error {
	return &Error{Code: code, ExitCode: exitCode, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, exitCode int, message string) *Error {
	return &Error{Code: code, ExitCode: exitCode, Message: message, Err: err}
}

// WrapAs wraps err using the code and exit status of a predefined error.
func WrapAs(err error, kind *Error, message string) *Error {
	if message == "" {
		message = kind.Message
	}
	return Wrap(err, kind.Code, kind.ExitCode, message)
}

// Predefined errors for common scenarios.
var (
	ErrConfigInvalid       = New("CONFIG_INVALID", ExitConfig, "invalid configuration")
	ErrConnectionFailed    = New("CONNECTION_FAILED", ExitConnect, "cannot connect to database")
	ErrMigrationLoadFailed = New("MIGRATION_LOAD_FAILED", ExitMigrate, "cannot load migrations")
	ErrMigrationFailed     = New("MIGRATION_FAILED", ExitMigrate, "migration failed")
	ErrChecksumMismatch    = New("CHECKSUM_MISMATCH", ExitMigrate, "applied migration was modified")
	ErrInventoryFailed     = New("INVENTORY_FAILED", ExitInventory, "inventory failed")
	ErrExportFailed        = New("EXPORT_FAILED", ExitFailure, "export failed")
	ErrInternal            = New("INTERNAL_ERROR", ExitFailure, "internal error")
)

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.ExitCode, ErrInternal.Message)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}

// ExitCode returns the process exit status for err.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	return FromError(err).ExitCode
}

// Describe extracts server-side details from driver errors (lib/pq or pgx) as log fields.
func Describe(err error) []zap.Field {
	if err == nil {
		return nil
	}
	fields := []zap.Field{zap.Error(err)}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		fields = append(fields,
			zap.String("sqlstate", string(pqErr.Code)),
			zap.String("sqlstate_name", pqErr.Code.Name()),
		)
		if pqErr.Constraint != "" {
			fields = append(fields, zap.String("constraint", pqErr.Constraint))
		}
		if pqErr.Table != "" {
			fields = append(fields, zap.String("table", pqErr.Table))
		}
		if pqErr.Detail != "" {
			fields = append(fields, zap.String("detail", pqErr.Detail))
		}
		return fields
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		fields = append(fields, zap.String("sqlstate", pgErr.Code))
		if pgErr.ConstraintName != "" {
			fields = append(fields, zap.String("constraint", pgErr.ConstraintName))
		}
		if pgErr.TableName != "" {
			fields = append(fields, zap.String("table", pgErr.TableName))
		}
		if pgErr.Detail != "" {
			fields = append(fields, zap.String("detail", pgErr.Detail))
		}
	}
	return fields
}

// SQLState returns the SQLSTATE code carried by a driver error, or "".
func SQLState(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}
