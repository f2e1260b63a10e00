package postgres

import (
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/contacerta/contacerta/internal/store"
)

// SQLSTATEs raised by the onboarding functions (see migrations).
const (
	codeInviteNotFound    = "CC001"
	codeInviteExpired     = "CC002"
	codeInviteAlreadyUsed = "CC003"
)

// mapPostgresError maps PostgreSQL-specific errors to store errors.
// Integrity violations become *store.ConstraintError so callers can translate them
// for display. Returns the original error if it's not a PostgreSQL error.
func mapPostgresError(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		if pgconn.SafeToRetry(err) || pgconn.Timeout(err) {
			return fmt.Errorf("%w: %w", store.ErrUnavailable, err)
		}
		return err
	}

	constraint := pgErr.ConstraintName
	if constraint == "" {
		constraint = pgErr.ColumnName
	}

	switch pgErr.Code {
	case pgerrcode.NotNullViolation:
		return &store.ConstraintError{Kind: store.ConstraintNotNull, Code: pgErr.Code, Constraint: constraint, Err: err}

	case pgerrcode.ForeignKeyViolation:
		return &store.ConstraintError{Kind: store.ConstraintForeignKey, Code: pgErr.Code, Constraint: constraint, Err: err}

	case pgerrcode.UniqueViolation:
		return &store.ConstraintError{Kind: store.ConstraintUnique, Code: pgErr.Code, Constraint: constraint, Err: err}

	case pgerrcode.CheckViolation:
		return &store.ConstraintError{Kind: store.ConstraintCheck, Code: pgErr.Code, Constraint: constraint, Err: err}

	case pgerrcode.InsufficientPrivilege:
		// row-level security rejected the row
		return &store.ConstraintError{Kind: store.ConstraintPermission, Code: pgErr.Code, Constraint: constraint, Err: err}

	case codeInviteNotFound:
		return store.ErrInviteNotFound

	case codeInviteExpired:
		return store.ErrInviteExpired

	case codeInviteAlreadyUsed:
		return store.ErrInviteAlreadyUsed

	case pgerrcode.ConnectionException,
		pgerrcode.ConnectionDoesNotExist,
		pgerrcode.ConnectionFailure,
		pgerrcode.CannotConnectNow,
		pgerrcode.SQLClientUnableToEstablishSQLConnection,
		pgerrcode.AdminShutdown,
		pgerrcode.CrashShutdown,
		pgerrcode.TooManyConnections:
		return fmt.Errorf("%w: %w", store.ErrUnavailable, err)

	case pgerrcode.QueryCanceled:
		return fmt.Errorf("query canceled: %w", err)

	default:
		return fmt.Errorf("postgres error [%s]: %s (detail: %s, hint: %s): %w",
			pgErr.Code, pgErr.Message, pgErr.Detail, pgErr.Hint, err)
	}
}
