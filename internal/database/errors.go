package database

import (
	stderrors "errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/emilythestrangee/institute-hub/backend/internal/apperr"
)

const uniqueViolation = "23505"

// IsUniqueViolation reports whether err is a postgres unique-constraint failure.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return stderrors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// IsNotFound reports whether err is gorm's missing-row error.
func IsNotFound(err error) bool {
	return stderrors.Is(err, gorm.ErrRecordNotFound)
}

// wrap annotates a store failure. Unique violations become Conflict so the
// transport layer can answer 409; anything else stays Internal.
func wrap(err error, op string, conflictMsg string) error {
	if err == nil {
		return nil
	}
	if IsUniqueViolation(err) && conflictMsg != "" {
		return apperr.Wrap(err, apperr.Conflict, conflictMsg)
	}
	var appErr *apperr.Error
	if stderrors.As(err, &appErr) {
		return err
	}
	return errors.Wrap(err, op)
}
