package repository

import (
	"schoolfee/domain"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

const (
	pgUndefinedFunction = "42883"
	pgUndefinedTable    = "42P01"
	pgUniqueViolation   = "23505"
	pgForeignKey        = "23503"
)

// translate maps driver errors onto the domain taxonomy.
func translate(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errors.Wrap(domain.ErrNotFound, op)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUndefinedFunction, pgUndefinedTable:
			return errors.Wrapf(domain.ErrFeatureUnavailable, "%s: %s", op, pgErr.Message)
		case pgUniqueViolation:
			return domain.NewValidationError(domain.FieldError{Field: pgErr.ConstraintName, Error: "already exists"})
		case pgForeignKey:
			return domain.NewValidationError(domain.FieldError{Field: pgErr.ConstraintName, Error: "references a missing record"})
		}
	}
	return &domain.StoreError{Op: op, Err: err}
}
