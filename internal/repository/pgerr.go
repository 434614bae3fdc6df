package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"taskplanner/internal/apperr"
)

const uniqueViolation = "23505"

// classify maps persistence-layer failures onto engine error kinds. Errors
// already carrying a kind pass through unchanged.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return err
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return apperr.Wrap(apperr.Conflict, err, "Duplicate entry violates a uniqueness constraint")
	}
	return apperr.Wrap(apperr.Internal, err, "unexpected database error")
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
