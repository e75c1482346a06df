package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/utsav306/farmconnect-sub000/internal/apperr"
)

// uniqueViolation is the Postgres SQLSTATE for a duplicate key.
const uniqueViolation = "23505"

// translate maps driver errors onto the application taxonomy. notFound is
// returned for sql.ErrNoRows; anything unrecognised is wrapped with op.
func translate(err error, op string, notFound error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) && notFound != nil {
		return notFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		switch {
		case strings.Contains(pqErr.Constraint, "username"):
			return apperr.ErrUsernameTaken
		case strings.Contains(pqErr.Constraint, "email"):
			return apperr.ErrEmailTaken
		default:
			return apperr.Wrap(apperr.CodeAlreadyExists, "Resource already exists", err)
		}
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}

// uuidArray renders ids for `= ANY($n::uuid[])`.
func uuidArray(ids []uuid.UUID) pq.StringArray {
	out := make(pq.StringArray, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}

// expectRow turns a zero-row update into notFound.
func expectRow(result sql.Result, notFound error) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return notFound
	}
	return nil
}
