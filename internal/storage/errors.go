package storage

import (
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"github.com/m3rciful/estatebot/internal/domain"
)

// Postgres error classes the repositories translate into typed errors.
const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
	pqCheckViolation      = "23514"
)

// translate maps driver-level failures onto the domain error taxonomy so
// constraint violations are distinguishable from generic storage faults.
// sql.ErrNoRows is mapped to a NotFoundError for the given entity/id.
func translate(op, entity string, id int64, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return &domain.NotFoundError{Entity: entity, ID: id}
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch string(pqErr.Code) {
		case pqUniqueViolation, pqForeignKeyViolation, pqCheckViolation:
			return &domain.ConstraintError{Op: op, Err: err}
		}
	}
	return err
}
