package postgres

import (
	"database/sql"
	"errors"
	"fmt"

	"rentflow-backend/internal/domain"

	"github.com/lib/pq"
)

const uniqueViolation = "23505"

// Unique constraints guarding issued identifiers. A violation on one of these
// means two allocations raced and the caller should retry.
var identifierConstraints = map[string]bool{
	"bookings_tenant_rental_number_key": true,
	"bookings_tenant_booking_code_key":  true,
	"invoices_tenant_number_key":        true,
	"agreements_tenant_number_key":      true,
	"tenants_code_key":                  true,
	"sequences_pkey":                    true,
}

func mapError(err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation && identifierConstraints[pqErr.Constraint] {
		return fmt.Errorf("%w: %s", domain.ErrAllocationCollision, pqErr.Constraint)
	}
	return err
}

// notFound turns sql.ErrNoRows into a domain not-found error for entity.
func notFound(err error, entity string, id any) error {
	if errors.Is(err, sql.ErrNoRows) {
		return domain.NotFoundError(entity, id)
	}
	return mapError(err)
}

// requireOne fails with a not-found error when an update touched no row.
func requireOne(res sql.Result, entity string, id any) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.NotFoundError(entity, id)
	}
	return nil
}
