package postgres_test

import (
	"context"
	"testing"

	"rentflow-backend/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestSequenceRepository_Next(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	t.Run("Increments", func(t *testing.T) {
		store, mock := newMock(t)
		mock.ExpectQuery("INSERT INTO sequences (.+) ON CONFLICT \\(tenant_id, series, scope\\)").
			WithArgs(tenantID, "invoice_number", "INV-202401-").
			WillReturnRows(sqlmock.NewRows([]string{"last_value"}).AddRow(7))

		v, err := store.Sequences.Next(ctx, tenantID, domain.SeriesInvoiceNumber, "INV-202401-")
		assert.NoError(t, err)
		assert.Equal(t, int64(7), v)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("UniqueViolationIsCollision", func(t *testing.T) {
		store, mock := newMock(t)
		mock.ExpectQuery("INSERT INTO sequences").
			WillReturnError(&pq.Error{Code: "23505", Constraint: "sequences_pkey"})

		_, err := store.Sequences.Next(ctx, tenantID, domain.SeriesRentalNumber, "")
		assert.ErrorIs(t, err, domain.ErrAllocationCollision)
		assert.True(t, domain.IsRetryable(err))
	})

	t.Run("OtherUniqueViolationPassesThrough", func(t *testing.T) {
		store, mock := newMock(t)
		mock.ExpectQuery("INSERT INTO sequences").
			WillReturnError(&pq.Error{Code: "23505", Constraint: "something_else"})

		_, err := store.Sequences.Next(ctx, tenantID, domain.SeriesRentalNumber, "")
		assert.Error(t, err)
		assert.NotErrorIs(t, err, domain.ErrAllocationCollision)
	})
}
