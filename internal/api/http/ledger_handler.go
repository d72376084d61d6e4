package http

import (
	"context"
	"net/http"

	"rentflow-backend/internal/domain"

	"github.com/google/uuid"
)

// ledgerCommand is a record command the path supplies tenant and caller for.
type ledgerCommand interface {
	*domain.RecordPaymentCommand | *domain.RecordRefundCommand | *domain.RecordExpenseCommand
}

func bindLedgerCommand[C ledgerCommand](r *http.Request, cmd C) error {
	tenantID, err := pathUUID(r, "tenantID")
	if err != nil {
		return err
	}
	if err := decodeJSON(r, cmd, false); err != nil {
		return err
	}
	userID := callerID(r)
	switch c := any(cmd).(type) {
	case *domain.RecordPaymentCommand:
		c.TenantID, c.UserID = tenantID, userID
	case *domain.RecordRefundCommand:
		c.TenantID, c.UserID = tenantID, userID
	case *domain.RecordExpenseCommand:
		c.TenantID, c.UserID = tenantID, userID
	}
	return nil
}

// recordEntry handles the POST and PUT ledger routes.
func recordEntry[T any, C ledgerCommand](h *Handler, w http.ResponseWriter, r *http.Request, cmd C, status int, call func(ctx context.Context) (T, error)) {
	if err := bindLedgerCommand(r, cmd); err != nil {
		h.respondError(w, r, err)
		return
	}
	out, err := call(r.Context())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	RespondWithJSON(w, status, out)
}

// deleteEntry handles the DELETE ledger routes.
func (h *Handler) deleteEntry(w http.ResponseWriter, r *http.Request, del func(ctx context.Context, tenantID, id, userID uuid.UUID) error) {
	tenantID, err := pathUUID(r, "tenantID")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	id, err := pathUUID(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if err := del(r.Context(), tenantID, id, callerID(r)); err != nil {
		h.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// POST /api/v1/tenants/{tenantID}/payments
func (h *Handler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	var cmd domain.RecordPaymentCommand
	recordEntry(h, w, r, &cmd, http.StatusCreated, func(ctx context.Context) (*domain.LedgerEntry, error) {
		return h.ledger.RecordPayment(ctx, cmd)
	})
}

// PUT /api/v1/tenants/{tenantID}/payments/{id}
func (h *Handler) UpdatePayment(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	var cmd domain.RecordPaymentCommand
	recordEntry(h, w, r, &cmd, http.StatusOK, func(ctx context.Context) (*domain.LedgerEntry, error) {
		return h.ledger.UpdatePayment(ctx, id, cmd)
	})
}

// DELETE /api/v1/tenants/{tenantID}/payments/{id}
func (h *Handler) DeletePayment(w http.ResponseWriter, r *http.Request) {
	h.deleteEntry(w, r, h.ledger.DeletePayment)
}

// POST /api/v1/tenants/{tenantID}/refunds
func (h *Handler) RecordRefund(w http.ResponseWriter, r *http.Request) {
	var cmd domain.RecordRefundCommand
	recordEntry(h, w, r, &cmd, http.StatusCreated, func(ctx context.Context) (*domain.LedgerEntry, error) {
		return h.ledger.RecordRefund(ctx, cmd)
	})
}

// PUT /api/v1/tenants/{tenantID}/refunds/{id}
func (h *Handler) UpdateRefund(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	var cmd domain.RecordRefundCommand
	recordEntry(h, w, r, &cmd, http.StatusOK, func(ctx context.Context) (*domain.LedgerEntry, error) {
		return h.ledger.UpdateRefund(ctx, id, cmd)
	})
}

// DELETE /api/v1/tenants/{tenantID}/refunds/{id}
func (h *Handler) DeleteRefund(w http.ResponseWriter, r *http.Request) {
	h.deleteEntry(w, r, h.ledger.DeleteRefund)
}

// POST /api/v1/tenants/{tenantID}/expenses
func (h *Handler) RecordExpense(w http.ResponseWriter, r *http.Request) {
	var cmd domain.RecordExpenseCommand
	recordEntry(h, w, r, &cmd, http.StatusCreated, func(ctx context.Context) (*domain.LedgerEntry, error) {
		return h.ledger.RecordExpense(ctx, cmd)
	})
}

// PUT /api/v1/tenants/{tenantID}/expenses/{id}
func (h *Handler) UpdateExpense(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	var cmd domain.RecordExpenseCommand
	recordEntry(h, w, r, &cmd, http.StatusOK, func(ctx context.Context) (*domain.LedgerEntry, error) {
		return h.ledger.UpdateExpense(ctx, id, cmd)
	})
}

// DELETE /api/v1/tenants/{tenantID}/expenses/{id}
func (h *Handler) DeleteExpense(w http.ResponseWriter, r *http.Request) {
	h.deleteEntry(w, r, h.ledger.DeleteExpense)
}

// GET /api/v1/tenants/{tenantID}/transactions
func (h *Handler) GetTransactions(w http.ResponseWriter, r *http.Request) {
	tenantID, err := pathUUID(r, "tenantID")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	entries, err := h.ledger.GetTenantTransactions(r.Context(), tenantID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if entries == nil {
		entries = []domain.LedgerEntry{}
	}
	RespondWithJSON(w, http.StatusOK, entries)
}

// GET /api/v1/tenants/{tenantID}/balance?booking_id=...
func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	tenantID, err := pathUUID(r, "tenantID")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	var bookingID *uuid.UUID
	if raw := r.URL.Query().Get("booking_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			h.respondError(w, r, &AppError{StatusCode: http.StatusBadRequest, Code: ErrCodeInvalidPayload, Message: "Invalid booking_id", Field: "booking_id", Err: err})
			return
		}
		bookingID = &id
	}
	balance, err := h.ledger.GetBalance(r.Context(), tenantID, bookingID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	RespondWithJSON(w, http.StatusOK, balance)
}
