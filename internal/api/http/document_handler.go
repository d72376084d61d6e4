package http

import (
	"net/http"
)

// POST /api/v1/tenants/{tenantID}/bookings/{bookingID}/invoice
func (h *Handler) GenerateInvoice(w http.ResponseWriter, r *http.Request) {
	tenantID, bookingID, err := bookingPath(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	result, err := h.documents.GenerateInvoice(r.Context(), tenantID, bookingID, callerID(r))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	RespondWithJSON(w, http.StatusOK, result)
}

// POST /api/v1/tenants/{tenantID}/bookings/{bookingID}/agreement
func (h *Handler) GenerateAgreement(w http.ResponseWriter, r *http.Request) {
	tenantID, bookingID, err := bookingPath(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	result, err := h.documents.GenerateAgreement(r.Context(), tenantID, bookingID, callerID(r))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	RespondWithJSON(w, http.StatusOK, result)
}

// POST /api/v1/tenants/{tenantID}/bookings/{bookingID}/agreement/signature
func (h *Handler) RequestAgreementSignature(w http.ResponseWriter, r *http.Request) {
	tenantID, bookingID, err := bookingPath(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	agreement, err := h.documents.RequestAgreementSignature(r.Context(), tenantID, bookingID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	RespondWithJSON(w, http.StatusAccepted, agreement)
}
