package http

import (
	"net/http"
	"strings"

	"rentflow-backend/internal/domain"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// POST /api/v1/tenants/{tenantID}/bookings
func (h *Handler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	tenantID, err := pathUUID(r, "tenantID")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	var cmd domain.CreateBookingCommand
	if err := decodeJSON(r, &cmd, false); err != nil {
		h.respondError(w, r, err)
		return
	}
	cmd.TenantID = tenantID
	cmd.UserID = callerID(r)

	booking, err := h.bookings.CreateBooking(r.Context(), cmd)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	RespondWithJSON(w, http.StatusCreated, booking)
}

// GET /api/v1/tenants/{tenantID}/bookings?status=PENDING,CONFIRMED&page=1&page_size=20
func (h *Handler) ListBookings(w http.ResponseWriter, r *http.Request) {
	tenantID, err := pathUUID(r, "tenantID")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	page, err := queryInt32(r, "page")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	pageSize, err := queryInt32(r, "page_size")
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	filter := domain.BookingFilter{Page: page, PageSize: pageSize}
	if raw := r.URL.Query().Get("status"); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			filter.Statuses = append(filter.Statuses, domain.BookingStatus(strings.ToUpper(strings.TrimSpace(s))))
		}
	}

	bookings, total, err := h.bookings.ListBookings(r.Context(), tenantID, filter)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	RespondWithJSON(w, http.StatusOK, PagedResponse[domain.Booking]{Items: bookings, Total: total})
}

// GET /api/v1/tenants/{tenantID}/bookings/{bookingID}
func (h *Handler) GetBooking(w http.ResponseWriter, r *http.Request) {
	tenantID, bookingID, err := bookingPath(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	booking, err := h.bookings.GetBooking(r.Context(), tenantID, bookingID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	RespondWithJSON(w, http.StatusOK, booking)
}

// DELETE /api/v1/tenants/{tenantID}/bookings/{bookingID}
func (h *Handler) DeleteBooking(w http.ResponseWriter, r *http.Request) {
	tenantID, bookingID, err := bookingPath(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if err := h.bookings.DeleteBooking(r.Context(), tenantID, bookingID, callerID(r)); err != nil {
		h.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// POST /api/v1/tenants/{tenantID}/bookings/{bookingID}/transitions/{action}
func (h *Handler) TransitionBooking(w http.ResponseWriter, r *http.Request) {
	tenantID, bookingID, err := bookingPath(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	var payload domain.TransitionPayload
	if err := decodeJSON(r, &payload, true); err != nil {
		h.respondError(w, r, err)
		return
	}

	result, err := h.bookings.Transition(r.Context(), domain.BookingTransitionCommand{
		TenantID:  tenantID,
		BookingID: bookingID,
		UserID:    callerID(r),
		Action:    domain.BookingAction(strings.ToLower(mux.Vars(r)["action"])),
		Payload:   payload,
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	RespondWithJSON(w, http.StatusOK, result)
}

func bookingPath(r *http.Request) (tenantID, bookingID uuid.UUID, err error) {
	if tenantID, err = pathUUID(r, "tenantID"); err != nil {
		return
	}
	bookingID, err = pathUUID(r, "bookingID")
	return
}
