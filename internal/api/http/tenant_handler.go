package http

import (
	"net/http"

	"rentflow-backend/internal/domain"
)

// POST /api/v1/tenants
func (h *Handler) CreateTenant(w http.ResponseWriter, r *http.Request) {
	var cmd domain.CreateTenantCommand
	if err := decodeJSON(r, &cmd, false); err != nil {
		h.respondError(w, r, err)
		return
	}
	tenant, err := h.tenants.CreateTenant(r.Context(), cmd)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	RespondWithJSON(w, http.StatusCreated, tenant)
}

// GET /api/v1/tenants/{tenantID}
func (h *Handler) GetTenant(w http.ResponseWriter, r *http.Request) {
	tenantID, err := pathUUID(r, "tenantID")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	tenant, err := h.tenants.GetTenant(r.Context(), tenantID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	RespondWithJSON(w, http.StatusOK, tenant)
}

// GET /api/v1/tenants/{tenantID}/notifications?page=1&page_size=20
func (h *Handler) GetNotifications(w http.ResponseWriter, r *http.Request) {
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
	notes, total, err := h.notifications.GetNotifications(r.Context(), tenantID, page, pageSize)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	RespondWithJSON(w, http.StatusOK, PagedResponse[domain.Notification]{Items: notes, Total: total})
}

// POST /api/v1/tenants/{tenantID}/notifications/{id}/read
func (h *Handler) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
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
	if err := h.notifications.MarkAsRead(r.Context(), tenantID, id); err != nil {
		h.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
