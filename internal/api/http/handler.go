package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"rentflow-backend/internal/security"
	"rentflow-backend/internal/service"
	"rentflow-backend/internal/storage"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// maxBodyBytes bounds every JSON request body.
const maxBodyBytes = 1 << 20

// Handler exposes the services over JSON/HTTP.
type Handler struct {
	tenants       service.TenantService
	bookings      service.BookingService
	ledger        service.LedgerService
	documents     service.DocumentService
	notifications service.NotificationService
	files         storage.ObjectStorage
	tokens        security.TokenManager
	exposeDetails bool
}

type Services struct {
	Tenants       service.TenantService
	Bookings      service.BookingService
	Ledger        service.LedgerService
	Documents     service.DocumentService
	Notifications service.NotificationService
}

// NewHandler builds the API handler. files may be nil when generated
// documents are served from elsewhere. exposeDetails adds internal error
// text to error responses and must be off in production.
func NewHandler(services Services, files storage.ObjectStorage, exposeDetails bool) *Handler {
	return &Handler{
		tenants:       services.Tenants,
		bookings:      services.Bookings,
		ledger:        services.Ledger,
		documents:     services.Documents,
		notifications: services.Notifications,
		files:         files,
		exposeDetails: exposeDetails,
	}
}

// WithTokens enables bearer token identity.
func (h *Handler) WithTokens(tokens security.TokenManager) *Handler {
	h.tokens = tokens
	return h
}

func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	raw := mux.Vars(r)[name]
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, &AppError{StatusCode: http.StatusBadRequest, Code: ErrCodeInvalidPayload, Message: "Invalid " + name, Field: name, Err: err}
	}
	return id, nil
}

// decodeJSON decodes the request body into dst. An empty body is accepted
// when allowEmpty is set.
func decodeJSON(r *http.Request, dst any, allowEmpty bool) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if allowEmpty && errors.Is(err, io.EOF) {
			return nil
		}
		return &AppError{StatusCode: http.StatusBadRequest, Code: ErrCodeInvalidPayload, Message: "Invalid JSON payload", Err: err}
	}
	return nil
}

func callerID(r *http.Request) uuid.UUID {
	id, _ := UserIDFromContext(r.Context())
	return id
}

func queryInt32(r *http.Request, name string) (int32, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(raw, 10, 32)
	if err != nil {
		return 0, &AppError{StatusCode: http.StatusBadRequest, Code: ErrCodeInvalidPayload, Message: "Invalid " + name, Field: name, Err: err}
	}
	return int32(n), nil
}

// PagedResponse wraps a page of results with the total count.
type PagedResponse[T any] struct {
	Items []T   `json:"items"`
	Total int32 `json:"total"`
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	RespondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
