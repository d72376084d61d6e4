package http

import (
	"net/http"

	"rentflow-backend/internal/storage"

	"github.com/gorilla/mux"
)

// NewRouter registers every API route on a new router.
func NewRouter(h *Handler) *mux.Router {
	r := mux.NewRouter()
	r.Use(logRequests, h.identify)

	r.HandleFunc("/healthz", h.Health).Methods(http.MethodGet)

	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/tenants", h.CreateTenant).Methods(http.MethodPost)
	api.HandleFunc("/tenants/{tenantID}", h.GetTenant).Methods(http.MethodGet)

	t := api.PathPrefix("/tenants/{tenantID}").Subrouter()

	// Bookings
	t.HandleFunc("/bookings", h.CreateBooking).Methods(http.MethodPost)
	t.HandleFunc("/bookings", h.ListBookings).Methods(http.MethodGet)
	t.HandleFunc("/bookings/{bookingID}", h.GetBooking).Methods(http.MethodGet)
	t.HandleFunc("/bookings/{bookingID}", h.DeleteBooking).Methods(http.MethodDelete)
	t.HandleFunc("/bookings/{bookingID}/transitions/{action}", h.TransitionBooking).Methods(http.MethodPost)

	// Documents
	t.HandleFunc("/bookings/{bookingID}/invoice", h.GenerateInvoice).Methods(http.MethodPost)
	t.HandleFunc("/bookings/{bookingID}/agreement", h.GenerateAgreement).Methods(http.MethodPost)
	t.HandleFunc("/bookings/{bookingID}/agreement/signature", h.RequestAgreementSignature).Methods(http.MethodPost)

	// Ledger
	t.HandleFunc("/payments", h.RecordPayment).Methods(http.MethodPost)
	t.HandleFunc("/payments/{id}", h.UpdatePayment).Methods(http.MethodPut)
	t.HandleFunc("/payments/{id}", h.DeletePayment).Methods(http.MethodDelete)
	t.HandleFunc("/refunds", h.RecordRefund).Methods(http.MethodPost)
	t.HandleFunc("/refunds/{id}", h.UpdateRefund).Methods(http.MethodPut)
	t.HandleFunc("/refunds/{id}", h.DeleteRefund).Methods(http.MethodDelete)
	t.HandleFunc("/expenses", h.RecordExpense).Methods(http.MethodPost)
	t.HandleFunc("/expenses/{id}", h.UpdateExpense).Methods(http.MethodPut)
	t.HandleFunc("/expenses/{id}", h.DeleteExpense).Methods(http.MethodDelete)
	t.HandleFunc("/transactions", h.GetTransactions).Methods(http.MethodGet)
	t.HandleFunc("/balance", h.GetBalance).Methods(http.MethodGet)

	// Notifications
	t.HandleFunc("/notifications", h.GetNotifications).Methods(http.MethodGet)
	t.HandleFunc("/notifications/{id}/read", h.MarkNotificationRead).Methods(http.MethodPost)

	if h.files != nil {
		r.PathPrefix(storage.FilesPath).HandlerFunc(h.DownloadFile).Methods(http.MethodGet)
	}
	return r
}
