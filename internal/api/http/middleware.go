package http

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"rentflow-backend/internal/config"
	"rentflow-backend/internal/logger"
	"rentflow-backend/internal/security"
	"rentflow-backend/internal/service"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// UserIDHeader carries the caller identity set by the upstream gateway.
const UserIDHeader = "X-User-ID"

type ctxKey string

const ctxKeyUserID ctxKey = "userID"

// UserIDFromContext returns the caller identity the identify middleware
// stored.
func UserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(ctxKeyUserID).(uuid.UUID)
	return id, ok
}

// identify resolves the caller and enforces the route's security level.
// With a token manager only bearer tokens are accepted; without one the
// caller comes from UserIDHeader.
func (h *Handler) identify(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		level := config.SecurityIdentified
		if route := mux.CurrentRoute(r); route != nil {
			if tpl, err := route.GetPathTemplate(); err == nil {
				level = config.SecurityFor(r.Method, tpl)
			}
		}

		userID, present, err := h.caller(r)
		if err != nil {
			h.respondError(w, r, err)
			return
		}
		if !present {
			if level == config.SecurityPublic {
				next.ServeHTTP(w, r)
				return
			}
			msg := "Missing " + UserIDHeader + " header"
			if h.tokens != nil {
				msg = "Missing bearer token"
			}
			h.respondError(w, r, &AppError{StatusCode: http.StatusUnauthorized, Code: ErrCodeUnauthorized, Message: msg})
			return
		}

		ctx := context.WithValue(r.Context(), ctxKeyUserID, userID)
		ctx = logger.NewContext(ctx, logger.FromContext(ctx).With("user_id", userID))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// caller reports the identity on r and whether one was presented at all.
func (h *Handler) caller(r *http.Request) (uuid.UUID, bool, error) {
	if h.tokens != nil {
		bearer, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok {
			return uuid.Nil, false, nil
		}
		claims, err := h.tokens.ValidateToken(bearer)
		if err != nil {
			msg := "Invalid token"
			if errors.Is(err, security.ErrExpiredToken) {
				msg = "Token has expired"
			}
			return uuid.Nil, true, &AppError{StatusCode: http.StatusUnauthorized, Code: ErrCodeUnauthorized, Message: msg, Err: err}
		}
		if claims.Type == security.TokenTypeService {
			return service.SystemUserID, true, nil
		}
		return claims.UserID, true, nil
	}

	raw := r.Header.Get(UserIDHeader)
	if raw == "" {
		return uuid.Nil, false, nil
	}
	userID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, true, &AppError{StatusCode: http.StatusBadRequest, Code: ErrCodeInvalidPayload, Message: "Invalid " + UserIDHeader + " header", Err: err}
	}
	return userID, true, nil
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// RequestIDHeader is echoed back, or generated when the caller sent none.
const RequestIDHeader = "X-Request-ID"

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := r.Header.Get(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, requestID)

		log := logger.Get().With("request_id", requestID)
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r.WithContext(logger.NewContext(r.Context(), log)))
		log.Debug("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start))
	})
}
