package http

import (
	"net/http"
	"path"
	"strings"

	"rentflow-backend/internal/logger"
	"rentflow-backend/internal/storage"
)

// DownloadFile serves a generated document from object storage.
// GET /files/{key...}
func (h *Handler) DownloadFile(w http.ResponseWriter, r *http.Request) {
	key := strings.TrimPrefix(r.URL.Path, storage.FilesPath)
	if key == "" || strings.Contains(key, "..") {
		h.respondError(w, r, &AppError{StatusCode: http.StatusBadRequest, Code: ErrCodeInvalidPayload, Message: "Invalid file key"})
		return
	}

	data, err := h.files.Get(r.Context(), key)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	// Determine content type from file extension
	contentType := "application/octet-stream"
	switch path.Ext(key) {
	case ".pdf":
		contentType = "application/pdf"
	case ".json":
		contentType = "application/json"
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "private, max-age=300")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		logger.Warn("Failed to write file response", "key", key, "error", err)
	}
}
