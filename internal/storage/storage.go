package storage

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
)

// ObjectStorage is durable storage for generated documents.
type ObjectStorage interface {
	// Put writes data under key, replacing any previous object, and returns
	// the URL the object is served from.
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
	// Get reads the object stored under key.
	Get(ctx context.Context, key string) ([]byte, error)
}

// Config holds storage configuration
type Config struct {
	Type     string // "local" or "firebase"
	LocalDir string // Directory for local storage
	BaseURL  string // Server base URL for local object URLs
	Bucket   string // Firebase/GCS bucket; empty uses the app default
}

// InvoiceKey is where an invoice PDF lives.
func InvoiceKey(tenantID fmt.Stringer, number string) string {
	return fmt.Sprintf("%s/invoices/%s.pdf", tenantID, number)
}

// AgreementKey is where an agreement PDF lives.
func AgreementKey(tenantID fmt.Stringer, number string) string {
	return fmt.Sprintf("%s/agreements/%s.pdf", tenantID, number)
}

// SignableAgreementKey is where the copy sent for signature lives.
func SignableAgreementKey(tenantID fmt.Stringer, number string) string {
	return fmt.Sprintf("%s/agreements/%s_signable.pdf", tenantID, number)
}

// New builds the storage backend cfg selects. app is only needed for
// firebase storage.
func New(ctx context.Context, cfg Config, app *firebase.App) (ObjectStorage, error) {
	switch cfg.Type {
	case "", "local":
		return NewLocalStorage(cfg.BaseURL, cfg.LocalDir)
	case "firebase":
		if app == nil {
			return nil, fmt.Errorf("firebase storage requires a firebase app")
		}
		return NewFirebaseStorage(ctx, app, cfg.Bucket)
	}
	return nil, fmt.Errorf("unsupported storage type: %s", cfg.Type)
}
