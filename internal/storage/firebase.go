package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	"rentflow-backend/internal/domain"
	"rentflow-backend/internal/logger"

	gcs "cloud.google.com/go/storage"
	firebase "firebase.google.com/go/v4"
)

// FirebaseStorage stores objects in the Cloud Storage bucket of a Firebase app.
type FirebaseStorage struct {
	bucket     *gcs.BucketHandle
	bucketName string
}

func NewFirebaseStorage(ctx context.Context, app *firebase.App, bucketName string) (*FirebaseStorage, error) {
	client, err := app.Storage(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create firebase storage client: %w", err)
	}
	var bucket *gcs.BucketHandle
	if bucketName == "" {
		bucket, err = client.DefaultBucket()
	} else {
		bucket, err = client.Bucket(bucketName)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open bucket: %w", err)
	}
	return &FirebaseStorage{bucket: bucket, bucketName: bucket.BucketName()}, nil
}

func (s *FirebaseStorage) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	logger.ExternalServiceCall("firebase-storage", "Put", "bucket", s.bucketName, "key", key, "size", len(data))
	w := s.bucket.Object(key).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		logger.ExternalServiceResult("firebase-storage", "Put", err, "key", key)
		return "", fmt.Errorf("%w: %v", domain.ErrStorageFailure, err)
	}
	if err := w.Close(); err != nil {
		logger.ExternalServiceResult("firebase-storage", "Put", err, "key", key)
		return "", fmt.Errorf("%w: %v", domain.ErrStorageFailure, err)
	}
	logger.ExternalServiceResult("firebase-storage", "Put", nil, "key", key)
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", s.bucketName, key), nil
}

func (s *FirebaseStorage) Get(ctx context.Context, key string) ([]byte, error) {
	logger.ExternalServiceCall("firebase-storage", "Get", "bucket", s.bucketName, "key", key)
	r, err := s.bucket.Object(key).NewReader(ctx)
	if errors.Is(err, gcs.ErrObjectNotExist) {
		return nil, domain.NotFoundError("object", key)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStorageFailure, err)
	}
	defer r.Close()
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStorageFailure, err)
	}
	return data, nil
}
