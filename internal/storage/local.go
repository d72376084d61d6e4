package storage

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"rentflow-backend/internal/domain"
	"rentflow-backend/internal/logger"
)

// LocalStorage keeps objects on the local filesystem. It is used in
// development and tests; the API serves its objects under FilesPath.
type LocalStorage struct {
	baseURL string // Server URL (e.g., "http://localhost:8080")
	rootDir string
}

// FilesPath is the route prefix LocalStorage URLs point at.
const FilesPath = "/files/"

func NewLocalStorage(baseURL, rootDir string) (*LocalStorage, error) {
	if err := os.MkdirAll(rootDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &LocalStorage{baseURL: strings.TrimRight(baseURL, "/"), rootDir: rootDir}, nil
}

func (s *LocalStorage) path(key string) (string, error) {
	clean := filepath.Clean("/" + key)
	if clean == "/" {
		return "", domain.NewValidationError("key", "empty storage key")
	}
	return filepath.Join(s.rootDir, clean), nil
}

func (s *LocalStorage) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	logger.ExternalServiceCall("local-storage", "Put", "key", key, "size", len(data))
	fullPath, err := s.path(key)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return "", fmt.Errorf("%w: failed to create directories: %v", domain.ErrStorageFailure, err)
	}
	// Write to a temp file first so readers never see a partial object.
	tmp := fullPath + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return "", fmt.Errorf("%w: failed to write file: %v", domain.ErrStorageFailure, err)
	}
	if err := os.Rename(tmp, fullPath); err != nil {
		return "", fmt.Errorf("%w: failed to move file: %v", domain.ErrStorageFailure, err)
	}
	logger.ExternalServiceResult("local-storage", "Put", nil, "key", key)
	return s.baseURL + FilesPath + (&url.URL{Path: strings.TrimPrefix(key, "/")}).EscapedPath(), nil
}

func (s *LocalStorage) Get(ctx context.Context, key string) ([]byte, error) {
	fullPath, err := s.path(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(fullPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, domain.NotFoundError("object", key)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read file: %v", domain.ErrStorageFailure, err)
	}
	return data, nil
}
