// Package storage keeps uploaded files behind a small key/value interface so
// the upload service does not care whether bytes land on disk or in a bucket.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
)

var (
	ErrNotFound   = errors.New("object not found")
	ErrInvalidKey = errors.New("invalid object key")
)

type Object struct {
	Body        io.ReadCloser
	Size        int64
	ContentType string
}

type Storage interface {
	Save(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	Open(ctx context.Context, key string) (*Object, error)
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// CleanKey rejects keys that are absolute or climb out of the storage root.
func CleanKey(key string) (string, error) {
	if key == "" || strings.ContainsRune(key, '\\') || strings.HasPrefix(key, "/") {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	cleaned := path.Clean(key)
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return cleaned, nil
}
