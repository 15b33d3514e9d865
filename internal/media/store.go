// Package media stores uploaded cover images.
//
// Files are addressed by an opaque key such as "covers/<uuid>.png". The key
// is what the books table stores; the backend decides where the bytes live.
package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

// CoverPrefix is the key namespace for book covers.
const CoverPrefix = "covers/"

var (
	ErrNotFound   = errors.New("media file not found")
	ErrInvalidKey = errors.New("invalid media key")
)

// FileInfo describes a stored file.
type FileInfo struct {
	Key         string
	Size        int64
	ContentType string
	ModifiedAt  time.Time
}

// Store defines the operations every media backend provides.
type Store interface {
	// Save writes r under key, replacing any existing file.
	Save(ctx context.Context, key string, r io.Reader, size int64, contentType string) error

	// Open returns the content of key. Callers must close the reader.
	Open(ctx context.Context, key string) (io.ReadCloser, *FileInfo, error)

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// List returns every file whose key starts with prefix.
	List(ctx context.Context, prefix string) ([]FileInfo, error)
}

// NewCoverKey returns a fresh key for a cover with the given extension.
func NewCoverKey(ext string) string {
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return CoverPrefix + uuid.NewString() + strings.ToLower(ext)
}

// ValidKey reports whether key is a clean relative path inside the media namespace.
func ValidKey(key string) bool {
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, "\\") {
		return false
	}
	if path.Clean(key) != key {
		return false
	}
	for _, seg := range strings.Split(key, "/") {
		if seg == ".." || seg == "." || seg == "" {
			return false
		}
	}
	return strings.HasPrefix(key, CoverPrefix)
}

// SaveUpload stores a multipart upload under a new cover key and returns the key.
func SaveUpload(ctx context.Context, store Store, fh *multipart.FileHeader, ext, contentType string) (string, error) {
	file, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer file.Close()

	key := NewCoverKey(ext)
	if err := store.Save(ctx, key, file, fh.Size, contentType); err != nil {
		return "", err
	}
	return key, nil
}
