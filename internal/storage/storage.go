// Package storage keeps uploaded files outside the database. Records only
// hold the object key.
package storage

import (
	"context"
	"errors"
	"io"
	"net/http"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("storage: object not found")

type Object struct {
	Body        io.ReadCloser
	ContentType string
	Size        int64
}

type Store interface {
	Put(ctx context.Context, key string, body io.ReadSeeker, size int64, contentType string) error
	Get(ctx context.Context, key string) (*Object, error)
	Delete(ctx context.Context, key string) error
}

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// DetectImage sniffs the first bytes of data and returns its content type
// and canonical extension. ok is false for anything but a supported image.
func DetectImage(data []byte) (contentType, ext string, ok bool) {
	contentType = http.DetectContentType(data)
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		contentType = contentType[:i]
	}
	ext, ok = imageExtensions[contentType]
	return contentType, ext, ok
}

// NewKey returns prefix/<uuid><ext>. The extension of filename is used when
// ext is empty.
func NewKey(prefix, filename, ext string) string {
	if ext == "" {
		ext = strings.ToLower(filepath.Ext(filename))
	}
	return path.Join(prefix, uuid.NewString()+ext)
}
