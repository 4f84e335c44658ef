// internal/core/ports/storage.go
package ports

import (
	"context"
	"io"
)

// ImageStore stores listing photos and returns their public URL
type ImageStore interface {
	Upload(ctx context.Context, key string, body io.Reader, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
}
