package port

import (
	"context"
	"io"

	"toursApi/internal/modules/media/domain"
)

// ObjectStorage persists processed images.
type ObjectStorage interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
}

// Resizer decodes an image, crops it to cover spec and encodes it as JPEG.
type Resizer interface {
	Resize(r io.Reader, spec domain.Spec) ([]byte, error)
}
