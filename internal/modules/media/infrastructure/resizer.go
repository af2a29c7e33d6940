package infrastructure

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"io"

	_ "image/gif"
	_ "image/png"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"toursApi/internal/modules/media/domain"
)

// ImageResizer crops to the target aspect ratio around the centre, scales
// and encodes JPEG.
type ImageResizer struct {
	scaler draw.Scaler
}

func NewImageResizer() *ImageResizer {
	return &ImageResizer{scaler: draw.CatmullRom}
}

func (r *ImageResizer) Resize(src io.Reader, spec domain.Spec) ([]byte, error) {
	img, _, err := image.Decode(src)
	if err != nil {
		if errors.Is(err, image.ErrFormat) {
			return nil, domain.ErrNotImage
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrNotImage, err)
	}

	crop := coverRect(img.Bounds(), spec.Width, spec.Height)
	dst := image.NewRGBA(image.Rect(0, 0, spec.Width, spec.Height))
	r.scaler.Scale(dst, dst.Bounds(), img, crop, draw.Src, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: spec.Quality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// coverRect returns the largest centred sub-rectangle of b with the
// aspect ratio w:h.
func coverRect(b image.Rectangle, w, h int) image.Rectangle {
	srcW, srcH := b.Dx(), b.Dy()
	if srcW == 0 || srcH == 0 || w <= 0 || h <= 0 {
		return b
	}
	// srcW/srcH > w/h: too wide, trim the sides.
	if srcW*h > srcH*w {
		cropW := srcH * w / h
		x0 := b.Min.X + (srcW-cropW)/2
		return image.Rect(x0, b.Min.Y, x0+cropW, b.Max.Y)
	}
	cropH := srcW * h / w
	y0 := b.Min.Y + (srcH-cropH)/2
	return image.Rect(b.Min.X, y0, b.Max.X, y0+cropH)
}
