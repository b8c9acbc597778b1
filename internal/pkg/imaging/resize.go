// Package imaging downscales images before moderation so every check
// stays within the service's media size limits.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"

	"github.com/nfnt/resize"
)

// Downscale fits an image inside maxWidth x maxHeight, preserving
// aspect ratio, and re-encodes it as JPEG. Images already within
// bounds are returned re-encoded only when they were not JPEG to
// begin with. Callers treat any error as non-fatal and moderate the
// original bytes.
func Downscale(data []byte, maxWidth, maxHeight uint) ([]byte, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := img.Bounds()
	if uint(bounds.Dx()) <= maxWidth && uint(bounds.Dy()) <= maxHeight {
		if format == "jpeg" {
			return data, nil
		}
		return encodeJPEG(img)
	}

	return encodeJPEG(resize.Thumbnail(maxWidth, maxHeight, img, resize.Lanczos3))
}

func encodeJPEG(img image.Image) ([]byte, error) {
	buf := &bytes.Buffer{}
	if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: 85}); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return buf.Bytes(), nil
}
