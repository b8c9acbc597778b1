package imaging

import (
	"bytes"
	"image"
	"image/jpeg"
	"image/png"
	"testing"
)

func pngImage(t *testing.T, w, h int) []byte {
	t.Helper()
	buf := &bytes.Buffer{}
	if err := png.Encode(buf, image.NewRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatalf("failed to encode png: %v", err)
	}
	return buf.Bytes()
}

func TestDownscale_LargeImage(t *testing.T) {
	data := pngImage(t, 1200, 900)

	out, err := Downscale(data, 600, 600)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	img, err := jpeg.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("output is not a jpeg: %v", err)
	}
	b := img.Bounds()
	if b.Dx() > 600 || b.Dy() > 600 {
		t.Errorf("expected fit inside 600x600, got %dx%d", b.Dx(), b.Dy())
	}
	// Aspect ratio preserved: 1200x900 scales to 600x450.
	if b.Dx() != 600 || b.Dy() != 450 {
		t.Errorf("expected 600x450, got %dx%d", b.Dx(), b.Dy())
	}
}

func TestDownscale_SmallJPEGUntouched(t *testing.T) {
	buf := &bytes.Buffer{}
	if err := jpeg.Encode(buf, image.NewRGBA(image.Rect(0, 0, 100, 80)), nil); err != nil {
		t.Fatalf("failed to encode jpeg: %v", err)
	}
	data := buf.Bytes()

	out, err := Downscale(data, 600, 600)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Equal(out, data) {
		t.Error("expected small jpeg to pass through unchanged")
	}
}

func TestDownscale_Garbage(t *testing.T) {
	if _, err := Downscale([]byte("not an image"), 600, 600); err == nil {
		t.Error("expected error for undecodable input")
	}
}
