package utils

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
)

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestNormalizeEvidencePhotoDownscales(t *testing.T) {
	out, err := NormalizeEvidencePhoto(bytes.NewReader(encodePNG(t, 2560, 640)))
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	img, err := imaging.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("decode output: %v", err)
	}
	b := img.Bounds()
	if b.Dx() != 1280 || b.Dy() != 320 {
		t.Fatalf("unexpected size %dx%d", b.Dx(), b.Dy())
	}
}

func TestNormalizeEvidencePhotoKeepsSmallImages(t *testing.T) {
	out, err := NormalizeEvidencePhoto(bytes.NewReader(encodePNG(t, 300, 200)))
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	img, err := imaging.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 300 || b.Dy() != 200 {
		t.Fatalf("small image resized to %dx%d", b.Dx(), b.Dy())
	}
}

func TestNormalizeEvidencePhotoRejects(t *testing.T) {
	if _, err := NormalizeEvidencePhoto(strings.NewReader("not an image at all")); err == nil || !IsValidationError(err) {
		t.Fatalf("expected validation error for text, got %v", err)
	}
	big := bytes.Repeat([]byte{0xFF}, int(MaxPhotoSizeBytes)+10)
	if _, err := NormalizeEvidencePhoto(bytes.NewReader(big)); err == nil || !IsValidationError(err) {
		t.Fatalf("expected validation error for oversize, got %v", err)
	}
}
