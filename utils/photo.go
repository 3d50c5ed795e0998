package utils

import (
	"bytes"
	"errors"
	"io"
	"net/http"

	"github.com/disintegration/imaging"
)

const (
	MaxPhotoSizeBytes int64 = 5 * 1024 * 1024
	photoMaxEdge            = 1280
)

var photoMimeTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
}

// NormalizeEvidencePhoto checks type and size, fits the image into
// 1280x1280 and re-encodes it as JPEG.
func NormalizeEvidencePhoto(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxPhotoSizeBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > MaxPhotoSizeBytes {
		return nil, NewValidationError("file size exceeds 5MB limit")
	}
	if len(data) == 0 {
		return nil, NewValidationError("photo is empty")
	}
	if !photoMimeTypes[http.DetectContentType(data)] {
		return nil, NewValidationError("unsupported image type")
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, errors.Join(NewValidationError("invalid image"), err)
	}
	img = imaging.Fit(img, photoMaxEdge, photoMaxEdge, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(85)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
