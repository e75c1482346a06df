package ai

import (
	"bytes"
	"fmt"
	"io"

	"github.com/disintegration/imaging"
)

// MaxImageSide bounds the longer side of images sent to the model.
const MaxImageSide = 1024

// PrepareImage decodes an upload, fits it inside MaxImageSide² and
// re-encodes it as JPEG. The returned MIME type is always image/jpeg.
func PrepareImage(r io.Reader) ([]byte, string, error) {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode image: %w", err)
	}

	b := img.Bounds()
	if b.Dx() > MaxImageSide || b.Dy() > MaxImageSide {
		img = imaging.Fit(img, MaxImageSide, MaxImageSide, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(85)); err != nil {
		return nil, "", fmt.Errorf("failed to encode image: %w", err)
	}
	return buf.Bytes(), "image/jpeg", nil
}
