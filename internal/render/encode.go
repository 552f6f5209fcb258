package render

import (
	"bytes"
	"image"

	"github.com/disintegration/imaging"
)

// PNG encodes img as PNG.
func PNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Save writes img to path; the format follows the file extension.
func Save(img image.Image, path string) error {
	return imaging.Save(img, path)
}
