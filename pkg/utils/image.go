package utils

import (
	"bytes"
	"image"
	"image/png"
	"os"
)

// EncodePNG returns img encoded as a PNG.
func EncodePNG(img image.Image) ([]byte, error) {
	var b bytes.Buffer
	if err := png.Encode(&b, img); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}

// WritePNG writes img to filename as a PNG.
func WritePNG(filename string, img image.Image) error {
	b, err := EncodePNG(img)
	if err != nil {
		return err
	}
	return os.WriteFile(filename, b, 0644)
}
