package utils

import (
	"image"

	"golang.design/x/clipboard"
)

// CopyImage places img on the system clipboard as a PNG.
func CopyImage(img image.Image) error {
	err := clipboard.Init()
	if err != nil {
		return err
	}

	// encode image to byte slice
	b, err := EncodePNG(img)
	if err != nil {
		return err
	}

	clipboard.Write(clipboard.FmtImage, b)
	return nil
}
