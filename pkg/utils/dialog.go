//go:build !test

package utils

import (
	"image"
	"strings"

	"github.com/sqweek/dialog"
)

// AskForFile shows a native file picker for opening a file.
func AskForFile(title, startingDir string, filters ...string) (string, error) {
	builder := dialog.File().SetStartDir(startingDir).Title(title)
	for i := 0; i+1 < len(filters); i += 2 {
		builder = builder.Filter(filters[i], filters[i+1])
	}

	// show the dialog
	return builder.Load()
}

// AskForSave shows a native file picker for saving a file.
func AskForSave(title, startingDir string, filters ...string) (string, error) {
	builder := dialog.File().SetStartDir(startingDir).Title(title)
	for i := 0; i+1 < len(filters); i += 2 {
		builder = builder.Filter(filters[i], filters[i+1])
	}
	return builder.Save()
}

// SaveImage asks the user where to save img, and writes it
// there as a PNG.
func SaveImage(img image.Image) error {
	// ask user where to save the image
	filename, err := AskForSave("Save Image", ".", "PNG Image", "png")
	if err != nil {
		return err
	}

	// does file have a .png extension?
	if !strings.HasSuffix(strings.ToLower(filename), ".png") {
		filename += ".png"
	}
	return WritePNG(filename, img)
}

// IsCancelled reports whether err is the user dismissing a
// dialog.
func IsCancelled(err error) bool {
	return err == dialog.ErrCancelled
}
