package views

import (
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestFrameTimes(t *testing.T) {
	tests := []struct {
		name    string
		samples []time.Duration
		target  time.Duration
	}{
		{"empty", nil, 0},
		{"with target", []time.Duration{16 * time.Millisecond, 17 * time.Millisecond, 20 * time.Millisecond}, 16639263},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := FrameTimes(tt.samples, tt.target)
			if err != nil {
				t.Fatal(err)
			}
			if p.Title.Text != "Frame Time" {
				t.Errorf("title = %q", p.Title.Text)
			}
			img, err := RenderFrameTimes(tt.samples, tt.target)
			if err != nil {
				t.Fatal(err)
			}
			if b := img.Bounds(); b.Dx() != Width || b.Dy() != Height {
				t.Errorf("image size = %v", b)
			}
		})
	}
}

func TestWriteFrameTimes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "frames.png")
	if err := WriteFrameTimes(path, []time.Duration{time.Millisecond, 2 * time.Millisecond}, time.Millisecond); err != nil {
		t.Fatal(err)
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	cfg, err := png.DecodeConfig(f)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Width != Width || cfg.Height != Height {
		t.Errorf("png is %dx%d", cfg.Width, cfg.Height)
	}
}
