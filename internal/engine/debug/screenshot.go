package debug

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"

	"github.com/Faultbox/lightsched/internal/engine/shadow"
)

// SaveAtlasPNG writes the occupancy image of a to path.
func SaveAtlasPNG(a *shadow.Atlas, path string, pixelsPerTile int) error {
	return SavePNG(RenderAtlas(a, pixelsPerTile), path)
}

// SavePNG encodes img to path, creating parent directories.
func SavePNG(img image.Image, path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating output dir: %w", err)
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating file: %w", err)
	}
	defer file.Close()

	if err := png.Encode(file, img); err != nil {
		return fmt.Errorf("encoding PNG: %w", err)
	}
	return file.Close()
}

// DepthImage converts a size×size depth readback of the atlas texture to a
// grayscale image, near depths dark. The image is flipped vertically since
// OpenGL has its origin at bottom-left.
func DepthImage(depth []float32, size int) (*image.Gray, error) {
	if len(depth) != size*size {
		return nil, fmt.Errorf("depth data size mismatch: expected %d, got %d", size*size, len(depth))
	}

	img := image.NewGray(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		row := depth[(size-1-y)*size : (size-y)*size]
		for x, d := range row {
			d = min(max(d, 0), 1)
			img.SetGray(x, y, color.Gray{Y: uint8(d * 255)})
		}
	}
	return img, nil
}
