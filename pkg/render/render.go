// Package render writes intensity buffers back out as image files so subset
// fills can be inspected visually. It is pure export glue: no sampling logic
// lives here.
package render

import (
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"

	"golang.org/x/image/tiff"
	"gonum.org/v1/gonum/floats"

	"github.com/ChrisFinfrock/dice/internal/models"
	"github.com/ChrisFinfrock/dice/pkg/raster"
)

// WriteTIFF encodes a dense row-major intensity buffer as a 16-bit grayscale
// TIFF. Intensities are rescaled so the buffer's minimum maps to black and
// its maximum to white. Failures wrap raster.ErrIO.
func WriteTIFF(path string, data []float64, width, height int) error {
	if len(data) != width*height {
		return fmt.Errorf("intensity buffer has %d samples, expected %d", len(data), width*height)
	}

	img := image.NewGray16(image.Rect(0, 0, width, height))
	lo, hi := floats.Min(data), floats.Max(data)
	scale := 0.0
	if hi > lo {
		scale = 65535.0 / (hi - lo)
	}
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			v := uint16((data[y*width+x] - lo) * scale)
			img.SetGray16(x, y, color.Gray16{Y: v})
		}
	}

	return encode(path, img)
}

// WritePoints encodes a sparse set of sampled points as a TIFF covering their
// bounding box. Pixels not present in the set stay black, so point-list
// subsets render with their true shape.
func WritePoints(path string, pts []models.SamplePoint) error {
	minX, minY, maxX, maxY, ok := models.Bounds(pts)
	if !ok {
		return fmt.Errorf("no sample points to render")
	}
	width := maxX - minX + 1
	height := maxY - minY + 1

	vals := make([]float64, len(pts))
	for i, p := range pts {
		vals[i] = p.Intensity
	}
	lo, hi := floats.Min(vals), floats.Max(vals)
	scale := 0.0
	if hi > lo {
		scale = 65535.0 / (hi - lo)
	}

	img := image.NewGray16(image.Rect(0, 0, width, height))
	for _, p := range pts {
		v := uint16((p.Intensity - lo) * scale)
		img.SetGray16(p.X-minX, p.Y-minY, color.Gray16{Y: v})
	}

	return encode(path, img)
}

func encode(path string, img image.Image) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("%w: failed to create output directory %s: %v", raster.ErrIO, dir, err)
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: failed to create %s: %v", raster.ErrIO, path, err)
	}
	defer file.Close()

	opts := &tiff.Options{Compression: tiff.Deflate, Predictor: true}
	if err := tiff.Encode(file, img, opts); err != nil {
		return fmt.Errorf("%w: failed to encode %s: %v", raster.ErrIO, path, err)
	}
	return nil
}
