// Package raster provides the intensity grid used as the reference and
// deformed frames in digital image correlation. An Image is immutable after
// construction and supports exact lookup at integer pixel coordinates as well
// as subpixel sampling through a pluggable interpolation scheme.
package raster

import (
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"os"

	_ "golang.org/x/image/tiff"

	"gonum.org/v1/gonum/mat"
)

// Error kinds reported by this package. Callers match them with errors.Is.
var (
	// ErrBounds indicates a sampled coordinate outside the image extent.
	ErrBounds = errors.New("coordinate outside image bounds")

	// ErrIO indicates a failure loading or decoding an image file.
	ErrIO = errors.New("image i/o failure")
)

// Image is a rectangular grid of intensity samples, read-only after
// construction. Intensities are stored as float64 in the [0,1] range when
// loaded from a file; programmatic construction may use any range.
//
// An Image may be shared freely between goroutines: no method mutates it.
type Image struct {
	// data holds the samples with one matrix row per image row,
	// so data.At(y, x) is the sample at pixel (x, y)
	data   *mat.Dense
	width  int
	height int
	interp Interpolator
}

// NewImage constructs an image from a row-major intensity buffer.
// The buffer length must equal width*height.
func NewImage(width, height int, data []float64) (*Image, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("image dimensions must be positive, got %dx%d", width, height)
	}
	if len(data) != width*height {
		return nil, fmt.Errorf("intensity buffer has %d samples, expected %d", len(data), width*height)
	}
	buf := make([]float64, len(data))
	copy(buf, data)
	return &Image{
		data:   mat.NewDense(height, width, buf),
		width:  width,
		height: height,
		interp: Bilinear{},
	}, nil
}

// FromImage converts a decoded image to an intensity grid. Intensity is taken
// from the red channel of the 16-bit color representation and normalized to
// the [0,1] range, which is exact for grayscale sources.
func FromImage(img image.Image) (*Image, error) {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	data := make([]float64, width*height)

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r, _, _, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			data[y*width+x] = float64(r) / 65535.0
		}
	}

	return NewImage(width, height, data)
}

// Load reads and decodes an image file (TIFF, PNG or JPEG) into an intensity
// grid. Failures wrap ErrIO.
func Load(path string) (*Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open %s: %v", ErrIO, path, err)
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to decode %s: %v", ErrIO, path, err)
	}

	out, err := FromImage(img)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrIO, path, err)
	}
	return out, nil
}

// WithInterpolator returns a view of the image that samples through the given
// scheme. The pixel data is shared, not copied.
func (m *Image) WithInterpolator(interp Interpolator) *Image {
	out := *m
	out.interp = interp
	return &out
}

// Width returns the number of pixel columns.
func (m *Image) Width() int { return m.width }

// Height returns the number of pixel rows.
func (m *Image) Height() int { return m.height }

// At performs an exact lookup at integer pixel coordinates.
// Coordinates outside [0,width) x [0,height) fail with ErrBounds.
func (m *Image) At(x, y int) (float64, error) {
	if x < 0 || x >= m.width || y < 0 || y >= m.height {
		return 0, fmt.Errorf("%w: pixel (%d,%d) outside %dx%d image", ErrBounds, x, y, m.width, m.height)
	}
	return m.data.At(y, x), nil
}

// Interp samples the image at real-valued coordinates using the image's
// interpolation scheme. Integer coordinates inside the grid return the exact
// sample. Coordinates up to one pixel outside the grid are clamped to the
// nearest edge; anything further out fails with ErrBounds.
func (m *Image) Interp(x, y float64) (float64, error) {
	if x < -1 || x > float64(m.width) || y < -1 || y > float64(m.height) {
		return 0, fmt.Errorf("%w: coordinate (%g,%g) outside clamped domain of %dx%d image",
			ErrBounds, x, y, m.width, m.height)
	}
	x = math.Min(math.Max(x, 0), float64(m.width-1))
	y = math.Min(math.Max(y, 0), float64(m.height-1))
	return m.interp.Eval(m, x, y), nil
}

// pix fetches a sample with indices clamped to the nearest edge.
// Interpolators use it so their support windows never read out of bounds.
func (m *Image) pix(x, y int) float64 {
	if x < 0 {
		x = 0
	} else if x >= m.width {
		x = m.width - 1
	}
	if y < 0 {
		y = 0
	} else if y >= m.height {
		y = m.height - 1
	}
	return m.data.At(y, x)
}
