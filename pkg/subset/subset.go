// Package subset implements the pixel collection tracked between the
// reference and deformed frames of a digital image correlation run. A Subset
// owns its pixel geometry and two intensity buffers; filling a buffer samples
// an image either exactly (reference) or through a deformation map with
// subpixel interpolation (deformed).
package subset

import (
	"errors"
	"fmt"
	"math"
	"runtime"
	"sync"

	"gonum.org/v1/gonum/stat"

	"github.com/ChrisFinfrock/dice/internal/models"
	"github.com/ChrisFinfrock/dice/pkg/deformation"
	"github.com/ChrisFinfrock/dice/pkg/raster"
	"github.com/ChrisFinfrock/dice/pkg/render"
)

// Error kinds reported by this package.
var (
	// ErrInvalidArgument indicates malformed construction input.
	ErrInvalidArgument = errors.New("invalid subset argument")

	// ErrOutOfRange indicates an accessor index beyond the pixel count.
	ErrOutOfRange = errors.New("pixel index out of range")
)

// FillMode selects which intensity buffer an initialization targets.
type FillMode int

const (
	// FillRef targets the reference buffer.
	FillRef FillMode = iota

	// FillDef targets the deformed buffer.
	FillDef
)

// Point is an integer pixel location in the reference frame.
type Point struct {
	X, Y int
}

// PixelGeometry is an ordered sequence of pixel locations, fixed at subset
// construction. Order is significant and duplicates are kept.
type PixelGeometry []Point

// Len returns the number of pixels in the geometry.
func (g PixelGeometry) Len() int { return len(g) }

// Subset owns a pixel geometry plus reference and deformed intensity buffers.
// The centroid is the declared deformation origin supplied at construction;
// it need not be the arithmetic center of the geometry.
//
// A Subset is not safe for concurrent initialization: callers must serialize
// fills on one instance or use separate instances.
type Subset struct {
	cx, cy  int
	geom    PixelGeometry
	ref     []float64
	def     []float64
	workers int
}

// NewRect constructs a subset covering every pixel of a width x height box
// centered on (cx, cy). Each axis spans offsets [-d/2, d/2) using integer
// division, so an odd dimension is symmetric about the centroid (w=13 spans
// -6..+6) and an even one carries the extra pixel on the negative side.
// Non-positive dimensions fail with ErrInvalidArgument.
func NewRect(cx, cy, width, height int) (*Subset, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: rectangle dimensions must be positive, got %dx%d",
			ErrInvalidArgument, width, height)
	}

	geom := make(PixelGeometry, 0, width*height)
	for oy := -height / 2; oy < height-height/2; oy++ {
		for ox := -width / 2; ox < width-width/2; ox++ {
			geom = append(geom, Point{X: cx + ox, Y: cy + oy})
		}
	}
	return newSubset(cx, cy, geom), nil
}

// NewFromPoints constructs a subset from parallel coordinate arrays, keeping
// input order. Mismatched lengths fail with ErrInvalidArgument.
func NewFromPoints(cx, cy int, xs, ys []int) (*Subset, error) {
	if len(xs) != len(ys) {
		return nil, fmt.Errorf("%w: coordinate arrays have mismatched lengths %d and %d",
			ErrInvalidArgument, len(xs), len(ys))
	}

	geom := make(PixelGeometry, len(xs))
	for i := range xs {
		geom[i] = Point{X: xs[i], Y: ys[i]}
	}
	return newSubset(cx, cy, geom), nil
}

func newSubset(cx, cy int, geom PixelGeometry) *Subset {
	return &Subset{
		cx:      cx,
		cy:      cy,
		geom:    geom,
		ref:     make([]float64, geom.Len()),
		def:     make([]float64, geom.Len()),
		workers: runtime.NumCPU(),
	}
}

// SetWorkers caps the number of goroutines used for parallel fills.
// Values below 1 reset to the CPU count.
func (s *Subset) SetWorkers(n int) {
	if n < 1 {
		n = runtime.NumCPU()
	}
	s.workers = n
}

// NumPixels returns the number of pixels in the subset.
func (s *Subset) NumPixels() int { return s.geom.Len() }

// CentroidX returns the x coordinate of the deformation origin.
func (s *Subset) CentroidX() int { return s.cx }

// CentroidY returns the y coordinate of the deformation origin.
func (s *Subset) CentroidY() int { return s.cy }

// X returns the x coordinate of pixel i in construction order.
func (s *Subset) X(i int) (int, error) {
	if i < 0 || i >= s.geom.Len() {
		return 0, fmt.Errorf("%w: index %d with %d pixels", ErrOutOfRange, i, s.geom.Len())
	}
	return s.geom[i].X, nil
}

// Y returns the y coordinate of pixel i in construction order.
func (s *Subset) Y(i int) (int, error) {
	if i < 0 || i >= s.geom.Len() {
		return 0, fmt.Errorf("%w: index %d with %d pixels", ErrOutOfRange, i, s.geom.Len())
	}
	return s.geom[i].Y, nil
}

// RefIntensity returns the reference intensity of pixel i.
func (s *Subset) RefIntensity(i int) (float64, error) {
	if i < 0 || i >= len(s.ref) {
		return 0, fmt.Errorf("%w: index %d with %d pixels", ErrOutOfRange, i, len(s.ref))
	}
	return s.ref[i], nil
}

// DefIntensity returns the deformed intensity of pixel i.
func (s *Subset) DefIntensity(i int) (float64, error) {
	if i < 0 || i >= len(s.def) {
		return 0, fmt.Errorf("%w: index %d with %d pixels", ErrOutOfRange, i, len(s.def))
	}
	return s.def[i], nil
}

// Intensities returns a copy of the selected buffer.
func (s *Subset) Intensities(mode FillMode) []float64 {
	src := s.ref
	if mode == FillDef {
		src = s.def
	}
	out := make([]float64, len(src))
	copy(out, src)
	return out
}

// Initialize fills the reference buffer by exact lookup of every subset pixel
// in img. Any pixel outside the image extent fails the whole call with
// raster.ErrBounds and leaves the buffer untouched.
func (s *Subset) Initialize(img *raster.Image) error {
	buf := make([]float64, s.geom.Len())
	err := s.forEachPixel(func(i int) error {
		v, err := img.At(s.geom[i].X, s.geom[i].Y)
		if err != nil {
			return err
		}
		buf[i] = v
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to initialize reference intensities: %w", err)
	}
	s.ref = buf
	return nil
}

// InitializeMapped fills the buffer selected by mode, carrying every subset
// pixel through the deformation map and sampling img with subpixel
// interpolation. The fill is atomic: a single out-of-bounds sample fails the
// call and no buffer is modified.
func (s *Subset) InitializeMapped(img *raster.Image, m deformation.Map, mode FillMode) error {
	cx := float64(s.cx)
	cy := float64(s.cy)

	buf := make([]float64, s.geom.Len())
	err := s.forEachPixel(func(i int) error {
		xp, yp := m.Apply(float64(s.geom[i].X), float64(s.geom[i].Y), cx, cy)
		v, err := img.Interp(xp, yp)
		if err != nil {
			return err
		}
		buf[i] = v
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to initialize mapped intensities: %w", err)
	}

	if mode == FillDef {
		s.def = buf
	} else {
		s.ref = buf
	}
	return nil
}

// forEachPixel runs fn over the pixel index range, partitioned across
// workers. Writes by fn target disjoint slots so no locking is needed; the
// first error from any partition is returned.
func (s *Subset) forEachPixel(fn func(i int) error) error {
	n := s.geom.Len()
	workers := s.workers
	if workers > n {
		workers = n
	}
	if workers <= 1 {
		for i := 0; i < n; i++ {
			if err := fn(i); err != nil {
				return err
			}
		}
		return nil
	}

	var wg sync.WaitGroup
	errs := make([]error, workers)
	chunk := (n + workers - 1) / workers

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			start := w * chunk
			end := start + chunk
			if end > n {
				end = n
			}
			for i := start; i < end; i++ {
				if err := fn(i); err != nil {
					errs[w] = err
					return
				}
			}
		}(w)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// Mean returns the arithmetic mean of the selected intensity buffer.
func (s *Subset) Mean(mode FillMode) float64 {
	if mode == FillDef {
		return stat.Mean(s.def, nil)
	}
	return stat.Mean(s.ref, nil)
}

// Gamma returns the zero-normalized sum of squared differences between the
// reference and deformed buffers. Identical patterns give 0; the correlation
// optimizer drives this value down as the deformation parameters converge.
// A buffer with no contrast yields a gamma of 0 against any pattern.
func (s *Subset) Gamma() float64 {
	refMean := stat.Mean(s.ref, nil)
	defMean := stat.Mean(s.def, nil)

	var refNorm, defNorm float64
	for i := range s.ref {
		dr := s.ref[i] - refMean
		dd := s.def[i] - defMean
		refNorm += dr * dr
		defNorm += dd * dd
	}
	if refNorm <= 0 || defNorm <= 0 {
		return 0
	}
	refNorm = math.Sqrt(refNorm)
	defNorm = math.Sqrt(defNorm)

	var gamma float64
	for i := range s.ref {
		d := (s.def[i]-defMean)/defNorm - (s.ref[i]-refMean)/refNorm
		gamma += d * d
	}
	return gamma
}

// WriteTIF renders the selected intensity buffer as a TIFF file at path,
// placing each pixel at its reference-frame location within the geometry's
// bounding box. I/O failures wrap raster.ErrIO.
func (s *Subset) WriteTIF(path string, useDeformed bool) error {
	buf := s.ref
	if useDeformed {
		buf = s.def
	}

	pts := make([]models.SamplePoint, s.geom.Len())
	for i, p := range s.geom {
		pts[i] = models.SamplePoint{X: p.X, Y: p.Y, Intensity: buf[i]}
	}
	return render.WritePoints(path, pts)
}
