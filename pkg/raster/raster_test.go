package raster

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"testing"
)

// rampImage builds a grid whose intensity is the plane x + 2y.
// Bilinear interpolation reproduces a plane exactly, which makes
// expected values easy to compute by hand.
func rampImage(t *testing.T, width, height int) *Image {
	t.Helper()
	data := make([]float64, width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			data[y*width+x] = float64(x) + 2*float64(y)
		}
	}
	img, err := NewImage(width, height, data)
	if err != nil {
		t.Fatalf("Failed to build test image: %v", err)
	}
	return img
}

func TestNewImageValidation(t *testing.T) {
	if _, err := NewImage(0, 4, nil); err == nil {
		t.Error("Expected error for zero width, got nil")
	}
	if _, err := NewImage(4, 4, make([]float64, 15)); err == nil {
		t.Error("Expected error for short buffer, got nil")
	}
}

func TestAtExactLookup(t *testing.T) {
	img := rampImage(t, 8, 6)

	v, err := img.At(3, 2)
	if err != nil {
		t.Fatalf("At(3,2) failed: %v", err)
	}
	if v != 7 {
		t.Errorf("Expected intensity 7 at (3,2), got %g", v)
	}

	for _, p := range []struct{ x, y int }{{-1, 0}, {0, -1}, {8, 0}, {0, 6}} {
		if _, err := img.At(p.x, p.y); !errors.Is(err, ErrBounds) {
			t.Errorf("At(%d,%d) expected ErrBounds, got %v", p.x, p.y, err)
		}
	}
}

func TestInterpIntegerExactness(t *testing.T) {
	img := rampImage(t, 8, 6)

	for _, interp := range []Interpolator{Bilinear{}, Keys{}} {
		view := img.WithInterpolator(interp)
		for y := 0; y < 6; y++ {
			for x := 0; x < 8; x++ {
				exact, _ := img.At(x, y)
				got, err := view.Interp(float64(x), float64(y))
				if err != nil {
					t.Fatalf("%s Interp(%d,%d) failed: %v", interp.Name(), x, y, err)
				}
				if math.Abs(got-exact) > 1e-12 {
					t.Errorf("%s Interp(%d,%d) = %g, expected exact value %g",
						interp.Name(), x, y, got, exact)
				}
			}
		}
	}
}

func TestBilinearSubpixel(t *testing.T) {
	img := rampImage(t, 8, 6)

	// On a plane, bilinear interpolation is exact everywhere in the interior.
	cases := []struct{ x, y float64 }{
		{0.5, 0.5}, {3.25, 2.75}, {6.9, 4.1}, {1, 2.5}, {2.5, 1},
	}
	for _, c := range cases {
		got, err := img.Interp(c.x, c.y)
		if err != nil {
			t.Fatalf("Interp(%g,%g) failed: %v", c.x, c.y, err)
		}
		expected := c.x + 2*c.y
		if math.Abs(got-expected) > 1e-12 {
			t.Errorf("Interp(%g,%g) = %g, expected %g", c.x, c.y, got, expected)
		}
	}
}

func TestKeysSubpixelInterior(t *testing.T) {
	img := rampImage(t, 8, 6).WithInterpolator(Keys{})

	// The Keys kernel reproduces planes exactly where its 4x4 support
	// stays inside the grid.
	cases := []struct{ x, y float64 }{
		{2.5, 2.5}, {3.75, 2.25}, {4.1, 3.9},
	}
	for _, c := range cases {
		got, err := img.Interp(c.x, c.y)
		if err != nil {
			t.Fatalf("Interp(%g,%g) failed: %v", c.x, c.y, err)
		}
		expected := c.x + 2*c.y
		if math.Abs(got-expected) > 1e-10 {
			t.Errorf("Keys Interp(%g,%g) = %g, expected %g", c.x, c.y, got, expected)
		}
	}
}

func TestInterpEdgePolicy(t *testing.T) {
	img := rampImage(t, 8, 6)

	// Within one pixel of the grid the coordinate clamps to the edge.
	got, err := img.Interp(-0.75, 2)
	if err != nil {
		t.Fatalf("Interp(-0.75,2) failed: %v", err)
	}
	edge, _ := img.At(0, 2)
	if got != edge {
		t.Errorf("Clamped sample = %g, expected edge value %g", got, edge)
	}

	got, err = img.Interp(7.5, 5.5)
	if err != nil {
		t.Fatalf("Interp(7.5,5.5) failed: %v", err)
	}
	corner, _ := img.At(7, 5)
	if got != corner {
		t.Errorf("Clamped corner sample = %g, expected %g", got, corner)
	}

	// Beyond the clamped domain the sample fails.
	for _, p := range []struct{ x, y float64 }{{-1.5, 0}, {0, -1.01}, {9.0001, 0}, {0, 7.2}} {
		if _, err := img.Interp(p.x, p.y); !errors.Is(err, ErrBounds) {
			t.Errorf("Interp(%g,%g) expected ErrBounds, got %v", p.x, p.y, err)
		}
	}
}

func TestFromImageNormalization(t *testing.T) {
	src := image.NewGray16(image.Rect(0, 0, 3, 2))
	src.SetGray16(0, 0, color.Gray16{Y: 0})
	src.SetGray16(2, 1, color.Gray16{Y: 65535})
	src.SetGray16(1, 0, color.Gray16{Y: 32768})

	img, err := FromImage(src)
	if err != nil {
		t.Fatalf("FromImage failed: %v", err)
	}
	if img.Width() != 3 || img.Height() != 2 {
		t.Fatalf("Expected 3x2 image, got %dx%d", img.Width(), img.Height())
	}

	if v, _ := img.At(0, 0); v != 0 {
		t.Errorf("Expected 0 at (0,0), got %g", v)
	}
	if v, _ := img.At(2, 1); v != 1 {
		t.Errorf("Expected 1 at (2,1), got %g", v)
	}
	if v, _ := img.At(1, 0); math.Abs(v-32768.0/65535.0) > 1e-12 {
		t.Errorf("Expected mid-gray at (1,0), got %g", v)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.tif")); !errors.Is(err, ErrIO) {
		t.Errorf("Expected ErrIO for missing file, got %v", err)
	}
}

func TestLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ramp.png")

	src := image.NewGray16(image.Rect(0, 0, 4, 3))
	for y := 0; y < 3; y++ {
		for x := 0; x < 4; x++ {
			src.SetGray16(x, y, color.Gray16{Y: uint16((y*4 + x) * 1000)})
		}
	}
	file, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}
	if err := png.Encode(file, src); err != nil {
		t.Fatalf("Failed to encode test file: %v", err)
	}
	file.Close()

	img, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if img.Width() != 4 || img.Height() != 3 {
		t.Fatalf("Expected 4x3 image, got %dx%d", img.Width(), img.Height())
	}
	if v, _ := img.At(2, 1); math.Abs(v-6000.0/65535.0) > 1e-12 {
		t.Errorf("Expected %g at (2,1), got %g", 6000.0/65535.0, v)
	}
}
