package raster

import "math"

// Interpolator evaluates an image at real-valued coordinates. Eval is only
// called with coordinates already clamped into [0,width-1] x [0,height-1];
// implementations must reproduce the exact sample at integer coordinates.
type Interpolator interface {
	// Name identifies the scheme, matching the config spelling.
	Name() string

	// Eval samples the image at (x, y).
	Eval(img *Image, x, y float64) float64
}

// Bilinear interpolates from the 2x2 neighborhood around the coordinate.
// This is the baseline scheme used for deformed-frame sampling.
type Bilinear struct{}

func (Bilinear) Name() string { return "bilinear" }

func (Bilinear) Eval(img *Image, x, y float64) float64 {
	x0 := int(math.Floor(x))
	y0 := int(math.Floor(y))
	fx := x - float64(x0)
	fy := y - float64(y0)

	v00 := img.pix(x0, y0)
	v10 := img.pix(x0+1, y0)
	v01 := img.pix(x0, y0+1)
	v11 := img.pix(x0+1, y0+1)

	top := v00*(1-fx) + v10*fx
	bot := v01*(1-fx) + v11*fx
	return top*(1-fy) + bot*fy
}

// Keys interpolates with the Keys cubic convolution kernel (a = -0.5) over a
// 4x4 neighborhood. Smoother than bilinear for subpixel optimization while
// still exact at integer coordinates.
type Keys struct{}

func (Keys) Name() string { return "keys" }

func (Keys) Eval(img *Image, x, y float64) float64 {
	x0 := int(math.Floor(x))
	y0 := int(math.Floor(y))
	fx := x - float64(x0)
	fy := y - float64(y0)

	var wx, wy [4]float64
	for i := 0; i < 4; i++ {
		wx[i] = keysWeight(float64(i-1) - fx)
		wy[i] = keysWeight(float64(i-1) - fy)
	}

	var sum float64
	for j := 0; j < 4; j++ {
		var row float64
		for i := 0; i < 4; i++ {
			row += wx[i] * img.pix(x0+i-1, y0+j-1)
		}
		sum += wy[j] * row
	}
	return sum
}

// keysWeight is the one-dimensional Keys kernel with a = -0.5.
// It satisfies w(0)=1 and w(n)=0 for nonzero integers n, which gives the
// integer-exactness property of the 2D scheme.
func keysWeight(t float64) float64 {
	const a = -0.5
	t = math.Abs(t)
	switch {
	case t < 1:
		return ((a+2)*t-(a+3))*t*t + 1
	case t < 2:
		return (((t-5)*t+8)*t - 4) * a
	default:
		return 0
	}
}

// InterpolatorByName maps a config spelling to a scheme. Unknown names fall
// back to bilinear.
func InterpolatorByName(name string) Interpolator {
	switch name {
	case "keys":
		return Keys{}
	default:
		return Bilinear{}
	}
}
