// Package deformation defines the parametric map that carries a reference
// pixel location into the deformed frame. The map is the physical contract
// between subset sampling and the correlation optimizer: each field has a
// fixed mechanical meaning and the polynomial form below must stay stable.
package deformation

import "math"

// Map holds first-order deformation parameters. The zero value is the
// identity map. Instances are cheap values, never mutated after construction.
type Map struct {
	// U and V are the rigid translations in pixels along x and y.
	U float64
	V float64

	// Theta is the rigid rotation about the centroid in radians.
	Theta float64

	// Ex and Ey are the normal strains along x and y.
	Ex float64
	Ey float64

	// Gxy is the engineering shear strain.
	Gxy float64
}

// Apply maps a reference-frame point (x, y) to the deformed frame, using
// (cx, cy) as the deformation origin. The transform is the first-order
// expansion about the centroid:
//
//	dx, dy = x-cx, y-cy
//	sx = dx*(1+Ex) + dy*Gxy
//	sy = dy*(1+Ey) + dx*Gxy
//	x' = cx + U + sx*cos(Theta) - sy*sin(Theta)
//	y' = cy + V + sx*sin(Theta) + sy*cos(Theta)
//
// With every parameter but U and V zero this reduces to pure translation
// (x+U, y+V).
func (m Map) Apply(x, y, cx, cy float64) (xp, yp float64) {
	dx := x - cx
	dy := y - cy

	sx := dx*(1+m.Ex) + dy*m.Gxy
	sy := dy*(1+m.Ey) + dx*m.Gxy

	if m.Theta == 0 {
		return cx + m.U + sx, cy + m.V + sy
	}

	cos := math.Cos(m.Theta)
	sin := math.Sin(m.Theta)
	xp = cx + m.U + sx*cos - sy*sin
	yp = cy + m.V + sx*sin + sy*cos
	return xp, yp
}

// IsIdentity reports whether the map leaves every point fixed.
func (m Map) IsIdentity() bool {
	return m == Map{}
}

// ApplyTo maps a batch of points, writing the deformed coordinates into
// xps and yps. All four slices must have the same length.
func (m Map) ApplyTo(xs, ys []float64, cx, cy float64, xps, yps []float64) {
	for i := range xs {
		xps[i], yps[i] = m.Apply(xs[i], ys[i], cx, cy)
	}
}
