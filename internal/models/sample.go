package models

// SamplePoint is one pixel of a subset: its location in the reference frame
// and the intensity sampled there. The renderer consumes ordered slices of
// these triples.
type SamplePoint struct {
	// X and Y are the integer pixel coordinates in the reference frame
	X int
	Y int

	// Intensity is the sampled value, normally in the [0,1] range
	Intensity float64
}

// Bounds returns the inclusive bounding box of a set of sample points.
// ok is false for an empty set.
func Bounds(pts []SamplePoint) (minX, minY, maxX, maxY int, ok bool) {
	if len(pts) == 0 {
		return 0, 0, 0, 0, false
	}
	minX, minY = pts[0].X, pts[0].Y
	maxX, maxY = pts[0].X, pts[0].Y
	for _, p := range pts[1:] {
		if p.X < minX {
			minX = p.X
		}
		if p.X > maxX {
			maxX = p.X
		}
		if p.Y < minY {
			minY = p.Y
		}
		if p.Y > maxY {
			maxY = p.Y
		}
	}
	return minX, minY, maxX, maxY, true
}
