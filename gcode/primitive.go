package gcode

import "github.com/mastercactapus/grblstream/coord"

// Primitive is the geometry produced by one motion block.
type Primitive struct {
	// Line is the source line of the block, or -1 if unknown.
	Line int

	// Block is the normalized text of the block, e.g. "G1X10F600".
	Block string

	Points []coord.Point

	// IsWork is set for feed moves (linear and arcs), unset for rapids.
	IsWork bool
}

// Length is the total path length in millimeters.
func (p Primitive) Length() float64 {
	var l float64
	for i := 1; i < len(p.Points); i++ {
		l += p.Points[i-1].Distance(p.Points[i])
	}
	return l
}
