package coord

// Plane is the active arc plane (G17, G18, G19).
type Plane int

const (
	PlaneXY Plane = iota
	PlaneZX
	PlaneYZ
)

// axes maps a plane to its first in-plane axis, second in-plane axis
// and the out-of-plane (helical) axis.
var axes = [3][3]int{{0, 1, 2}, {2, 0, 1}, {1, 2, 0}}

// Axes returns the axis indexes for the plane: the two in-plane
// axes followed by the linear (helical) axis.
func (p Plane) Axes() [3]int { return axes[p] }

func (p Plane) String() string {
	switch p {
	case PlaneXY:
		return "XY"
	case PlaneZX:
		return "ZX"
	case PlaneYZ:
		return "YZ"
	}
	return "unknown"
}
