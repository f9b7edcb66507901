package coord

import (
	"math"
)

// MMPerInch converts imperial lengths to millimeters.
const MMPerInch = 25.4

type Point struct{ X, Y, Z float64 }

func (p Point) Equal(b Point) bool {
	return p.X == b.X && p.Y == b.Y && p.Z == b.Z
}

func (p Point) Mul(val float64) Point {
	p.X *= val
	p.Y *= val
	p.Z *= val
	return p
}

// Sub will subtract the target values from p.
func (p Point) Sub(target Point) Point {
	p.X -= target.X
	p.Y -= target.Y
	p.Z -= target.Z
	return p
}

// Axis returns the value of axis i (0=X, 1=Y, 2=Z).
func (p Point) Axis(i int) float64 {
	switch i {
	case 0:
		return p.X
	case 1:
		return p.Y
	case 2:
		return p.Z
	}
	panic("coord: invalid axis index")
}

// SetAxis returns p with axis i set to val.
func (p Point) SetAxis(i int, val float64) Point {
	switch i {
	case 0:
		p.X = val
	case 1:
		p.Y = val
	case 2:
		p.Z = val
	default:
		panic("coord: invalid axis index")
	}
	return p
}

// Distance will return the 3D distance between p and target.
func (p Point) Distance(target Point) float64 {
	d := target.Sub(p)
	return math.Sqrt(d.X*d.X + d.Y*d.Y + d.Z*d.Z)
}
