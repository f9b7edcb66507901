package gcode

import (
	"math"

	"github.com/mastercactapus/grblstream/coord"
)

const (
	// arcTolerance is the largest allowed difference between the start
	// and end radius of an arc, in mm.
	arcTolerance = 0.1

	arcStep = 5 * math.Pi / 180
)

// radiusCenter computes the in-plane arc center from an R word, the way
// grbl does. A negative radius selects the long way around.
func radiusCenter(cur, target coord.Point, axes [3]int, r float64, ccw bool) (c0, c1 float64, ok bool) {
	x := target.Axis(axes[0]) - cur.Axis(axes[0])
	y := target.Axis(axes[1]) - cur.Axis(axes[1])

	disc := 4*r*r - x*x - y*y
	d := math.Hypot(x, y)
	if disc < 0 || d == 0 {
		return 0, 0, false
	}

	hd := -math.Sqrt(disc) / d
	if ccw {
		hd = -hd
	}
	if r < 0 {
		hd = -hd
	}

	c0 = cur.Axis(axes[0]) + 0.5*(x-y*hd)
	c1 = cur.Axis(axes[1]) + 0.5*(y+x*hd)
	return c0, c1, true
}

// offsetCenter computes the in-plane arc center from I/J/K offsets. Offsets
// are given in the active units and default to zero.
func offsetCenter(s ModalState, b Block, cur coord.Point, axes [3]int) (c0, c1 float64) {
	letters := [3]byte{'I', 'J', 'K'}
	_, o0 := b.Arg(letters[axes[0]])
	_, o1 := b.Arg(letters[axes[1]])
	return cur.Axis(axes[0]) + s.ToMM(o0), cur.Axis(axes[1]) + s.ToMM(o1)
}

// arcPoints tessellates an arc from cur to target around the in-plane
// center (c0, c1). The helical axis moves linearly with the sweep. It
// returns nil if the center is not equidistant from both ends.
func arcPoints(cur, target coord.Point, axes [3]int, c0, c1 float64, ccw bool, turns float64) []coord.Point {
	a, b, h := axes[0], axes[1], axes[2]

	radius := math.Hypot(cur.Axis(a)-c0, cur.Axis(b)-c1)
	radiusEnd := math.Hypot(target.Axis(a)-c0, target.Axis(b)-c1)
	if math.Abs(radius-radiusEnd) > arcTolerance {
		return nil
	}

	start := math.Atan2(cur.Axis(b)-c1, cur.Axis(a)-c0)
	end := math.Atan2(target.Axis(b)-c1, target.Axis(a)-c0)
	delta := start - end
	if ccw {
		delta = end - start
	}

	revs := math.Abs(turns)
	if delta < 0 {
		revs++
	}
	delta += 2 * math.Pi * revs

	startH := cur.Axis(h)
	deltaH := target.Axis(h) - startH

	points := []coord.Point{cur}
	for ang := arcStep; ang < delta; ang += arcStep {
		theta := start - ang
		if ccw {
			theta = start + ang
		}

		var p coord.Point
		p = p.SetAxis(a, c0+radius*math.Cos(theta))
		p = p.SetAxis(b, c1+radius*math.Sin(theta))
		p = p.SetAxis(h, startH+deltaH*ang/delta)
		points = append(points, p)
	}

	return append(points, target)
}
