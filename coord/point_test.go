package coord

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPoint_Distance(t *testing.T) {
	assert.Equal(t, 5.0, Point{}.Distance(Point{X: 3, Z: 4}))
	assert.Equal(t, 0.0, Point{X: 1, Y: 1, Z: 1}.Distance(Point{X: 1, Y: 1, Z: 1}))
}

func TestPoint_Axis(t *testing.T) {
	p := Point{X: 1, Y: 2, Z: 3}
	assert.Equal(t, 1.0, p.Axis(0))
	assert.Equal(t, 2.0, p.Axis(1))
	assert.Equal(t, 3.0, p.Axis(2))

	assert.Equal(t, Point{X: 1, Y: 9, Z: 3}, p.SetAxis(1, 9))
	assert.Equal(t, Point{X: 1, Y: 2, Z: 3}, p, "SetAxis must not modify the receiver")
	assert.Panics(t, func() { p.Axis(3) })
}

func TestPlane_Axes(t *testing.T) {
	assert.Equal(t, [3]int{0, 1, 2}, PlaneXY.Axes())
	assert.Equal(t, [3]int{2, 0, 1}, PlaneZX.Axes())
	assert.Equal(t, [3]int{1, 2, 0}, PlaneYZ.Axes())
	assert.Equal(t, "ZX", PlaneZX.String())
}
