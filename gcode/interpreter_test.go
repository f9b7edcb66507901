package gcode

import (
	"math"
	"testing"
	"time"

	"github.com/mastercactapus/grblstream/coord"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type srcLine struct {
	text string
	line int
}

func (s srcLine) String() string { return s.text }
func (s srcLine) Line() int      { return s.line }

func run(in *Interpreter, lines ...string) []*Primitive {
	var res []*Primitive
	for i, l := range lines {
		res = append(res, in.Process(srcLine{text: l, line: i + 1}))
	}
	return res
}

func TestInterpreter_Snap(t *testing.T) {
	in := NewInterpreter()

	_, ok := in.Position()
	assert.False(t, ok)

	p := run(in, "G0 X1 Y2")
	assert.Nil(t, p[0])

	pos, ok := in.Position()
	assert.True(t, ok)
	assert.Equal(t, coord.Point{X: 1, Y: 2}, pos)
}

func TestInterpreter_Distance(t *testing.T) {
	in := NewInterpreter()
	p := run(in, "G0 X0 Y0 Z0", "G91", "G0 X1", "G0 X1", "G90 G0 X1")

	require.NotNil(t, p[2])
	assert.Equal(t, []coord.Point{{}, {X: 1}}, p[2].Points)
	require.NotNil(t, p[3])
	assert.Equal(t, []coord.Point{{X: 1}, {X: 2}}, p[3].Points)
	require.NotNil(t, p[4])
	assert.Equal(t, []coord.Point{{X: 2}, {X: 1}}, p[4].Points)
	assert.False(t, p[4].IsWork)
	assert.Equal(t, 5, p[4].Line)
	assert.Equal(t, "G90G0X1", p[4].Block)
}

func TestInterpreter_AbsoluteOverride(t *testing.T) {
	in := NewInterpreter()
	run(in, "G0 X0 Y0 Z0", "G91", "G53 X3", "X1")

	pos, _ := in.Position()
	assert.Equal(t, coord.Point{X: 4}, pos)
	assert.Equal(t, NonModalNone, in.State().NonModal)
}

func TestInterpreter_Inches(t *testing.T) {
	in := NewInterpreter()
	p := run(in, "G0 X0 Y0 Z0", "G20", "G1 X1 F60")

	require.NotNil(t, p[2])
	assert.True(t, p[2].IsWork)
	assert.InDelta(t, 25.4, p[2].Points[1].X, 1e-9)
	assert.InDelta(t, 25.4, in.Feed(), 1e-9)
	assert.Equal(t, time.Second, in.MachineTime())
}

func TestInterpreter_MachineTime(t *testing.T) {
	in := NewInterpreter()
	p := run(in, "G0 X0 Y0 Z0", "G1 X10 F600")

	require.NotNil(t, p[1])
	assert.Equal(t, 10.0, p[1].Length())
	assert.Equal(t, time.Second, in.MachineTime())

	// rapids without a feed rate never accrue time
	in.Reset()
	run(in, "G0 X0", "G0 X100")
	assert.Equal(t, time.Duration(0), in.MachineTime())
}

func TestInterpreter_NoMotion(t *testing.T) {
	in := NewInterpreter()
	p := run(in, "G0 X0 Y0 Z0", "G0 X0", "G4 P1", "G92 X5", "M3 S1000", "G80 X5")

	for i, prim := range p {
		assert.Nil(t, prim, "line %d", i+1)
	}

	// G80 still moves the tracked position
	pos, _ := in.Position()
	assert.Equal(t, coord.Point{X: 5}, pos)
}

func TestInterpreter_ParameterAxes(t *testing.T) {
	in := NewInterpreter()
	p := run(in, "G0 X5 Y0 Z0", "G92 X0", "G1 X1 F60", "G10 L20 P1 X0", "G4 X2", "G92.1 X3", "G1 X2")

	assert.Nil(t, p[1])
	require.NotNil(t, p[2])
	assert.Equal(t, []coord.Point{{X: 5}, {X: 1}}, p[2].Points)
	assert.Equal(t, "G1X1F60", p[2].Block)

	for i := 3; i < 6; i++ {
		assert.Nil(t, p[i], "line %d", i+1)
	}
	require.NotNil(t, p[6])
	assert.Equal(t, []coord.Point{{X: 1}, {X: 2}}, p[6].Points)
}

func assertOnCircle(t *testing.T, pts []coord.Point, c0, c1, r float64) {
	t.Helper()
	for _, p := range pts {
		assert.InDelta(t, r, math.Hypot(p.X-c0, p.Y-c1), 1e-6)
	}
}

func TestInterpreter_ArcRadius(t *testing.T) {
	in := NewInterpreter()
	p := run(in, "G0 X0 Y0 Z0", "G2 X10 Y0 R5")

	require.NotNil(t, p[1])
	pts := p[1].Points
	assert.True(t, p[1].IsWork)
	assert.Equal(t, coord.Point{}, pts[0])
	assert.Equal(t, coord.Point{X: 10}, pts[len(pts)-1])
	assert.True(t, len(pts) > 30)
	assertOnCircle(t, pts, 5, 0, 5)

	// clockwise from the left goes over the top
	for _, pt := range pts {
		assert.True(t, pt.Y >= -1e-9)
	}
}

func TestInterpreter_ArcOffset(t *testing.T) {
	in := NewInterpreter()
	p := run(in, "G0 X0 Y0 Z0", "G3 X10 Y0 I5 J0 Z5")

	require.NotNil(t, p[1])
	pts := p[1].Points
	assert.Equal(t, coord.Point{X: 10, Z: 5}, pts[len(pts)-1])
	assertOnCircle(t, pts, 5, 0, 5)

	mid := pts[len(pts)/2]
	assert.True(t, mid.Y < 0)
	assert.InDelta(t, 2.5, mid.Z, 0.2)
}

func TestInterpreter_ArcPlane(t *testing.T) {
	in := NewInterpreter()
	p := run(in, "G0 X0 Y0 Z0", "G18 G3 X10 I5")

	require.NotNil(t, p[1])
	pts := p[1].Points
	assert.Equal(t, coord.Point{X: 10}, pts[len(pts)-1])
	for _, pt := range pts {
		assert.Equal(t, 0.0, pt.Y)
		assert.InDelta(t, 5, math.Hypot(pt.X-5, pt.Z), 1e-6)
	}
}

func TestInterpreter_ArcInvalid(t *testing.T) {
	in := NewInterpreter()
	p := run(in, "G0 X0 Y0 Z0", "G2 X10 Y0 R2", "G2 X0 Y0 I1")

	assert.Nil(t, p[1])
	assert.Nil(t, p[2])

	// position still follows the program
	pos, _ := in.Position()
	assert.Equal(t, coord.Point{}, pos)
}

func TestInterpreter_Reset(t *testing.T) {
	in := NewInterpreter()
	run(in, "G20 G91", "G0 X0 Y0 Z0", "G1 X1 F10")

	in.Reset()
	_, ok := in.Position()
	assert.False(t, ok)
	assert.Equal(t, DefaultModalState(), in.State())
	assert.Equal(t, time.Duration(0), in.MachineTime())
}
