package gcode

import (
	"math"
	"time"

	"github.com/mastercactapus/grblstream/coord"
)

// Source is a single line of program text with its source line number.
type Source interface {
	String() string
	Line() int
}

// Interpreter will track modal state and position while following a
// program, producing the geometry of each motion.
type Interpreter struct {
	state ModalState

	pos      coord.Point
	posValid bool

	// feed rate in mm/s
	feed float64

	// accrued machine time in ms
	elapsed float64
}

// NewInterpreter constructs a new Interpreter with default state.
func NewInterpreter() *Interpreter {
	return &Interpreter{state: DefaultModalState()}
}

// Reset restores the default modal state and forgets the position, feed
// rate and accrued time.
func (in *Interpreter) Reset() { *in = *NewInterpreter() }

// State returns the current modal state.
func (in *Interpreter) State() ModalState { return in.state }

// Position returns the last known position, and false if no axis word
// has been seen yet.
func (in *Interpreter) Position() (coord.Point, bool) { return in.pos, in.posValid }

// Feed returns the active feed rate in mm/s, or 0 if none was given.
func (in *Interpreter) Feed() float64 { return in.feed }

// MachineTime returns the estimated time spent on all motions with a
// known feed rate.
func (in *Interpreter) MachineTime() time.Duration {
	return time.Duration(math.Round(in.elapsed)) * time.Millisecond
}

// Process interprets a single instruction. It returns nil if the
// instruction produced no geometry.
func (in *Interpreter) Process(src Source) *Primitive {
	return in.ProcessBlock(ParseLine(src.String()), src.Line())
}

// ProcessBlock interprets an already parsed block.
func (in *Interpreter) ProcessBlock(b Block, line int) *Primitive {
	defer func() { in.state.NonModal = NonModalNone }()
	if len(b) == 0 {
		return nil
	}

	for _, f := range b.Values('F') {
		in.feed = in.state.ToMM(f) / 60
	}
	for _, g := range b.Values('G') {
		in.state = ApplyGWord(in.state, g)
	}

	target, ok := in.target(b)
	if !ok {
		return nil
	}

	if !in.posValid {
		in.pos = target
		in.posValid = true
		return nil
	}
	if target.Equal(in.pos) {
		return nil
	}

	var points []coord.Point
	switch in.state.Motion {
	case MotionSeek, MotionLinear:
		points = []coord.Point{in.pos, target}
	case MotionCWArc, MotionCCWArc:
		points = in.arc(b, target)
	}
	in.pos = target

	if len(points) < 2 {
		return nil
	}

	p := &Primitive{Line: line, Block: b.String(), Points: points, IsWork: in.state.Motion.IsWork()}
	if in.feed > 0 {
		in.elapsed += p.Length() / in.feed * 1000
	}
	return p
}

// target resolves the X, Y and Z words of b against the current
// position. It returns false if b has no axis words.
func (in *Interpreter) target(b Block) (coord.Point, bool) {
	switch in.state.NonModal {
	case NonModalDwell, NonModalSetCoordinateData, NonModalSetCoordinateOffset, NonModalResetCoordinateOffset:
		// axis words are parameters, not a destination
		return coord.Point{}, false
	}

	p := in.pos
	var found bool
	for i, l := range []byte{'X', 'Y', 'Z'} {
		ok, v := b.Arg(l)
		if !ok {
			continue
		}
		found = true
		v = in.state.ToMM(v)
		if !in.state.Absolute() {
			v += p.Axis(i)
		}
		p = p.SetAxis(i, v)
	}

	return p, found
}

func (in *Interpreter) arc(b Block, target coord.Point) []coord.Point {
	axes := in.state.Plane.Axes()
	ccw := in.state.Motion == MotionCCWArc

	var c0, c1 float64
	if ok, r := b.Arg('R'); ok {
		var valid bool
		c0, c1, valid = radiusCenter(in.pos, target, axes, in.state.ToMM(r), ccw)
		if !valid {
			return nil
		}
	} else {
		c0, c1 = offsetCenter(in.state, b, in.pos, axes)
	}

	_, turns := b.Arg('P')
	return arcPoints(in.pos, target, axes, c0, c1, ccw, turns)
}
