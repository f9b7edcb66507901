package gcode

import (
	"math"

	"github.com/mastercactapus/grblstream/coord"
)

type Units int

const (
	UnitsMM Units = iota
	UnitsInches
)

type DistanceMode int

const (
	DistanceAbsolute DistanceMode = iota
	DistanceIncremental
)

type MotionMode int

const (
	MotionSeek MotionMode = iota
	MotionLinear
	MotionCWArc
	MotionCCWArc
	MotionProbe
	MotionNone
)

// IsWork reports if the motion mode cuts material (as opposed to a
// rapid positioning move).
func (m MotionMode) IsWork() bool {
	switch m {
	case MotionLinear, MotionCWArc, MotionCCWArc:
		return true
	}
	return false
}

// NonModal is a directive that only applies to the block it appears in.
type NonModal int

const (
	NonModalNone NonModal = iota
	NonModalDwell
	NonModalSetCoordinateData
	NonModalGoHome0
	NonModalSetHome0
	NonModalGoHome1
	NonModalSetHome1
	NonModalAbsoluteOverride
	NonModalSetCoordinateOffset
	NonModalResetCoordinateOffset
)

// ModalState is the machine configuration that persists between blocks.
type ModalState struct {
	Units    Units
	Distance DistanceMode
	Motion   MotionMode
	Plane    coord.Plane
	NonModal NonModal
}

// DefaultModalState returns the power-on state used by grbl.
func DefaultModalState() ModalState {
	return ModalState{
		Units:    UnitsMM,
		Distance: DistanceAbsolute,
		Motion:   MotionSeek,
		Plane:    coord.PlaneXY,
		NonModal: NonModalNone,
	}
}

// Absolute reports if axis words are absolute coordinates for the
// current block.
func (s ModalState) Absolute() bool {
	return s.Distance == DistanceAbsolute || s.NonModal == NonModalAbsoluteOverride
}

// ToMM converts a length given in the active units to millimeters.
func (s ModalState) ToMM(v float64) float64 {
	if s.Units == UnitsInches {
		return v * coord.MMPerInch
	}
	return v
}

// splitCode returns the integer part and first decimal digit of a G code,
// so G92.1 is (92, 1).
func splitCode(code float64) (int, int) {
	code = math.Abs(code)
	n := int(code)
	return n, int(math.Round((code - float64(n)) * 10))
}

// ApplyGWord returns s updated by a single G word. Unknown codes leave
// the state unchanged.
func ApplyGWord(s ModalState, code float64) ModalState {
	n, sub := splitCode(code)
	switch n {
	case 4:
		s.NonModal = NonModalDwell
	case 10:
		s.NonModal = NonModalSetCoordinateData
	case 28:
		switch sub {
		case 0:
			s.NonModal = NonModalGoHome0
		case 1:
			s.NonModal = NonModalSetHome0
		}
	case 30:
		switch sub {
		case 0:
			s.NonModal = NonModalGoHome1
		case 1:
			s.NonModal = NonModalSetHome1
		}
	case 53:
		s.NonModal = NonModalAbsoluteOverride
	case 92:
		switch sub {
		case 0:
			s.NonModal = NonModalSetCoordinateOffset
		case 1:
			s.NonModal = NonModalResetCoordinateOffset
		}

	case 0:
		s.Motion = MotionSeek
	case 1:
		s.Motion = MotionLinear
	case 2:
		s.Motion = MotionCWArc
	case 3:
		s.Motion = MotionCCWArc
	case 38:
		s.Motion = MotionProbe
	case 80:
		s.Motion = MotionNone

	case 17:
		s.Plane = coord.PlaneXY
	case 18:
		s.Plane = coord.PlaneZX
	case 19:
		s.Plane = coord.PlaneYZ

	case 90:
		s.Distance = DistanceAbsolute
	case 91:
		s.Distance = DistanceIncremental

	case 20:
		s.Units = UnitsInches
	case 21:
		s.Units = UnitsMM
	}

	return s
}
