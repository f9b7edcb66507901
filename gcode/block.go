package gcode

import "strings"

// Block is a single line of G-code, in the order the words appeared.
// A letter may be repeated (e.g. several G words on one line).
type Block []Word

// Arg returns the last value given for w.
func (b Block) Arg(w byte) (bool, float64) {
	for i := len(b) - 1; i >= 0; i-- {
		if b[i].W == w {
			return true, b[i].Arg
		}
	}
	return false, 0
}

// Has reports if the block contains at least one w word.
func (b Block) Has(w byte) bool {
	ok, _ := b.Arg(w)
	return ok
}

// Values returns every value given for w, in insertion order.
func (b Block) Values(w byte) []float64 {
	var res []float64
	for _, g := range b {
		if g.W == w {
			res = append(res, g.Arg)
		}
	}
	return res
}

func (b Block) String() string {
	var s strings.Builder
	for _, w := range b {
		s.WriteString(w.String())
	}
	return s.String()
}
