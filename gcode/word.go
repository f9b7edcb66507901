package gcode

import (
	"strconv"
	"strings"
)

// Word is a letter and its numeric argument, such as G1 or X-2.5.
type Word struct {
	W   byte
	Arg float64
}

// formatFloat writes f with at most prec decimals and no trailing zeros.
func formatFloat(f float64, prec int) string {
	s := strconv.FormatFloat(f, 'f', prec, 64)
	if strings.ContainsRune(s, '.') {
		s = strings.TrimRight(strings.TrimRight(s, "0"), ".")
	}
	return s
}

func (w Word) String() string { return string(w.W) + formatFloat(w.Arg, 4) }
