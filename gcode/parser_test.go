package gcode

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStripComment(t *testing.T) {
	assert.Equal(t, "G1 X1", StripComment("G1 X1 (move over) ; more"))
	assert.Equal(t, "G0 Z5", StripComment("  G0 Z5;lift  "))
	assert.Equal(t, "", StripComment("%"))
	assert.Equal(t, "", StripComment("(header)"))
	assert.Equal(t, "M3", StripComment("M3"))
}

func TestParseLine(t *testing.T) {
	b := ParseLine("g1 x10 y-2.5")
	assert.Equal(t, Block{{W: 'G', Arg: 1}, {W: 'X', Arg: 10}, {W: 'Y', Arg: -2.5}}, b)

	b = ParseLine("G0G90 G21")
	assert.Equal(t, []float64{0, 90, 21}, b.Values('G'))

	// leading garbage before the first letter is skipped
	b = ParseLine("12 G0")
	assert.Equal(t, Block{{W: 'G', Arg: 0}}, b)

	// unparsable values drop only that word
	b = ParseLine("G1 X1.2.3 Y2")
	assert.Equal(t, Block{{W: 'G', Arg: 1}, {W: 'Y', Arg: 2}}, b)

	assert.Nil(t, ParseLine("   "))
	assert.Nil(t, ParseLine("123"))
}

func TestBlock_Arg(t *testing.T) {
	b := ParseLine("X1 Y2 X3")

	ok, v := b.Arg('X')
	assert.True(t, ok)
	assert.Equal(t, 3.0, v)

	ok, _ = b.Arg('Z')
	assert.False(t, ok)

	assert.True(t, b.Has('Y'))
	assert.Equal(t, "X1Y2X3", b.String())
}
