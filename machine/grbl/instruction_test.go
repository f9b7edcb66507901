package grbl

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewInstruction(t *testing.T) {
	in := NewInstruction("G1 X1!~?\x18@", 4)
	assert.Equal(t, "G1 X1\n", string(in.Bytes()))
	assert.Equal(t, 6, in.Len())
	assert.Equal(t, "G1 X1", in.String())
	assert.Equal(t, 4, in.Line())
	assert.False(t, in.IsBlocking())
	assert.False(t, in.IsZero())

	in = NewCommand("G0 X0\n")
	assert.Equal(t, "G0 X0\n", string(in.Bytes()))
	assert.Equal(t, -1, in.Line())

	in = NewCommand("?")
	assert.Equal(t, 0, in.Len())
}

func TestInstruction_Blocking(t *testing.T) {
	for _, s := range []string{"$$", "$X", "G10 L2 P1 X0", "G10 L20 P1 X0", "G28", "G30.1", "G54", "G59"} {
		assert.True(t, NewCommand(s).IsBlocking(), s)
	}
	for _, s := range []string{"G0 X1", "G1 X1 F100", "M3", "G21"} {
		assert.False(t, NewCommand(s).IsBlocking(), s)
	}

	in := NewCommand("G0 X1")
	forced := in.ForceBlocking()
	assert.True(t, forced.IsBlocking())
	assert.False(t, in.IsBlocking())
	assert.True(t, forced.Same(in))
}

func TestInstruction_Identity(t *testing.T) {
	a := NewCommand("G0 X1")
	b := NewCommand("G0 X1")
	assert.False(t, a.Same(b))
	assert.True(t, b.ID() > a.ID())

	r := a.Regenerate()
	assert.False(t, r.Same(a))
	assert.Equal(t, a.Bytes(), r.Bytes())
	assert.Equal(t, a.Line(), r.Line())

	var zero Instruction
	assert.True(t, zero.IsZero())
	assert.Equal(t, "", zero.String())
}

func TestInstruction_ParameterFetch(t *testing.T) {
	assert.True(t, NewCommand("$$").IsParameterFetch())
	assert.True(t, NewCommand("$$\r").IsParameterFetch())
	assert.False(t, NewCommand("$$ ").IsParameterFetch())
	assert.False(t, NewCommand("$#").IsParameterFetch())
}

func TestInstruction_StringWithLine(t *testing.T) {
	assert.Equal(t, "Line 12 : G1 X1", NewInstruction("G1 X1", 12).StringWithLine())
	assert.Equal(t, "G1 X1", NewCommand("G1 X1").StringWithLine())
}
