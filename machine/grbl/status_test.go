package grbl

import (
	"testing"

	"github.com/mastercactapus/grblstream/coord"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStatus(t *testing.T) {
	stat := ParseStatus("<Run,MPos:1.000,-2.500,3.000,WPos:0.000,0.000,0.000,Buf:5,RX:20>", false, nil)
	assert.Equal(t, StateRun, stat.State)
	assert.Nil(t, stat.Prev)

	require.NotNil(t, stat.MPos)
	assert.Equal(t, coord.Point{X: 1, Y: -2.5, Z: 3}, *stat.MPos)
	require.NotNil(t, stat.WPos)
	assert.Equal(t, coord.Point{}, *stat.WPos)
	require.NotNil(t, stat.Buf)
	assert.Equal(t, 5, *stat.Buf)
	require.NotNil(t, stat.RX)
	assert.Equal(t, 20, *stat.RX)
}

func TestParseStatus_Optional(t *testing.T) {
	prev := ParseStatus("<Run,MPos:0.000,0.000,0.000>", false, nil)
	stat := ParseStatus("<Idle>", false, &prev)

	assert.Equal(t, StateIdle, stat.State)
	require.NotNil(t, stat.Prev)
	assert.Equal(t, StateRun, *stat.Prev)
	assert.True(t, stat.Changed())
	assert.Nil(t, stat.MPos)
	assert.Nil(t, stat.WPos)
	assert.Nil(t, stat.Buf)
	assert.Nil(t, stat.RX)

	_, ok := stat.MPosMM()
	assert.False(t, ok)
}

func TestParseStatus_State(t *testing.T) {
	cases := map[string]State{
		"<Idle>":     StateIdle,
		"<Run>":      StateRun,
		"<Hold:0>":   StateHold,
		"<Door>":     StateDoor,
		"<Home>":     StateHome,
		"<Alarm>":    StateAlarm,
		"<Check>":    StateCheck,
		"<Sleeping>": StateUnknown,
	}
	for line, exp := range cases {
		assert.Equal(t, exp, ParseStatus(line, false, nil).State, line)
	}
}

func TestStatus_Inches(t *testing.T) {
	stat := ParseStatus("<Idle,MPos:1.000,0.000,0.000,WPos:1.000,0.000,0.000>", true, nil)
	assert.True(t, stat.Inches)

	p, ok := stat.MPosMM()
	assert.True(t, ok)
	assert.InDelta(t, 25.4, p.X, 1e-9)

	// raw values are left as reported
	assert.Equal(t, 1.0, stat.WPos.X)
}

func TestStatus_Helpers(t *testing.T) {
	off := NewStatus(false)
	assert.False(t, off.IsOnline())
	assert.False(t, off.IsKnown())
	assert.Equal(t, "Offline", off.State.String())

	unk := NewStatus(true)
	assert.True(t, unk.IsOnline())
	assert.False(t, unk.IsKnown())

	stat := ParseStatus("<Alarm>", false, nil)
	assert.True(t, stat.IsAlarm())
	assert.False(t, stat.IsNominal())
	assert.True(t, ParseStatus("<Check>", false, nil).IsCheck())
	assert.True(t, ParseStatus("<Idle>", false, nil).IsNominal())
	assert.Equal(t, "Feed hold", StateHold.String())
}
