package machine

import (
	"testing"

	"github.com/mastercactapus/grblstream/machine/grbl"
	"github.com/stretchr/testify/assert"
)

func TestErrorRecorder(t *testing.T) {
	var r ErrorRecorder
	r.Add(grbl.NewInstruction("G2 X1", 12), "error: Invalid gcode ID:33")
	r.Add(grbl.NewCommand("G5"), "error: Unsupported command")

	assert.Equal(t, 2, r.Count())
	assert.Equal(t,
		"Line 12 : G2 X1    error: Invalid gcode ID:33\nG5    error: Unsupported command",
		r.Summary(),
	)

	r.Clear()
	assert.Equal(t, 0, r.Count())
	assert.Empty(t, r.Errors())
}
