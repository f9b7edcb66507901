package grbl

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseParameter(t *testing.T) {
	p, ok := ParseParameter("$13=1 (report inches, bool)")
	assert.True(t, ok)
	assert.Equal(t, Parameter{Key: 13, Value: "1", Caption: "report inches, bool"}, p)
	assert.True(t, p.Bool())

	p, ok = ParseParameter("$110=500.000")
	assert.True(t, ok)
	assert.Equal(t, 110, p.Key)
	v, err := p.Float()
	assert.NoError(t, err)
	assert.Equal(t, 500.0, v)
	assert.Equal(t, "", p.Caption)

	for _, s := range []string{"$1234=1", "$N0=", "$1=-1", "ok", "$1=a"} {
		_, ok = ParseParameter(s)
		assert.False(t, ok, s)
	}
}

func TestParameter_Instruction(t *testing.T) {
	in := Parameter{Key: 100, Value: "250.000"}.Instruction()
	assert.Equal(t, "$100=250.000", in.String())
	assert.True(t, in.IsBlocking())
}

func TestParameterTable(t *testing.T) {
	tbl := ParameterTable{}
	assert.False(t, tbl.ReportInches())

	tbl[13] = Parameter{Key: 13, Value: "0"}
	tbl[2] = Parameter{Key: 2, Value: "0"}
	assert.False(t, tbl.ReportInches())
	assert.Equal(t, []int{2, 13}, tbl.Keys())

	tbl[13] = Parameter{Key: 13, Value: "1"}
	assert.True(t, tbl.ReportInches())
}

func TestTranslateError(t *testing.T) {
	assert.Equal(t,
		"error: Invalid gcode ID:33 : Invalid target (check arc definition)",
		TranslateError("error: Invalid gcode ID:33"),
	)
	assert.Equal(t, "error: Invalid gcode ID:99", TranslateError("error: Invalid gcode ID:99"))
	assert.Equal(t, "error: Bad number format", TranslateError("error: Bad number format"))
}
