package grbl

import (
	"errors"
	"regexp"
	"strconv"
)

// ErrClosed is returned when the board has no open transport.
var ErrClosed = errors.New("grbl: transport closed")

var errorIDRx = regexp.MustCompile(`error: Invalid gcode ID:(\d\d)`)

var errorText = map[int]string{
	23: "This G-code command MUST be an integer",
	24: "Block contains 2 G-code commands that both require the XYZ axis words",
	25: "Block contains repeated G-code word",
	26: "Command requires XYZ axis word",
	27: "Line number cannot exceed 9 999 999",
	28: "Missing P or L value word",
	29: "Unsupported work coordinate system",
	30: "G53 requires either a G0 or G1 mode to be active",
	31: "Unused axis words and G80 is active",
	32: "Command requires XYZ axis word",
	33: "Invalid target (check arc definition)",
	34: "Error computing arc geometry",
	35: "Missing the IJK offset word in the selected plane",
	36: "Unused G-code words detected",
	37: "G43.1 can only apply on its configured axis",
}

// TranslateError appends a readable explanation to a gcode error line
// if its id is known.
func TranslateError(line string) string {
	m := errorIDRx.FindStringSubmatch(line)
	if m == nil {
		return line
	}
	id, _ := strconv.Atoi(m[1])
	if text, ok := errorText[id]; ok {
		return line + " : " + text
	}
	return line
}
