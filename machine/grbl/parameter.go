package grbl

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// ReportInchesKey is the setting that switches status reports to inches.
const ReportInchesKey = 13

var paramRx = regexp.MustCompile(`^\$(\d{1,3})=(\d[\d.]*)(\s\((.+)\))?$`)

// Parameter is a single controller setting, as reported by `$$`.
type Parameter struct {
	Key     int
	Value   string
	Caption string
}

// ParseParameter parses a `$key=value (caption)` line.
func ParseParameter(line string) (Parameter, bool) {
	m := paramRx.FindStringSubmatch(line)
	if m == nil {
		return Parameter{}, false
	}
	key, err := strconv.Atoi(m[1])
	if err != nil {
		return Parameter{}, false
	}
	return Parameter{Key: key, Value: m[2], Caption: m[4]}, true
}

// Bool interprets the value as a flag.
func (p Parameter) Bool() bool {
	switch strings.ToLower(p.Value) {
	case "", "0", "false":
		return false
	}
	return true
}

// Float interprets the value as a number.
func (p Parameter) Float() (float64, error) { return strconv.ParseFloat(p.Value, 64) }

// Instruction returns the blocking instruction that writes p to the controller.
func (p Parameter) Instruction() Instruction {
	return NewCommand("$" + strconv.Itoa(p.Key) + "=" + p.Value).ForceBlocking()
}

func (p Parameter) String() string {
	s := "$" + strconv.Itoa(p.Key) + "=" + p.Value
	if p.Caption != "" {
		s += " (" + p.Caption + ")"
	}
	return s
}

// ParameterTable holds settings by key.
type ParameterTable map[int]Parameter

// ReportInches reports if the controller sends positions in inches.
func (t ParameterTable) ReportInches() bool { return t[ReportInchesKey].Bool() }

// Keys returns the setting keys in ascending order.
func (t ParameterTable) Keys() []int {
	keys := make([]int, 0, len(t))
	for k := range t {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}
