package grbl

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/mastercactapus/grblstream/coord"
)

type State int

const (
	StateUnknown State = iota
	StateIdle
	StateRun
	StateHold
	StateDoor
	StateHome
	StateAlarm
	StateCheck
	StateOffline
)

// stateWords are matched against the start of a status report in order.
var stateWords = []struct {
	word  string
	state State
}{
	{"Idle", StateIdle},
	{"Run", StateRun},
	{"Hold", StateHold},
	{"Door", StateDoor},
	{"Home", StateHome},
	{"Alarm", StateAlarm},
	{"Check", StateCheck},
}

func (s State) String() string {
	switch s {
	case StateIdle:
		return "Ready"
	case StateRun:
		return "Running"
	case StateHold:
		return "Feed hold"
	case StateDoor:
		return "Door"
	case StateHome:
		return "Homing"
	case StateAlarm:
		return "Alarm"
	case StateCheck:
		return "Simulation"
	case StateOffline:
		return "Offline"
	}
	return "Unknown"
}

const coordRx = `(-?\d+(?:\.\d+)?),(-?\d+(?:\.\d+)?),(-?\d+(?:\.\d+)?)`

var (
	mposRx = regexp.MustCompile(`MPos:` + coordRx)
	wposRx = regexp.MustCompile(`WPos:` + coordRx)
	bufRx  = regexp.MustCompile(`Buf:(\d+)`)
	rxRx   = regexp.MustCompile(`RX:(\d+)`)
)

// Status is a single status report. Fields the report did not carry are nil.
type Status struct {
	State State

	// Prev is the state of the report before this one.
	Prev *State

	// Inches is set if positions are reported in inches.
	Inches bool

	MPos *coord.Point
	WPos *coord.Point

	// Buf is the number of motions queued in the planner.
	Buf *int
	// RX is the number of characters in the receive buffer.
	RX *int
}

// NewStatus returns the status of a connection with no report yet.
func NewStatus(online bool) Status {
	if online {
		return Status{State: StateUnknown}
	}
	return Status{State: StateOffline}
}

func parseCoords(m []string) *coord.Point {
	var p coord.Point
	for i, s := range m[1:4] {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil
		}
		p = p.SetAxis(i, v)
	}
	return &p
}

func parseCount(rx *regexp.Regexp, data string) *int {
	m := rx.FindStringSubmatch(data)
	if m == nil {
		return nil
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return nil
	}
	return &n
}

// ParseStatus parses a `<...>` status report. If prev is non-nil its
// state is kept as the previous state.
func ParseStatus(data string, inches bool, prev *Status) Status {
	data = strings.TrimSpace(data)
	data = strings.TrimPrefix(data, "<")
	data = strings.TrimSuffix(data, ">")

	stat := Status{State: StateUnknown, Inches: inches}
	if prev != nil {
		s := prev.State
		stat.Prev = &s
	}

	for _, w := range stateWords {
		if strings.HasPrefix(data, w.word) {
			stat.State = w.state
			break
		}
	}

	if m := mposRx.FindStringSubmatch(data); m != nil {
		stat.MPos = parseCoords(m)
	}
	if m := wposRx.FindStringSubmatch(data); m != nil {
		stat.WPos = parseCoords(m)
	}
	stat.Buf = parseCount(bufRx, data)
	stat.RX = parseCount(rxRx, data)

	return stat
}

func (s Status) IsOnline() bool  { return s.State != StateOffline }
func (s Status) IsKnown() bool   { return s.State != StateOffline && s.State != StateUnknown }
func (s Status) IsAlarm() bool   { return s.State == StateAlarm }
func (s Status) IsCheck() bool   { return s.State == StateCheck }
func (s Status) IsNominal() bool { return s.State == StateIdle || s.State == StateRun }

// Changed reports if the state differs from the previous report.
func (s Status) Changed() bool { return s.Prev == nil || *s.Prev != s.State }

func (s Status) toMM(p *coord.Point) (coord.Point, bool) {
	if p == nil {
		return coord.Point{}, false
	}
	if s.Inches {
		return p.Mul(coord.MMPerInch), true
	}
	return *p, true
}

// MPosMM returns the machine position in millimeters.
func (s Status) MPosMM() (coord.Point, bool) { return s.toMM(s.MPos) }

// WPosMM returns the work position in millimeters.
func (s Status) WPosMM() (coord.Point, bool) { return s.toMM(s.WPos) }
