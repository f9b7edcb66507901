package grbl

import (
	"bytes"
	"strconv"
	"strings"
	"sync/atomic"
)

// ID identifies a single send request. Two instructions with the same
// text are still different requests unless their IDs match.
type ID uint64

var lastID uint64

func nextID() ID { return ID(atomic.AddUint64(&lastID, 1)) }

// Realtime commands are single bytes picked out of the stream by grbl
// as soon as they arrive. They never occupy the receive buffer.
const (
	cmdPause      = '!'
	cmdResume     = '~'
	cmdStatus     = '?'
	cmdSoftReset  = 0x18
	cmdSafetyDoor = '@'
)

// blockingPrefixes are instructions that must be answered before
// anything else is sent. Any $ command is treated as touching EEPROM.
var blockingPrefixes = []string{"$", "G10 L2", "G10 L20", "G28", "G30", "G54", "G55", "G56", "G57", "G58", "G59"}

// CmdParameters fetches the full settings table.
const CmdParameters = "$$"

// Instruction is a single line of text queued for the controller.
//
// The zero value is "no instruction".
type Instruction struct {
	id       ID
	data     []byte
	line     int
	blocking bool
}

// NewInstruction creates an Instruction from program text. Realtime
// characters are removed and a trailing newline added if needed. Line
// is the source line number, or -1 if the instruction is not from a
// program.
func NewInstruction(text string, line int) Instruction {
	data := bytes.Map(func(r rune) rune {
		switch r {
		case cmdPause, cmdResume, cmdStatus, cmdSoftReset, cmdSafetyDoor:
			return -1
		}
		return r
	}, []byte(text))
	if len(data) > 0 && data[len(data)-1] != '\n' {
		data = append(data, '\n')
	}

	in := Instruction{id: nextID(), data: data, line: line}
	for _, p := range blockingPrefixes {
		if bytes.HasPrefix(data, []byte(p)) {
			in.blocking = true
			break
		}
	}
	return in
}

// NewCommand creates an Instruction that is not part of a program.
func NewCommand(text string) Instruction { return NewInstruction(text, -1) }

func (in Instruction) ID() ID           { return in.id }
func (in Instruction) Line() int        { return in.line }
func (in Instruction) IsBlocking() bool { return in.blocking }
func (in Instruction) IsZero() bool     { return in.id == 0 }

// Len is the number of bytes the instruction occupies in the receive buffer.
func (in Instruction) Len() int { return len(in.data) }

// Bytes returns the wire form of the instruction. It must not be modified.
func (in Instruction) Bytes() []byte { return in.data }

// String returns the instruction text without the line terminator.
func (in Instruction) String() string { return strings.TrimRight(string(in.data), "\r\n") }

// Same reports if in and other are the same request.
func (in Instruction) Same(other Instruction) bool { return in.id == other.id }

// Regenerate returns a copy of in with a fresh ID, for sending the same
// text again as a new request.
func (in Instruction) Regenerate() Instruction {
	in.id = nextID()
	return in
}

// ForceBlocking returns a copy of in that is always blocking.
func (in Instruction) ForceBlocking() Instruction {
	in.blocking = true
	return in
}

// IsParameterFetch reports if in requests the settings table.
func (in Instruction) IsParameterFetch() bool { return in.String() == CmdParameters }

// StringWithLine prefixes the text with its source line, if known.
func (in Instruction) StringWithLine() string {
	if in.line > 0 {
		return "Line " + strconv.Itoa(in.line) + " : " + in.String()
	}
	return in.String()
}
