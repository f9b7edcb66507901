// Package stream feeds a loaded program to a grbl board one instruction
// at a time.
package stream

import (
	"bufio"
	"errors"
	"fmt"
	"io"

	"github.com/mastercactapus/grblstream/gcode"
	"github.com/mastercactapus/grblstream/machine/grbl"
)

// ErrNoProgram is returned when running without a loaded program.
var ErrNoProgram = errors.New("stream: no program loaded")

// maxLineLength bounds a single program line.
const maxLineLength = 1024 * 1024

type State int

const (
	StateClear State = iota
	StateReady
	StateRunning
)

func (s State) String() string {
	switch s {
	case StateClear:
		return "clear"
	case StateReady:
		return "ready"
	case StateRunning:
		return "running"
	}
	return "unknown"
}

// Sender accepts instructions for the controller, or refuses them if
// it cannot take them now.
type Sender interface {
	TrySend(in grbl.Instruction) bool
}

// Deferrer runs fn after the current event has been fully handled.
type Deferrer interface {
	Defer(fn func())
}

type EventType int

const (
	EventLoaded EventType = iota
	EventCleared
	EventStateChanged
	EventLineCount
	EventCurrentLine
	EventWorkCompleted
)

func (t EventType) String() string {
	switch t {
	case EventLoaded:
		return "loaded"
	case EventCleared:
		return "cleared"
	case EventStateChanged:
		return "state"
	case EventLineCount:
		return "linecount"
	case EventCurrentLine:
		return "line"
	case EventWorkCompleted:
		return "completed"
	}
	return "unknown"
}

type Event struct {
	Type EventType

	// Instruction is set for EventLoaded.
	Instruction grbl.Instruction

	// State is set for EventStateChanged.
	State State

	// Line is the line count for EventLineCount and a source line
	// number for EventCurrentLine.
	Line int
}

// Sequencer holds a program and streams it to a Sender.
//
// Only useful lines (not blank, not only a comment) are kept, with their
// source line numbers. Like the board, a Sequencer must only be used
// from one goroutine.
type Sequencer struct {
	sender   Sender
	deferrer Deferrer

	program []grbl.Instruction
	cursor  int
	run     bool

	// lastParsed is the last source line the board acknowledged.
	lastParsed int
	lineCount  int

	subs []func(Event)
}

// NewSequencer creates an empty Sequencer.
func NewSequencer(s Sender, d Deferrer) *Sequencer {
	return &Sequencer{sender: s, deferrer: d}
}

// Subscribe registers fn to be called with every event, in order.
func (s *Sequencer) Subscribe(fn func(Event)) { s.subs = append(s.subs, fn) }

func (s *Sequencer) emit(e Event) {
	for _, fn := range s.subs {
		fn(e)
	}
}

func (s *Sequencer) emitState() { s.emit(Event{Type: EventStateChanged, State: s.State()}) }

// State returns the current state.
func (s *Sequencer) State() State {
	switch {
	case len(s.program) == 0:
		return StateClear
	case s.run:
		return StateRunning
	}
	return StateReady
}

// Len returns the number of useful instructions loaded.
func (s *Sequencer) Len() int { return len(s.program) }

// LineCount returns the number of lines in the loaded source, including
// blank and comment lines.
func (s *Sequencer) LineCount() int { return s.lineCount }

// Program returns the loaded instructions.
func (s *Sequencer) Program() []grbl.Instruction {
	return append([]grbl.Instruction(nil), s.program...)
}

// LastConfirmedLine is the last source line the board accepted.
func (s *Sequencer) LastConfirmedLine() int { return s.lastParsed }

// CurrentLine returns the source line of the next instruction to send.
// After the last instruction is sent it stays on the last line.
func (s *Sequencer) CurrentLine() int {
	if len(s.program) == 0 {
		return 0
	}
	i := s.cursor
	if i > len(s.program)-1 {
		i = len(s.program) - 1
	}
	return s.program[i].Line()
}

// Load replaces the program with the contents of r. If r fails, the
// sequencer is left cleared.
func (s *Sequencer) Load(r io.Reader) error {
	s.Clear()

	scan := bufio.NewScanner(r)
	scan.Buffer(make([]byte, 4096), maxLineLength)
	for scan.Scan() {
		s.lineCount++
		text := gcode.StripComment(scan.Text())
		if text == "" {
			continue
		}
		in := grbl.NewInstruction(text, s.lineCount)
		s.program = append(s.program, in)
		s.emit(Event{Type: EventLoaded, Instruction: in})
	}
	if err := scan.Err(); err != nil {
		// a partial program is never kept
		s.Clear()
		return fmt.Errorf("read program: %w", err)
	}

	s.emit(Event{Type: EventLineCount, Line: s.lineCount})
	s.emitState()
	s.Rewind()
	return nil
}

// Clear drops the program.
func (s *Sequencer) Clear() {
	s.Rewind()
	s.run = false
	s.program = nil
	s.lineCount = 0
	s.emit(Event{Type: EventLineCount})
	s.emitState()
	s.emit(Event{Type: EventCleared})
}

// Rewind moves back to the start of the program.
func (s *Sequencer) Rewind() { s.GoToLine(0) }

// GoToLine moves the cursor to the first useful line at or after line.
// Lines before the first or after the last useful line go to the first
// or last instruction.
func (s *Sequencer) GoToLine(line int) {
	s.cursor = 0
	s.lastParsed = 0
	if len(s.program) == 0 {
		return
	}

	s.cursor = len(s.program) - 1
	for i, in := range s.program {
		if in.Line() >= line {
			s.cursor = i
			break
		}
	}
	if s.cursor > 0 {
		s.lastParsed = s.program[s.cursor-1].Line()
	}

	s.emit(Event{Type: EventCurrentLine, Line: s.CurrentLine()})
}

// Go starts streaming from the cursor.
func (s *Sequencer) Go() error {
	if len(s.program) == 0 {
		return ErrNoProgram
	}
	s.run = true
	s.trySend()
	s.emitState()
	return nil
}

// Step sends the instruction at the cursor without streaming the rest.
func (s *Sequencer) Step() error {
	if len(s.program) == 0 {
		return ErrNoProgram
	}
	s.run = false
	s.trySend()
	s.emitState()
	return nil
}

// Stop stops streaming. Instructions already sent are not recalled.
func (s *Sequencer) Stop() {
	s.run = false
	s.emitState()
}

func (s *Sequencer) trySend() {
	if s.cursor >= len(s.program) {
		return
	}
	s.program[s.cursor] = s.program[s.cursor].Regenerate()
	s.sender.TrySend(s.program[s.cursor])
}

func (s *Sequencer) sendLater() {
	s.deferrer.Defer(func() {
		if s.run {
			s.trySend()
		}
	})
}

// OnSent advances the cursor if in is the instruction it points at.
func (s *Sequencer) OnSent(in grbl.Instruction) {
	if s.cursor >= len(s.program) || !in.Same(s.program[s.cursor]) {
		return
	}
	s.cursor++
	if s.run {
		s.sendLater()
	}
}

// OnOK records that the board accepted in.
func (s *Sequencer) OnOK(in grbl.Instruction) {
	if in.Line() >= 0 {
		s.lastParsed = in.Line()
	}
	if s.run {
		s.sendLater()
	}
}

// OnStatus reports the executed line and detects the end of the program.
// Nothing is done if the report does not carry the planner depth.
func (s *Sequencer) OnStatus(stat grbl.Status) {
	if stat.Buf == nil {
		return
	}
	executed := s.lastParsed - *stat.Buf
	s.emit(Event{Type: EventCurrentLine, Line: executed})

	if !s.run || len(s.program) == 0 {
		return
	}
	if executed == s.program[len(s.program)-1].Line() && stat.State != grbl.StateRun {
		s.run = false
		s.emit(Event{Type: EventWorkCompleted})
		s.emitState()
	}
}
