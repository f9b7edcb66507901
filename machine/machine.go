package machine

import (
	"log"

	"github.com/mastercactapus/grblstream/gcode"
	"github.com/mastercactapus/grblstream/machine/grbl"
	"github.com/mastercactapus/grblstream/stream"
)

type Config struct {
	Board grbl.BoardConfig

	// HistoryLength is the number of top-level history entries kept.
	HistoryLength int

	// HoldOnError pauses the controller when it rejects an instruction
	// while a program is running.
	HoldOnError bool
}

// Machine connects a board, a sequencer and an interpreter.
//
// Except for Loop, all fields and methods must only be used from tasks
// running on Loop.
type Machine struct {
	Loop *Loop

	Board       *grbl.Board
	Sequencer   *stream.Sequencer
	Interpreter *gcode.Interpreter
	History     *History
	Errors      *ErrorRecorder

	holdOnError bool

	primitives []gcode.Primitive
	primSubs   []func(gcode.Primitive)
}

// NewMachine creates a Machine whose components run on l.
func NewMachine(l *Loop, cfg Config) *Machine {
	m := &Machine{
		Loop:        l,
		Board:       grbl.NewBoard(l, cfg.Board),
		Interpreter: gcode.NewInterpreter(),
		History:     NewHistory(cfg.HistoryLength),
		Errors:      &ErrorRecorder{},
		holdOnError: cfg.HoldOnError,
	}
	m.Sequencer = stream.NewSequencer(m.Board, l)

	m.Board.Subscribe(m.handleBoard)
	m.Sequencer.Subscribe(m.handleSequencer)
	return m
}

func (m *Machine) handleBoard(e grbl.Event) {
	switch e.Type {
	case grbl.EventSent:
		m.Sequencer.OnSent(e.Instruction)
		m.History.OnSent(e.Instruction)
	case grbl.EventOK:
		m.Sequencer.OnOK(e.Instruction)
		m.History.OnOK(e.Instruction)
	case grbl.EventStatus:
		m.onStatus(*e.Status)
	case grbl.EventStartup:
		m.Sequencer.Stop()
		m.History.OnStartup(e.Message, e.Startup)
	case grbl.EventError:
		m.History.OnError(e.Instruction, e.Message)
		m.onError(e.Instruction, e.Message)
	case grbl.EventAlarm:
		m.History.OnAlarm(e.Instruction, e.Message)
	case grbl.EventFeedback, grbl.EventText:
		m.History.OnFeedback(e.Instruction, e.Message)
	}
}

func (m *Machine) onStatus(st grbl.Status) {
	// a simulation starts and ends with an empty error list
	wasCheck := st.Prev != nil && *st.Prev == grbl.StateCheck
	if st.Changed() && wasCheck != st.IsCheck() {
		m.Errors.Clear()
	}
	m.Sequencer.OnStatus(st)
}

func (m *Machine) onError(in grbl.Instruction, msg string) {
	if m.Board.LastStatus().IsCheck() {
		m.Errors.Add(in, msg)
		return
	}
	if m.holdOnError && m.Sequencer.State() == stream.StateRunning {
		log.Println("ERROR: controller rejected instruction, feed hold:", in.StringWithLine(), msg)
		m.Board.Pause()
	}
}

func (m *Machine) handleSequencer(e stream.Event) {
	switch e.Type {
	case stream.EventLoaded:
		p := m.Interpreter.Process(e.Instruction)
		if p == nil {
			return
		}
		m.primitives = append(m.primitives, *p)
		for _, fn := range m.primSubs {
			fn(*p)
		}
	case stream.EventCleared:
		m.Interpreter.Reset()
		m.primitives = nil
	}
}

// SubscribePrimitives registers fn to be called with the geometry of
// each loaded instruction that moves the machine.
func (m *Machine) SubscribePrimitives(fn func(gcode.Primitive)) {
	m.primSubs = append(m.primSubs, fn)
}

// Primitives returns the geometry of the loaded program.
func (m *Machine) Primitives() []gcode.Primitive {
	return append([]gcode.Primitive(nil), m.primitives...)
}

// Send queues a single manual instruction. It returns false if the board
// cannot accept it now.
func (m *Machine) Send(text string) bool {
	return m.Board.TrySend(grbl.NewCommand(text))
}

// WriteParameter changes a controller setting.
func (m *Machine) WriteParameter(p grbl.Parameter) bool {
	return m.Board.TrySend(p.Instruction())
}

// FetchParameters asks the controller for its settings table.
func (m *Machine) FetchParameters() bool {
	return m.Board.TrySend(grbl.NewCommand(grbl.CmdParameters))
}
