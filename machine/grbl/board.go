package grbl

import (
	"bytes"
	"log"
	"strings"
	"time"
)

const (
	// DefaultCapacity is the size of grbl's serial receive buffer.
	DefaultCapacity = 127

	DefaultStatusInterval = 250 * time.Millisecond

	// realtimeSettle is how long grbl needs to act on a realtime command
	// before its status is worth asking for.
	realtimeSettle = 200 * time.Millisecond

	startupDelay = 100 * time.Millisecond

	lineSep      = "\r\n"
	respOK       = "ok"
	respError    = "error:"
	respAlarm    = "ALARM:"
	respVersion  = "Grbl "
	statusStart  = "<"
	statusEnd    = ">"
	feedbackOpen = "["
	feedbackEnd  = "]"
)

// Transport is where instruction bytes are written.
type Transport interface {
	IsOpen() bool
	Write(p []byte) (int, error)
}

// Scheduler runs fn once after d. The returned func cancels it.
type Scheduler interface {
	After(d time.Duration, fn func()) (cancel func())
}

type EventType int

const (
	EventStartup EventType = iota
	EventOK
	EventError
	EventAlarm
	EventFeedback
	EventText
	EventStatus
	EventParameters
	EventSent
)

func (t EventType) String() string {
	switch t {
	case EventStartup:
		return "startup"
	case EventOK:
		return "ok"
	case EventError:
		return "error"
	case EventAlarm:
		return "alarm"
	case EventFeedback:
		return "feedback"
	case EventText:
		return "text"
	case EventStatus:
		return "status"
	case EventParameters:
		return "parameters"
	case EventSent:
		return "sent"
	}
	return "unknown"
}

// Event is something the board observed.
//
// Instruction is the head of the in-flight queue when the line arrived
// (or the instruction just written, for EventSent). grbl does not echo
// requests, so this pairing assumes responses arrive in send order.
type Event struct {
	Type        EventType
	Instruction Instruction

	// Message is the response line, translated for EventError.
	Message string

	Status     *Status
	Parameters ParameterTable

	// Startup holds the instructions about to be sent after a reset.
	Startup []Instruction
}

type BoardConfig struct {
	// Capacity is the size of the controller receive buffer in bytes.
	Capacity int

	StatusInterval time.Duration

	// Startup instructions are sent every time the controller reports
	// its version banner. Defaults to a parameter fetch.
	Startup []Instruction
}

// Board tracks the state of a grbl controller: what is in its receive
// buffer, its last status and its settings.
//
// Board is not safe for concurrent use; all calls, including HandleData
// and scheduled callbacks, must come from a single goroutine.
type Board struct {
	sched Scheduler
	t     Transport

	capacity int
	interval time.Duration
	startup  []Instruction

	inFlight []Instruction
	partial  []byte

	status  Status
	params  ParameterTable
	filling ParameterTable

	subs     []func(Event)
	stopPoll func()
}

// NewBoard creates a Board with no transport.
func NewBoard(sched Scheduler, cfg BoardConfig) *Board {
	if cfg.Capacity <= 0 {
		cfg.Capacity = DefaultCapacity
	}
	if cfg.StatusInterval <= 0 {
		cfg.StatusInterval = DefaultStatusInterval
	}
	if cfg.Startup == nil {
		cfg.Startup = []Instruction{NewCommand(CmdParameters)}
	}
	return &Board{
		sched:    sched,
		capacity: cfg.Capacity,
		interval: cfg.StatusInterval,
		startup:  append([]Instruction(nil), cfg.Startup...),
		status:   NewStatus(false),
		params:   make(ParameterTable),
		filling:  make(ParameterTable),
	}
}

// Subscribe registers fn to be called with every event, in order.
func (b *Board) Subscribe(fn func(Event)) { b.subs = append(b.subs, fn) }

func (b *Board) emit(e Event) {
	for _, fn := range b.subs {
		fn(e)
	}
}

func (b *Board) emitStatus() {
	stat := b.status
	b.emit(Event{Type: EventStatus, Instruction: b.head(), Status: &stat})
}

// Open attaches t and soft-resets the controller so it starts from a
// known state.
func (b *Board) Open(t Transport) {
	b.stopPolling()
	b.t = t
	b.inFlight = nil
	b.partial = nil
	b.status = NewStatus(true)
	b.emitStatus()
	b.SoftReset()
}

// Close detaches the transport and reports the board offline.
func (b *Board) Close() {
	b.stopPolling()
	b.t = nil
	b.inFlight = nil
	b.partial = nil
	b.status = NewStatus(false)
	b.emitStatus()
}

// IsOpen reports if the transport is attached and open.
func (b *Board) IsOpen() bool { return b.t != nil && b.t.IsOpen() }

// LastStatus returns the last status report.
func (b *Board) LastStatus() Status { return b.status }

// Parameters returns the last complete settings table.
func (b *Board) Parameters() ParameterTable { return b.params }

// InFlight returns the instructions believed to be in the receive buffer,
// oldest first.
func (b *Board) InFlight() []Instruction {
	return append([]Instruction(nil), b.inFlight...)
}

// Available returns the free space in the receive buffer.
func (b *Board) Available() int {
	n := b.capacity
	for _, in := range b.inFlight {
		n -= in.Len()
	}
	return n
}

func (b *Board) blockingInFlight() bool {
	for _, in := range b.inFlight {
		if in.IsBlocking() {
			return true
		}
	}
	return false
}

// SetStatusInterval changes the status polling period. It takes effect
// at the next poll.
func (b *Board) SetStatusInterval(d time.Duration) {
	if d > 0 {
		b.interval = d
	}
}

// TrySend writes in to the transport if the controller can accept it
// now. It returns false, without side effects, if the transport is
// closed, a blocking instruction is still in flight, or in does not
// fit in the remaining buffer space.
func (b *Board) TrySend(in Instruction) bool {
	if !b.IsOpen() || b.blockingInFlight() {
		return false
	}
	if in.Len() == 0 || in.Len() > b.Available() {
		return false
	}

	n, err := b.t.Write(in.Bytes())
	if err != nil {
		log.Println("ERROR: write instruction:", err)
		return false
	}
	if n <= 0 {
		return false
	}

	b.inFlight = append(b.inFlight, in)
	b.emit(Event{Type: EventSent, Instruction: in})
	return true
}

func (b *Board) sendStartup() {
	for _, in := range b.startup {
		b.TrySend(in)
	}
}

func (b *Board) realtime(c byte) {
	if !b.IsOpen() {
		return
	}
	_, err := b.t.Write([]byte{c})
	if err != nil {
		log.Printf("ERROR: write realtime command 0x%02x: %v", c, err)
	}
}

// RequestStatus asks for a status report.
func (b *Board) RequestStatus() { b.realtime(cmdStatus) }

// SoftReset resets the controller without losing position.
func (b *Board) SoftReset() { b.realtime(cmdSoftReset) }

// Pause enters feed hold.
func (b *Board) Pause() {
	b.realtime(cmdPause)
	b.sched.After(realtimeSettle, b.RequestStatus)
}

// Resume leaves feed hold.
func (b *Board) Resume() {
	b.realtime(cmdResume)
	b.sched.After(realtimeSettle, b.RequestStatus)
}

// SafetyDoor acts as if the safety door was opened.
func (b *Board) SafetyDoor() {
	b.realtime(cmdSafetyDoor)
	b.sched.After(realtimeSettle, b.RequestStatus)
}

func (b *Board) startPolling() {
	b.stopPolling()
	var tick func()
	tick = func() {
		b.RequestStatus()
		b.stopPoll = b.sched.After(b.interval, tick)
	}
	b.stopPoll = b.sched.After(b.interval, tick)
}

func (b *Board) stopPolling() {
	if b.stopPoll != nil {
		b.stopPoll()
		b.stopPoll = nil
	}
}

// HandleData processes bytes read from the transport. Incomplete lines
// are kept until the rest arrives.
func (b *Board) HandleData(p []byte) {
	b.partial = append(b.partial, p...)
	for {
		i := bytes.Index(b.partial, []byte(lineSep))
		if i < 0 {
			return
		}
		line := string(b.partial[:i])
		b.partial = b.partial[i+len(lineSep):]
		b.handleLine(line)
	}
}

func (b *Board) head() Instruction {
	if len(b.inFlight) == 0 {
		return Instruction{}
	}
	return b.inFlight[0]
}

func (b *Board) dequeue() {
	if len(b.inFlight) > 0 {
		b.inFlight = b.inFlight[1:]
	}
}

func (b *Board) handleLine(line string) {
	head := b.head()

	switch {
	case line == respOK:
		b.dequeue()
		if head.IsParameterFetch() {
			b.params, b.filling = b.filling, make(ParameterTable)
			b.emit(Event{Type: EventParameters, Instruction: head, Parameters: b.params})
		}
		b.emit(Event{Type: EventOK, Instruction: head, Message: line})

	case strings.HasPrefix(line, respError):
		b.dequeue()
		b.emit(Event{Type: EventError, Instruction: head, Message: TranslateError(line)})

	case strings.HasPrefix(line, respAlarm):
		b.emit(Event{Type: EventAlarm, Instruction: head, Message: line})

	case strings.HasPrefix(line, statusStart) && strings.HasSuffix(line, statusEnd):
		b.status = ParseStatus(line, b.params.ReportInches(), &b.status)
		b.emitStatus()

	case strings.HasPrefix(line, feedbackOpen) && strings.HasSuffix(line, feedbackEnd):
		b.emit(Event{Type: EventFeedback, Instruction: head, Message: line})

	case strings.HasPrefix(line, respVersion):
		b.inFlight = nil
		b.RequestStatus()
		b.startPolling()

		for i := range b.startup {
			b.startup[i] = b.startup[i].Regenerate()
		}
		startup := append([]Instruction(nil), b.startup...)
		b.emit(Event{Type: EventStartup, Message: line, Startup: startup})

		b.sched.After(startupDelay, b.sendStartup)

	default:
		if p, ok := ParseParameter(line); ok {
			b.filling[p.Key] = p
			b.emit(Event{Type: EventText, Instruction: head, Message: line})
			return
		}
		if strings.TrimSpace(line) != "" {
			b.emit(Event{Type: EventText, Instruction: head, Message: line})
		}
	}
}
