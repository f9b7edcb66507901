package machine

import (
	"time"

	"github.com/mastercactapus/grblstream/machine/grbl"
)

// DefaultHistoryLength is the number of top-level entries kept.
const DefaultHistoryLength = 1000

type EntryState int

const (
	EntryNone EntryState = iota
	EntryRunning
	EntryOK
	EntryError
	EntryCancelled
	EntryReset
	EntryAlarm
)

func (s EntryState) String() string {
	switch s {
	case EntryRunning:
		return "running"
	case EntryOK:
		return "ok"
	case EntryError:
		return "error"
	case EntryCancelled:
		return "cancelled"
	case EntryReset:
		return "reset"
	case EntryAlarm:
		return "alarm"
	}
	return ""
}

func (s EntryState) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// Entry is an instruction, or a message from the controller, in the
// history. Responses are attached as children of the entry they answer.
type Entry struct {
	Seq  int       `json:"seq"`
	Time time.Time `json:"time"`
	Text string    `json:"text"`

	State    EntryState `json:"state,omitempty"`
	Children []*Entry   `json:"children,omitempty"`

	Instruction grbl.Instruction `json:"-"`
}

func (e *Entry) find(in grbl.Instruction) *Entry {
	if !e.Instruction.IsZero() && e.Instruction.Same(in) {
		return e
	}
	for _, c := range e.Children {
		if res := c.find(in); res != nil {
			return res
		}
	}
	return nil
}

func (e *Entry) setOK() {
	if e.State != EntryAlarm {
		e.State = EntryOK
	}
}

func (e *Entry) setError() {
	if e.State != EntryAlarm {
		e.State = EntryError
	}
}

func (e *Entry) setCancelled() {
	if e.State == EntryRunning {
		e.State = EntryCancelled
	}
}

// History is the lifecycle log of everything sent to and received from
// the controller.
type History struct {
	max     int
	entries []*Entry
	seq     int

	subs []func(*Entry)
}

// NewHistory creates a History keeping at most max top-level entries.
func NewHistory(max int) *History {
	if max <= 0 {
		max = DefaultHistoryLength
	}
	return &History{max: max}
}

// Subscribe registers fn to be called with the top-level entry each
// time it, or one of its children, changes.
func (h *History) Subscribe(fn func(*Entry)) { h.subs = append(h.subs, fn) }

func (h *History) changed(e *Entry) {
	for _, fn := range h.subs {
		fn(e)
	}
}

// Entries returns the top-level entries, oldest first.
func (h *History) Entries() []*Entry { return append([]*Entry(nil), h.entries...) }

// Len returns the number of top-level entries.
func (h *History) Len() int { return len(h.entries) }

func (h *History) newEntry(text string, in grbl.Instruction) *Entry {
	h.seq++
	e := &Entry{Seq: h.seq, Time: time.Now(), Text: text, Instruction: in}
	if !in.IsZero() {
		e.State = EntryRunning
	}
	return e
}

func (h *History) message(text string) *Entry { return h.newEntry(text, grbl.Instruction{}) }

func (h *History) add(e *Entry) {
	h.entries = append(h.entries, e)
	if len(h.entries) > h.max {
		h.entries = h.entries[1:]
	}
	h.changed(e)
}

// root returns the top-level entry holding e.
func (h *History) root(e *Entry) *Entry {
	for _, r := range h.entries {
		if r.find(e.Instruction) != nil {
			return r
		}
	}
	return e
}

func (h *History) find(in grbl.Instruction) *Entry {
	if in.IsZero() {
		return nil
	}
	for i := len(h.entries) - 1; i >= 0; i-- {
		if e := h.entries[i].find(in); e != nil {
			return e
		}
	}
	return nil
}

func (h *History) lastReset() *Entry {
	if len(h.entries) == 0 {
		return nil
	}
	last := h.entries[len(h.entries)-1]
	if last.State != EntryReset {
		return nil
	}
	return last
}

// OnSent adds a running entry for in, unless it is already known.
func (h *History) OnSent(in grbl.Instruction) {
	if h.find(in) != nil {
		return
	}
	h.add(h.newEntry(in.StringWithLine(), in))
}

// OnOK marks in as done.
func (h *History) OnOK(in grbl.Instruction) {
	e := h.find(in)
	if e == nil {
		return
	}
	e.setOK()
	h.changed(h.root(e))
}

// OnError marks in as failed with msg.
func (h *History) OnError(in grbl.Instruction, msg string) {
	e := h.find(in)
	if e == nil {
		return
	}
	e.setError()
	e.Children = append(e.Children, h.message(msg))
	h.changed(h.root(e))
}

// OnFeedback attaches msg to in, or to a reset entry that was just added.
func (h *History) OnFeedback(in grbl.Instruction, msg string) {
	if e := h.find(in); e != nil {
		e.Children = append(e.Children, h.message(msg))
		h.changed(h.root(e))
		return
	}
	if r := h.lastReset(); r != nil {
		r.Children = append(r.Children, h.message(msg))
		h.changed(r)
	}
}

// OnAlarm records an alarm. Alarms are always kept, even when they
// match nothing.
func (h *History) OnAlarm(in grbl.Instruction, msg string) {
	if e := h.find(in); e != nil {
		e.State = EntryAlarm
		e.Children = append(e.Children, h.message(msg))
		h.changed(h.root(e))
		return
	}
	if r := h.lastReset(); r != nil {
		r.State = EntryAlarm
		r.Children = append(r.Children, h.message(msg))
		h.changed(r)
		return
	}
	e := h.message(msg)
	e.State = EntryAlarm
	h.add(e)
}

// OnStartup cancels everything still running and adds a reset entry
// holding the startup instructions and the version banner.
func (h *History) OnStartup(version string, startup []grbl.Instruction) {
	for _, e := range h.entries {
		e.setCancelled()
	}

	r := h.message("BOARD RESET COMPLETED")
	r.State = EntryReset
	for _, in := range startup {
		r.Children = append(r.Children, h.newEntry(in.StringWithLine(), in))
	}
	r.Children = append(r.Children, h.message(version))
	h.add(r)
}
