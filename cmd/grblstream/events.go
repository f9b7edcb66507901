package main

import (
	"encoding/json"
	"log"

	sse "github.com/alexandrevicenzi/go-sse"

	"github.com/mastercactapus/grblstream/coord"
	"github.com/mastercactapus/grblstream/gcode"
	"github.com/mastercactapus/grblstream/machine"
	"github.com/mastercactapus/grblstream/machine/grbl"
	"github.com/mastercactapus/grblstream/stream"
)

const (
	channelStatus     = "/events/status"
	channelBoard      = "/events/board"
	channelSequencer  = "/events/sequencer"
	channelPrimitives = "/events/primitives"
	channelHistory    = "/events/history"
)

type statusJSON struct {
	State  string `json:"state"`
	Online bool   `json:"online"`
	Alarm  bool   `json:"alarm"`
	Check  bool   `json:"check"`
	Inches bool   `json:"inches"`

	MPos *coord.Point `json:"mpos,omitempty"`
	WPos *coord.Point `json:"wpos,omitempty"`
	Buf  *int         `json:"buf,omitempty"`
	RX   *int         `json:"rx,omitempty"`

	InFlight  int `json:"inFlight"`
	Available int `json:"available"`
}

func newStatusJSON(b *grbl.Board) statusJSON {
	s := b.LastStatus()
	return statusJSON{
		State:     s.State.String(),
		Online:    s.IsOnline(),
		Alarm:     s.IsAlarm(),
		Check:     s.IsCheck(),
		Inches:    s.Inches,
		MPos:      s.MPos,
		WPos:      s.WPos,
		Buf:       s.Buf,
		RX:        s.RX,
		InFlight:  len(b.InFlight()),
		Available: b.Available(),
	}
}

type boardEventJSON struct {
	Type    string `json:"type"`
	Text    string `json:"text,omitempty"`
	Line    int    `json:"line,omitempty"`
	Message string `json:"message,omitempty"`
}

type sequencerEventJSON struct {
	Type  string `json:"type"`
	State string `json:"state,omitempty"`
	Line  int    `json:"line,omitempty"`
}

func (a *api) publish(channel string, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Printf("ERROR: marshal json: %+v", err)
		return
	}
	a.sse.SendMessage(channel, sse.SimpleMessage(string(data)))
}

// subscribe forwards machine events to SSE clients. It must run on the
// machine loop.
func (a *api) subscribe() {
	a.m.Board.Subscribe(func(e grbl.Event) {
		switch e.Type {
		case grbl.EventStatus:
			a.publish(channelStatus, newStatusJSON(a.m.Board))
			return
		case grbl.EventSent, grbl.EventParameters:
			return
		}
		ev := boardEventJSON{Type: e.Type.String(), Message: e.Message}
		if !e.Instruction.IsZero() {
			ev.Text = e.Instruction.String()
			if e.Instruction.Line() > 0 {
				ev.Line = e.Instruction.Line()
			}
		}
		a.publish(channelBoard, ev)
	})

	a.m.Sequencer.Subscribe(func(e stream.Event) {
		switch e.Type {
		case stream.EventLoaded:
			return
		case stream.EventStateChanged:
			a.publish(channelSequencer, sequencerEventJSON{Type: e.Type.String(), State: e.State.String()})
		default:
			a.publish(channelSequencer, sequencerEventJSON{Type: e.Type.String(), Line: e.Line})
		}
	})

	a.m.SubscribePrimitives(func(p gcode.Primitive) {
		a.publish(channelPrimitives, p)
	})

	a.m.History.Subscribe(func(e *machine.Entry) {
		a.publish(channelHistory, e)
	})
}
