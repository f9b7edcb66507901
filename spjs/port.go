package spjs

import (
	"context"
	"log"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mastercactapus/grblstream/machine/grbl"
)

// bufferAlgorithm leaves flow control to the caller, which tracks the
// controller's receive buffer itself.
const bufferAlgorithm = "default"

var lastID int64

func nextID() string {
	id := atomic.AddInt64(&lastID, 1)
	return "cmd_" + strconv.FormatInt(id, 36)
}

// Port is a serial port on the server, used as a grbl.Transport.
type Port struct {
	sp   *SPJS
	name string
	baud int

	mx   sync.Mutex
	open bool
}

var _ grbl.Transport = &Port{}

func NewPort(sp *SPJS, name string, baud int) *Port {
	return &Port{sp: sp, name: name, baud: baud}
}

// IsOpen reports if the server is connected and the port is open.
func (p *Port) IsOpen() bool {
	p.mx.Lock()
	defer p.mx.Unlock()
	return p.open && p.sp.Connected()
}

// Write queues data for the port. It does not wait for the server.
func (p *Port) Write(data []byte) (int, error) {
	if !p.IsOpen() {
		return 0, grbl.ErrClosed
	}
	err := p.sp.PostJSON(JSON{
		Port: p.name,
		Data: []Data{{Data: string(data), ID: nextID()}},
	})
	if err != nil {
		return 0, err
	}
	return len(data), nil
}

func (p *Port) setOpen(open bool, fn func(bool)) {
	p.mx.Lock()
	changed := p.open != open
	p.open = open
	p.mx.Unlock()
	if changed {
		fn(open)
	}
}

// Run handles server messages for the port until ctx is done. Lines read
// from the port are passed to data, and state is called each time the
// port opens or closes. The port is opened whenever it is found closed.
func (p *Port) Run(ctx context.Context, data func([]byte), state func(open bool)) error {
	t := time.NewTicker(500 * time.Millisecond)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			p.setOpen(false, state)
			return ctx.Err()
		case <-t.C:
			if !p.sp.Connected() {
				p.setOpen(false, state)
			}
		case msg := <-p.sp.Messages():
			p.handle(msg, data, state)
		}
	}
}

func (p *Port) handle(msg interface{}, data func([]byte), state func(bool)) {
	switch msg := msg.(type) {
	case *DataFrame:
		if msg.Port != p.name {
			return
		}
		// the server delivers one line per frame
		data([]byte(strings.TrimRight(msg.Data, "\r\n") + "\r\n"))
	case *SerialPortList:
		var found bool
		for _, port := range msg.SerialPorts {
			if port.Name != p.name {
				continue
			}
			found = true
			if !port.IsOpen {
				go p.sp.WriteString("open " + p.name + " " + strconv.Itoa(p.baud) + " " + bufferAlgorithm)
			}
			p.setOpen(port.IsOpen, state)
		}
		if !found {
			log.Println("ERROR: spjs: port not found:", p.name)
			p.setOpen(false, state)
		}
	case *PortEvent:
		if msg.Port != p.name {
			return
		}
		switch msg.Cmd {
		case "Open":
			p.setOpen(true, state)
		case "Close", "OpenFail":
			p.setOpen(false, state)
		}
	case *ErrorMessage:
		log.Println("ERROR: spjs:", msg.Error)
	}
}
