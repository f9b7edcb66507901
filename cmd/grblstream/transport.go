package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/tarm/serial"

	"github.com/mastercactapus/grblstream/machine"
	"github.com/mastercactapus/grblstream/machine/grbl"
	"github.com/mastercactapus/grblstream/spjs"
)

const reconnectDelay = 3 * time.Second

// runSerial keeps a local serial port attached to the board, reopening it
// after failures, until ctx is done.
func runSerial(ctx context.Context, m *machine.Machine, name string, baud int) {
	for {
		err := serveSerial(ctx, m, name, baud)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			log.Println("ERROR: serial:", err)
		}
		log.Printf("Reconnecting to %s in %s", name, reconnectDelay)
		select {
		case <-ctx.Done():
			return
		case <-time.After(reconnectDelay):
		}
	}
}

func serveSerial(ctx context.Context, m *machine.Machine, name string, baud int) error {
	log.Println("Opening", name)
	p, err := serial.OpenPort(&serial.Config{Name: name, Baud: baud})
	if err != nil {
		return fmt.Errorf("open %s: %w", name, err)
	}
	link := grbl.NewLink(p)
	log.Println("Opened.")

	m.Loop.Post(func() { m.Board.Open(link) })
	defer m.Loop.Post(m.Board.Close)

	go func() {
		select {
		case <-ctx.Done():
		case <-link.Done():
		}
		link.Close()
	}()

	return link.Run(func(data []byte) {
		m.Loop.Post(func() { m.Board.HandleData(data) })
	})
}

// runSPJS attaches a port on a Serial Port JSON Server to the board until
// ctx is done.
func runSPJS(ctx context.Context, m *machine.Machine, url, name string, baud int) {
	sp := spjs.NewSPJS(url)
	go sp.Run(ctx)

	port := spjs.NewPort(sp, name, baud)
	port.Run(ctx,
		func(data []byte) {
			m.Loop.Post(func() { m.Board.HandleData(data) })
		},
		func(open bool) {
			if open {
				log.Println("Port opened:", name)
				m.Loop.Post(func() { m.Board.Open(port) })
				return
			}
			log.Println("Port closed:", name)
			m.Loop.Post(m.Board.Close)
		},
	)
}
