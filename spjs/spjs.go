// Package spjs is a client for Serial Port JSON Server, which exposes
// serial ports over a websocket.
package spjs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const reconnectDelay = 3 * time.Second

// ErrQueueFull is returned when too many messages are waiting for the
// connection.
var ErrQueueFull = errors.New("spjs: send queue full")

type SPJS struct {
	url string

	mx        sync.RWMutex
	connected bool

	outgoing  chan message
	incomming chan interface{}
}

type message struct {
	done    chan struct{}
	payload []byte
}

type DataFrame struct {
	Port string `json:"P"`
	Data string `json:"D"`
}
type CmdStatus struct {
	Cmd        string
	QueueCount int `json:"QCnt"`
	Type       []string
	Data       []string `json:"D"`
	ID         string   `json:"Id"`
}

// PortEvent reports a port being opened or closed.
type PortEvent struct {
	Cmd  string
	Desc string
	Port string
}

type ErrorMessage struct {
	Error string
}
type SerialPortList struct {
	SerialPorts []SerialPort
}
type SerialPort struct {
	Name                      string
	Friendly                  string
	IsOpen                    bool
	Baud                      int
	BufferAlgorithm           string
	AvailableBufferAlgorithms []string
}

// NewSPJS creates a client for the server at url. It does not connect
// until Run is called.
func NewSPJS(url string) *SPJS {
	return &SPJS{
		url:       url,
		outgoing:  make(chan message, 1000),
		incomming: make(chan interface{}, 1000),
	}
}

// Messages delivers every message read from the server.
func (sp *SPJS) Messages() <-chan interface{} {
	return sp.incomming
}

// Connected reports if the websocket is currently up.
func (sp *SPJS) Connected() bool {
	sp.mx.RLock()
	defer sp.mx.RUnlock()
	return sp.connected
}

func (sp *SPJS) setConnected(c bool) {
	sp.mx.Lock()
	sp.connected = c
	sp.mx.Unlock()
}

func parseSPJSMessage(data []byte, msg map[string]json.RawMessage) (val interface{}, err error) {
	check := func(fieldName string, v interface{}) bool {
		if msg[fieldName] == nil {
			return false
		}
		val = v
		err = json.Unmarshal(data, val)
		return true
	}
	if check("Error", &ErrorMessage{}) {
		return
	}
	if check("SerialPorts", &SerialPortList{}) {
		return
	}
	if check("Type", &CmdStatus{}) {
		return
	}
	if check("Cmd", &PortEvent{}) {
		return
	}
	if check("D", &DataFrame{}) {
		return
	}

	return nil, errors.New("unknown message: " + string(data))
}
func (sp *SPJS) readLoop(ws *websocket.Conn, done chan struct{}) {
	defer close(done)
	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			log.Println("ERROR: read:", err)
			return
		}
		if !bytes.HasPrefix(data, []byte("{")) {
			// ignore echo messages
			continue
		}
		var msg map[string]json.RawMessage
		err = json.Unmarshal(data, &msg)
		if err != nil {
			log.Println("ERROR: read:", err)
			continue
		}
		val, err := parseSPJSMessage(data, msg)
		if err != nil {
			log.Println("ERROR: parse:", err)
			continue
		}
		sp.incomming <- val
	}
}

// Run keeps a connection to the server, reconnecting as needed, until
// ctx is done.
func (sp *SPJS) Run(ctx context.Context) error {
	var nextUp message

reconnect:
	for {
		sp.setConnected(false)
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		log.Println("Connecting to", sp.url)
		ws, _, err := websocket.DefaultDialer.DialContext(ctx, sp.url, nil)
		if err != nil {
			log.Println("ERROR: connect:", err)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(reconnectDelay):
			}
			continue
		}
		log.Println("Connected.")
		sp.setConnected(true)
		ch := make(chan struct{})
		go sp.readLoop(ws, ch)
		go sp.WriteString("list") // refresh list on reconnect

		for {
			if nextUp.payload != nil {
				err = ws.WriteMessage(websocket.TextMessage, nextUp.payload)
				if err != nil {
					log.Println("ERROR: send:", err)
					ws.Close()
					continue reconnect
				}
				if nextUp.done != nil {
					close(nextUp.done)
				}
				nextUp = message{}
			}

			select {
			case <-ctx.Done():
				sp.setConnected(false)
				ws.Close()
				return ctx.Err()
			case <-ch:
				ws.Close()
				continue reconnect
			case nextUp = <-sp.outgoing:
			}
		}
	}
}

type JSON struct {
	Port string `json:"P"`
	Data []Data
}
type Data struct {
	Data string `json:"D"`
	ID   string `json:"Id"`
}

func (sp *SPJS) enqueue(payload []byte) {
	ch := make(chan struct{})
	sp.outgoing <- message{done: ch, payload: payload}
	<-ch
}

func marshalJSON(v JSON) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		// shouldn't happen since we control everything that's sent out
		log.Panicln("ERROR: sendjson (marshal):", err)
	}
	return append([]byte("sendjson "), data...)
}

// PostJSON queues data for a port without waiting for it to be written.
func (sp *SPJS) PostJSON(v JSON) error {
	select {
	case sp.outgoing <- message{payload: marshalJSON(v)}:
		return nil
	default:
		return ErrQueueFull
	}
}

// WriteString sends a raw server command and waits until it is written.
func (sp *SPJS) WriteString(data string) {
	sp.enqueue([]byte(data))
}
