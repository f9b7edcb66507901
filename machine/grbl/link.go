package grbl

import (
	"io"
	"sync"
)

// Link is a Transport over a byte stream, such as a serial port.
type Link struct {
	rwc io.ReadWriteCloser

	mx     sync.Mutex
	closed bool

	closeOnce sync.Once
	closeCh   chan struct{}
}

var _ Transport = &Link{}

// NewLink creates a Link using rwc for data. Reading starts with Run.
func NewLink(rwc io.ReadWriteCloser) *Link {
	return &Link{
		rwc:     rwc,
		closeCh: make(chan struct{}),
	}
}

// IsOpen reports if the link has not been closed.
func (l *Link) IsOpen() bool {
	l.mx.Lock()
	defer l.mx.Unlock()
	return !l.closed
}

// Write writes p in full to the underlying stream.
func (l *Link) Write(p []byte) (int, error) {
	l.mx.Lock()
	defer l.mx.Unlock()
	if l.closed {
		return 0, ErrClosed
	}
	return l.rwc.Write(p)
}

// Close will close the underlying stream. Any Run in progress returns.
func (l *Link) Close() error {
	l.mx.Lock()
	l.closed = true
	l.mx.Unlock()

	var err error
	l.closeOnce.Do(func() {
		close(l.closeCh)
		err = l.rwc.Close()
	})
	return err
}

// Done is closed when the link is closed.
func (l *Link) Done() <-chan struct{} { return l.closeCh }

// Run reads from the stream until it fails or the link is closed,
// handing each chunk to fn. fn owns the slice it is given.
//
// A nil error is returned if the link was closed with Close.
func (l *Link) Run(fn func([]byte)) error {
	buf := make([]byte, 1024)
	for {
		n, err := l.rwc.Read(buf)
		if n > 0 {
			fn(append([]byte(nil), buf[:n]...))
		}
		if err != nil {
			if !l.IsOpen() {
				return nil
			}
			l.Close()
			return err
		}
	}
}
