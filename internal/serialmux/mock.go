package serialmux

import (
	"errors"
	"io"
	"sync"
	"time"
)

var errPortClosed = errors.New("serial port closed")

// MockSerialPort stands in for an encoder on a development machine. Lines
// produced by a generator are read back through a pipe and writes are
// discarded.
type MockSerialPort struct {
	r    *io.PipeReader
	w    *io.PipeWriter
	once sync.Once
	done chan struct{}
}

func (m *MockSerialPort) Read(p []byte) (int, error)  { return m.r.Read(p) }
func (m *MockSerialPort) Write(p []byte) (int, error) { return len(p), nil }

func (m *MockSerialPort) Close() error {
	m.once.Do(func() { close(m.done) })
	m.w.Close()
	return m.r.Close()
}

// NewMockSerialMux returns a mux whose port prints next() every interval
// until the mux is closed.
func NewMockSerialMux(next func() string, interval time.Duration) *SerialMux[*MockSerialPort] {
	r, w := io.Pipe()
	port := &MockSerialPort{r: r, w: w, done: make(chan struct{})}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-port.done:
				return
			case <-ticker.C:
				if _, err := io.WriteString(w, next()+"\r\n"); err != nil {
					return
				}
			}
		}
	}()

	return NewSerialMux(port)
}

// TestableSerialPort is an in-memory port for tests. Reads block until data
// is queued, a read error is injected or the port is closed.
type TestableSerialPort struct {
	mu      sync.Mutex
	cond    *sync.Cond
	pending []byte
	readErr error
	written []byte

	// WriteError is returned once by the next Write.
	WriteError error
	// ShortWrite makes Write report one byte fewer than it took.
	ShortWrite bool
	// Closed is set by Close.
	Closed bool
}

func NewTestableSerialPort() *TestableSerialPort {
	p := &TestableSerialPort{}
	p.cond = sync.NewCond(&p.mu)
	return p
}

func (p *TestableSerialPort) Read(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for len(p.pending) == 0 && p.readErr == nil && !p.Closed {
		p.cond.Wait()
	}
	if p.readErr != nil {
		err := p.readErr
		p.readErr = nil
		return 0, err
	}
	if len(p.pending) == 0 {
		return 0, errPortClosed
	}
	n := copy(b, p.pending)
	p.pending = p.pending[n:]
	return n, nil
}

func (p *TestableSerialPort) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Closed {
		return 0, errPortClosed
	}
	if err := p.WriteError; err != nil {
		p.WriteError = nil
		return 0, err
	}
	p.written = append(p.written, b...)
	if p.ShortWrite {
		return len(b) - 1, nil
	}
	return len(b), nil
}

func (p *TestableSerialPort) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Closed = true
	p.cond.Broadcast()
	return nil
}

// AddReadData queues data for Read.
func (p *TestableSerialPort) AddReadData(data string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pending = append(p.pending, data...)
	p.cond.Broadcast()
}

// FailRead makes the next Read return err, waking a blocked reader.
func (p *TestableSerialPort) FailRead(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.readErr = err
	p.cond.Broadcast()
}

// Written returns everything written to the port.
func (p *TestableSerialPort) Written() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return string(p.written)
}
