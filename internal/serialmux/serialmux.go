// Package serialmux shares one serial line between several readers. It is
// the USB alternative to the UDP data path for encoders wired straight to
// the host: every line the firmware prints goes to all subscribers, and
// console commands are written back one at a time.
package serialmux

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
)

var (
	ErrWriteFailed    = errors.New("failed to write to serial port")
	ErrInvalidCommand = errors.New("invalid serial command")
	ErrNoPort         = errors.New("no serial port configured")
)

// SerialPorter is the part of a serial port the mux needs. go.bug.st/serial
// ports satisfy it, as do the mocks in this package.
type SerialPorter interface {
	io.ReadWriter
	io.Closer
}

// SerialMuxInterface defines the interface for the SerialMux type.
type SerialMuxInterface interface {
	// Subscribe returns an id and a channel of lines read from the port.
	Subscribe() (string, chan string)
	// Unsubscribe closes and forgets the channel with the given id.
	Unsubscribe(string)
	// SendCommand writes one console command terminated by a newline.
	SendCommand(string) error
	// Monitor reads lines until ctx is done, the port fails or Close is
	// called.
	Monitor(context.Context) error
	// Stats reports line and command counters.
	Stats() Stats
	// Close closes all subscriber channels and the port.
	Close() error

	// AttachAdminRoutes registers the serial console under /debug/. The
	// routes are reachable only from localhost or over Tailscale.
	AttachAdminRoutes(*http.ServeMux)
}

// Stats is a snapshot of a mux's counters.
type Stats struct {
	LinesRead    int64 `json:"lines_read"`
	LinesMissed  int64 `json:"lines_missed"`
	CommandsSent int64 `json:"commands_sent"`
	Subscribers  int   `json:"subscribers"`
}

// SerialMux multiplexes a single port of type T.
type SerialMux[T SerialPorter] struct {
	port    T
	lines   *lineHub
	writeMu sync.Mutex

	linesRead    atomic.Int64
	linesMissed  atomic.Int64
	commandsSent atomic.Int64
}

// NewSerialMux creates a SerialMux instance backed by the given port.
func NewSerialMux[T SerialPorter](port T) *SerialMux[T] {
	return &SerialMux[T]{port: port, lines: newLineHub()}
}

func (s *SerialMux[T]) Subscribe() (string, chan string) { return s.lines.subscribe() }

func (s *SerialMux[T]) Unsubscribe(id string) { s.lines.unsubscribe(id) }

// SendCommand writes command followed by a newline. A trailing line ending
// on command is ignored; embedded ones are rejected.
func (s *SerialMux[T]) SendCommand(command string) error {
	command = strings.TrimRight(command, "\r\n")
	if command == "" || strings.ContainsAny(command, "\r\n") {
		return ErrInvalidCommand
	}
	buf := []byte(command + "\n")

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	n, err := s.port.Write(buf)
	if err != nil {
		return err
	}
	if n != len(buf) {
		return ErrWriteFailed
	}
	s.commandsSent.Add(1)
	return nil
}

// Monitor reads lines from the port and publishes them. It returns nil on
// end of input or after Close, ctx.Err() on cancellation and the read error
// otherwise.
func (s *SerialMux[T]) Monitor(ctx context.Context) error {
	lines := make(chan string)
	readErr := make(chan error, 1)
	// Scan blocks in Read, so it gets its own goroutine and the loop below
	// stays responsive to ctx.
	go s.readLines(ctx, lines, readErr)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				err := <-readErr
				if s.lines.isClosed() {
					return nil
				}
				return err
			}
			s.linesRead.Add(1)
			s.linesMissed.Add(int64(s.lines.publish(line)))
		}
	}
}

// readLines sends one value on errc, then closes out.
func (s *SerialMux[T]) readLines(ctx context.Context, out chan<- string, errc chan<- error) {
	defer close(out)
	scan := bufio.NewScanner(s.port)
	for scan.Scan() {
		// firmware consoles end lines with \r\n
		line := strings.TrimRight(scan.Text(), "\r")
		select {
		case out <- line:
		case <-ctx.Done():
			errc <- ctx.Err()
			return
		}
	}
	errc <- scan.Err()
}

func (s *SerialMux[T]) Stats() Stats {
	return Stats{
		LinesRead:    s.linesRead.Load(),
		LinesMissed:  s.linesMissed.Load(),
		CommandsSent: s.commandsSent.Load(),
		Subscribers:  s.lines.count(),
	}
}

// Close closes subscribers and then the port. Only the first call closes
// the port.
func (s *SerialMux[T]) Close() error {
	if !s.lines.close() {
		return nil
	}
	return s.port.Close()
}
