package network

import (
	"context"
	"net"
	"sync"
	"time"
)

// UDPSocket defines the socket operations used by the data listener and the
// discovery broadcaster. It lets tests run without real network sockets.
type UDPSocket interface {
	ReadFromUDP(b []byte) (n int, addr *net.UDPAddr, err error)
	WriteToUDP(b []byte, addr *net.UDPAddr) (int, error)
	SetReadBuffer(bytes int) error
	SetReadDeadline(t time.Time) error
	Close() error
	LocalAddr() net.Addr
}

// UDPSocketFactory creates UDP sockets.
type UDPSocketFactory interface {
	// ListenUDP creates and returns a new UDP socket. A nil laddr binds an
	// ephemeral port on all interfaces.
	ListenUDP(network string, laddr *net.UDPAddr) (UDPSocket, error)
}

// RealUDPSocketFactory opens sockets with net.ListenConfig. When Reusable is
// set the socket gets SO_REUSEADDR so a restarted receiver can rebind
// immediately.
type RealUDPSocketFactory struct {
	Reusable bool
}

// NewRealUDPSocketFactory creates a factory producing reusable sockets.
func NewRealUDPSocketFactory() *RealUDPSocketFactory {
	return &RealUDPSocketFactory{Reusable: true}
}

// ListenUDP binds a new UDP socket.
func (f *RealUDPSocketFactory) ListenUDP(network string, laddr *net.UDPAddr) (UDPSocket, error) {
	lc := net.ListenConfig{}
	if f.Reusable {
		lc.Control = reuseControl
	}
	address := ""
	if laddr != nil {
		address = laddr.String()
	}
	pc, err := lc.ListenPacket(context.Background(), network, address)
	if err != nil {
		return nil, err
	}
	return pc.(*net.UDPConn), nil
}

// MockUDPSocket implements UDPSocket for testing.
type MockUDPSocket struct {
	mu sync.Mutex

	// Packets holds the packets to return from ReadFromUDP.
	Packets []MockUDPPacket
	// ReadIndex tracks the current position in Packets.
	ReadIndex int
	// Writes records every WriteToUDP call.
	Writes []MockUDPPacket
	// Closed indicates whether Close was called.
	Closed bool
	// ReadBufferSize holds the value set by SetReadBuffer.
	ReadBufferSize int
	// ReadDeadline holds the value set by SetReadDeadline.
	ReadDeadline time.Time
	// LocalAddress is returned by LocalAddr.
	LocalAddress *net.UDPAddr
	// ReadError is returned on the next ReadFromUDP call if set.
	ReadError error
	// WriteError is returned by every WriteToUDP call if set.
	WriteError error
	// SetReadBufferError is returned by SetReadBuffer if set.
	SetReadBufferError error
}

// MockUDPPacket represents a datagram read from or written to a mock socket.
type MockUDPPacket struct {
	Data []byte
	Addr *net.UDPAddr
}

// NewMockUDPSocket creates a new MockUDPSocket with the given packets.
func NewMockUDPSocket(packets []MockUDPPacket) *MockUDPSocket {
	return &MockUDPSocket{
		Packets: packets,
		LocalAddress: &net.UDPAddr{
			IP:   net.ParseIP("127.0.0.1"),
			Port: DefaultDataPort,
		},
	}
}

// Enqueue appends packets for later reads.
func (m *MockUDPSocket) Enqueue(packets ...MockUDPPacket) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Packets = append(m.Packets, packets...)
}

// ReadFromUDP returns the next queued packet. With the queue drained it
// waits briefly and reports a timeout, like a real socket with a deadline.
func (m *MockUDPSocket) ReadFromUDP(b []byte) (int, *net.UDPAddr, error) {
	m.mu.Lock()
	if m.Closed {
		m.mu.Unlock()
		return 0, nil, net.ErrClosed
	}
	if m.ReadError != nil {
		err := m.ReadError
		m.ReadError = nil
		m.mu.Unlock()
		return 0, nil, err
	}
	if m.ReadIndex >= len(m.Packets) {
		m.mu.Unlock()
		time.Sleep(time.Millisecond)
		return 0, nil, &net.OpError{Op: "read", Net: "udp", Err: &timeoutError{}}
	}
	pkt := m.Packets[m.ReadIndex]
	m.ReadIndex++
	m.mu.Unlock()
	return copy(b, pkt.Data), pkt.Addr, nil
}

// WriteToUDP records the datagram.
func (m *MockUDPSocket) WriteToUDP(b []byte, addr *net.UDPAddr) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Closed {
		return 0, net.ErrClosed
	}
	if m.WriteError != nil {
		return 0, m.WriteError
	}
	m.Writes = append(m.Writes, MockUDPPacket{Data: append([]byte(nil), b...), Addr: addr})
	return len(b), nil
}

// WriteCount returns how many datagrams were written.
func (m *MockUDPSocket) WriteCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Writes)
}

// SetReadBuffer records the buffer size.
func (m *MockUDPSocket) SetReadBuffer(bytes int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SetReadBufferError != nil {
		return m.SetReadBufferError
	}
	m.ReadBufferSize = bytes
	return nil
}

// SetReadDeadline records the deadline.
func (m *MockUDPSocket) SetReadDeadline(t time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ReadDeadline = t
	return nil
}

// Close marks the socket as closed.
func (m *MockUDPSocket) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Closed = true
	return nil
}

// IsClosed reports whether Close was called.
func (m *MockUDPSocket) IsClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Closed
}

// LocalAddr returns the mock local address.
func (m *MockUDPSocket) LocalAddr() net.Addr {
	return m.LocalAddress
}

// MockUDPSocketFactory implements UDPSocketFactory for testing. Sockets are
// handed out in order and the last one is reused once the list runs out.
type MockUDPSocketFactory struct {
	mu sync.Mutex
	// Sockets are returned from successive ListenUDP calls.
	Sockets []*MockUDPSocket
	// FailOn makes the n-th call (1-based) fail with Error. Zero disables.
	FailOn int
	// Error is returned by the failing call.
	Error error
	// ListenCalls records all ListenUDP calls.
	ListenCalls []MockListenCall
}

// MockListenCall records a call to ListenUDP.
type MockListenCall struct {
	Network string
	Addr    *net.UDPAddr
}

// NewMockUDPSocketFactory creates a new MockUDPSocketFactory.
func NewMockUDPSocketFactory(sockets ...*MockUDPSocket) *MockUDPSocketFactory {
	return &MockUDPSocketFactory{Sockets: sockets}
}

// ListenUDP returns the next configured mock socket.
func (f *MockUDPSocketFactory) ListenUDP(network string, laddr *net.UDPAddr) (UDPSocket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ListenCalls = append(f.ListenCalls, MockListenCall{Network: network, Addr: laddr})
	n := len(f.ListenCalls)
	if f.FailOn == n {
		return nil, f.Error
	}
	if len(f.Sockets) == 0 {
		return NewMockUDPSocket(nil), nil
	}
	idx := n - 1
	if idx >= len(f.Sockets) {
		idx = len(f.Sockets) - 1
	}
	return f.Sockets[idx], nil
}

// Calls returns a copy of the recorded ListenUDP calls.
func (f *MockUDPSocketFactory) Calls() []MockListenCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]MockListenCall(nil), f.ListenCalls...)
}

// timeoutError implements net.Error for timeout simulation.
type timeoutError struct{}

func (e *timeoutError) Error() string   { return "i/o timeout" }
func (e *timeoutError) Timeout() bool   { return true }
func (e *timeoutError) Temporary() bool { return true }
