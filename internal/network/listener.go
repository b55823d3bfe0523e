package network

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/banshee-data/angle.receiver/internal/monitoring"
)

// DataListener receives angle datagrams on the data port, decodes them and
// hands valid readings to a SampleSink.
type DataListener struct {
	address     string
	rcvBuf      int
	logInterval time.Duration
	factory     UDPSocketFactory
	stats       PacketStatsInterface
	sink        SampleSink
	forwarder   *PacketForwarder
	now         func() time.Time

	mu   sync.Mutex
	conn UDPSocket
}

// DataListenerConfig contains configuration options for the data listener
type DataListenerConfig struct {
	Address     string // host:port to bind
	RcvBuf      int
	LogInterval time.Duration
	Factory     UDPSocketFactory
	Stats       PacketStatsInterface
	Sink        SampleSink
	Forwarder   *PacketForwarder // optional mirror of raw datagrams, started by its owner
	Now         func() time.Time
}

// NewDataListener creates a listener with the provided configuration.
func NewDataListener(config DataListenerConfig) *DataListener {
	var stats PacketStatsInterface = &noopStats{}
	if config.Stats != nil {
		stats = config.Stats
	}
	logInterval := config.LogInterval
	if logInterval == 0 {
		logInterval = time.Minute
	}
	rcvBuf := config.RcvBuf
	if rcvBuf == 0 {
		rcvBuf = DefaultReceiveBuffer
	}
	factory := config.Factory
	if factory == nil {
		factory = NewRealUDPSocketFactory()
	}
	now := config.Now
	if now == nil {
		now = time.Now
	}
	sink := config.Sink
	if sink == nil {
		sink = SampleSinkFunc(func(Sample) {})
	}
	return &DataListener{
		address:     config.Address,
		rcvBuf:      rcvBuf,
		logInterval: logInterval,
		factory:     factory,
		stats:       stats,
		sink:        sink,
		forwarder:   config.Forwarder,
		now:         now,
	}
}

// Bind opens the data socket. It is separate from Serve so callers learn
// about bind failures synchronously.
func (l *DataListener) Bind() error {
	addr, err := net.ResolveUDPAddr("udp4", l.address)
	if err != nil {
		return fmt.Errorf("failed to resolve UDP address %q: %w", l.address, err)
	}
	conn, err := l.factory.ListenUDP("udp4", addr)
	if err != nil {
		return fmt.Errorf("failed to create data socket on %s: %w", l.address, err)
	}
	if err := conn.SetReadBuffer(l.rcvBuf); err != nil {
		monitoring.Logf("Warning: Failed to set UDP receive buffer size to %d: %v", l.rcvBuf, err)
	}

	l.mu.Lock()
	l.conn = conn
	l.mu.Unlock()

	monitoring.Logf("UDP data listener bound to %s with receive buffer %d bytes", conn.LocalAddr(), l.rcvBuf)
	return nil
}

// LocalAddr returns the bound address, or nil before Bind.
func (l *DataListener) LocalAddr() net.Addr {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.conn == nil {
		return nil
	}
	return l.conn.LocalAddr()
}

// Serve reads datagrams until ctx is cancelled or the socket is closed.
// Bind must have succeeded first.
func (l *DataListener) Serve(ctx context.Context) error {
	l.mu.Lock()
	conn := l.conn
	l.mu.Unlock()
	if conn == nil {
		return errors.New("data listener is not bound")
	}

	go l.startStatsLogging(ctx)

	// the sensor sends 4 bytes; leave room for anything larger so it can be
	// counted rather than truncated silently
	buffer := make([]byte, 2048)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		conn.SetReadDeadline(time.Now().Add(readTimeout))
		n, addr, err := conn.ReadFromUDP(buffer)
		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			monitoring.Logf("UDP read error: %v", err)
			continue
		}

		l.handlePacket(buffer[:n], addr)
	}
}

func (l *DataListener) handlePacket(packet []byte, from *net.UDPAddr) {
	l.stats.AddPacket(len(packet))

	if l.forwarder != nil {
		l.forwarder.ForwardAsync(packet)
	}

	v, err := DecodeAngle(packet)
	if err != nil {
		l.stats.AddDropped()
		return
	}
	l.stats.AddAccepted()
	l.sink.HandleSample(Sample{Angle: v, From: from, At: l.now()})
}

// startStatsLogging periodically logs packet statistics
func (l *DataListener) startStatsLogging(ctx context.Context) {
	ticker := time.NewTicker(l.logInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.stats.LogStats()
		}
	}
}

// Close closes the data socket.
func (l *DataListener) Close() error {
	l.mu.Lock()
	conn := l.conn
	l.conn = nil
	l.mu.Unlock()
	if conn != nil {
		return conn.Close()
	}
	return nil
}
