package network

import (
	"context"
	"fmt"
	"net"
	"sync/atomic"
	"time"

	"github.com/banshee-data/angle.receiver/internal/monitoring"
)

// PacketForwarder mirrors raw sensor datagrams to a second address, e.g.
// another receiver on a different machine. Forwarding never blocks the
// listener; when the queue is full packets are dropped and counted.
type PacketForwarder struct {
	conn        *net.UDPConn
	channel     chan []byte
	logInterval time.Duration
	address     string
	dropped     atomic.Int64
}

// NewPacketForwarder creates a forwarder sending to addr ("host:port").
func NewPacketForwarder(addr string, logInterval time.Duration) (*PacketForwarder, error) {
	forwardUDPAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve forward address: %w", err)
	}

	conn, err := net.DialUDP("udp", nil, forwardUDPAddr)
	if err != nil {
		return nil, fmt.Errorf("failed to create forward connection: %w", err)
	}
	if logInterval <= 0 {
		logInterval = time.Minute
	}

	return &PacketForwarder{
		conn:        conn,
		channel:     make(chan []byte, 1000),
		logInterval: logInterval,
		address:     addr,
	}, nil
}

// Start runs the forwarding goroutine until ctx is cancelled.
func (f *PacketForwarder) Start(ctx context.Context) {
	go func() {
		failed := 0
		var lastError error
		ticker := time.NewTicker(f.logInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case packet := <-f.channel:
				if _, err := f.conn.Write(packet); err != nil {
					failed++
					lastError = err
				}
			case <-ticker.C:
				if failed > 0 && lastError != nil {
					monitoring.Logf("\033[93mFailed to forward %d packets to %s (latest: %v)\033[0m", failed, f.address, lastError)
					failed = 0
					lastError = nil
				}
			}
		}
	}()

	monitoring.Logf("Forwarding sensor packets to %s", f.address)
}

// ForwardAsync queues a copy of packet without blocking.
func (f *PacketForwarder) ForwardAsync(packet []byte) {
	packetCopy := make([]byte, len(packet))
	copy(packetCopy, packet)

	select {
	case f.channel <- packetCopy:
	default:
		f.dropped.Add(1)
	}
}

// Dropped returns how many packets were discarded because the queue was full.
func (f *PacketForwarder) Dropped() int64 {
	return f.dropped.Load()
}

// Close closes the outbound connection. Queued packets are discarded.
func (f *PacketForwarder) Close() error {
	return f.conn.Close()
}
