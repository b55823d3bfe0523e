package network

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/banshee-data/angle.receiver/internal/monitoring"
)

// PacketStatsInterface provides packet statistics management
type PacketStatsInterface interface {
	AddPacket(bytes int)
	AddAccepted()
	AddDropped()
	LogStats()
}

// PacketStats counts datagrams seen by a listener. All methods are safe for
// concurrent use.
type PacketStats struct {
	packets  atomic.Int64
	bytes    atomic.Int64
	accepted atomic.Int64
	dropped  atomic.Int64

	mu          sync.Mutex
	lastLog     time.Time
	lastPackets int64
}

// StatsSnapshot is a point-in-time copy of the counters.
type StatsSnapshot struct {
	Packets  int64 `json:"packets"`
	Bytes    int64 `json:"bytes"`
	Accepted int64 `json:"accepted"`
	Dropped  int64 `json:"dropped"`
}

// NewPacketStats returns zeroed counters.
func NewPacketStats() *PacketStats {
	return &PacketStats{lastLog: time.Now()}
}

func (s *PacketStats) AddPacket(bytes int) {
	s.packets.Add(1)
	s.bytes.Add(int64(bytes))
}

func (s *PacketStats) AddAccepted() { s.accepted.Add(1) }
func (s *PacketStats) AddDropped()  { s.dropped.Add(1) }

// Snapshot returns the current totals.
func (s *PacketStats) Snapshot() StatsSnapshot {
	return StatsSnapshot{
		Packets:  s.packets.Load(),
		Bytes:    s.bytes.Load(),
		Accepted: s.accepted.Load(),
		Dropped:  s.dropped.Load(),
	}
}

// LogStats logs totals and the packet rate since the previous call.
func (s *PacketStats) LogStats() {
	snap := s.Snapshot()

	s.mu.Lock()
	now := time.Now()
	elapsed := now.Sub(s.lastLog).Seconds()
	delta := snap.Packets - s.lastPackets
	s.lastLog = now
	s.lastPackets = snap.Packets
	s.mu.Unlock()

	rate := 0.0
	if elapsed > 0 {
		rate = float64(delta) / elapsed
	}
	monitoring.Logf("UDP stats: %d packets (%.1f/s), %d bytes, %d accepted, %d dropped",
		snap.Packets, rate, snap.Bytes, snap.Accepted, snap.Dropped)
}

// noopStats is a PacketStatsInterface implementation that does nothing.
// It is used as a safe default when no stats collector is provided.
type noopStats struct{}

func (n *noopStats) AddPacket(bytes int) {}
func (n *noopStats) AddAccepted()        {}
func (n *noopStats) AddDropped()         {}
func (n *noopStats) LogStats()           {}
