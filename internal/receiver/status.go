package receiver

import (
	"time"

	"github.com/banshee-data/angle.receiver/internal/angle"
	"github.com/banshee-data/angle.receiver/internal/network"
)

// Status is a read-only snapshot of the receiver.
type Status struct {
	RawAngle        float64               `json:"raw_angle"`
	ProcessedAngle  float64               `json:"processed_angle"`
	SmoothedAngle   float64               `json:"smoothed_angle"`
	Listening       bool                  `json:"listening"`
	SensorConnected bool                  `json:"sensor_connected"`
	SensorAddress   string                `json:"sensor_address"`
	PacketsReceived int64                 `json:"packets_received"`
	LastSampleAt    *time.Time            `json:"last_sample_at,omitempty"`
	Network         network.StatsSnapshot `json:"network"`
	DiscoveriesSent int64                 `json:"discoveries_sent"`
	Rotation        *angle.Rotator        `json:"rotation,omitempty"`
	Subscribers     int                   `json:"subscribers"`
}

// Status returns the current runtime values.
func (r *Receiver) Status() Status {
	r.mu.Lock()
	st := Status{
		RawAngle:        r.raw,
		ProcessedAngle:  r.processed,
		SmoothedAngle:   r.smoothed,
		Listening:       r.listening,
		SensorConnected: r.connected,
		SensorAddress:   r.sensorAddr,
		PacketsReceived: r.packetsApplied,
	}
	if !r.lastSampleAt.IsZero() {
		at := r.lastSampleAt
		st.LastSampleAt = &at
	}
	if r.discoverer != nil {
		st.DiscoveriesSent = r.discoverer.Sent()
	}
	owner := r.owner
	r.mu.Unlock()

	if owner != nil {
		rot := owner.Rotation()
		st.Rotation = &rot
	}
	st.Network = r.stats.Snapshot()
	st.Subscribers = r.angles.count() + r.connections.count()
	return st
}
