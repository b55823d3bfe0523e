package receiver

import (
	"fmt"
	"math"
	"time"

	"github.com/banshee-data/angle.receiver/internal/angle"
	"github.com/banshee-data/angle.receiver/internal/network"
)

// Limits applied by Config.Normalize.
const (
	MinDiscoveryInterval = 500 * time.Millisecond
	MaxDiscoveryInterval = 5 * time.Second
	MinConnectionTimeout = time.Second
	MaxConnectionTimeout = 30 * time.Second
	MinSmoothingSpeed    = 1.0
	MaxSmoothingSpeed    = 50.0
)

// Config holds everything that shapes how the receiver listens and how it
// turns a raw reading into a rotation.
type Config struct {
	// DataPort receives angle datagrams. Zero binds an ephemeral port.
	DataPort int `json:"data_port"`
	// DiscoveryPort is where DISCOVER broadcasts are sent.
	DiscoveryPort int `json:"discovery_port"`
	// ListenIP is the local address to bind; 0.0.0.0 means all interfaces.
	ListenIP string `json:"listen_ip"`
	// BroadcastIP is the discovery destination. It is only checked when a
	// discovery is sent.
	BroadcastIP string `json:"broadcast_ip"`

	DiscoveryInterval time.Duration `json:"discovery_interval"`
	ConnectionTimeout time.Duration `json:"connection_timeout"`

	RotationAxis      angle.Axis `json:"rotation_axis"`
	AngleMultiplier   float64    `json:"angle_multiplier"`
	AngleOffset       float64    `json:"angle_offset"`
	EnableSmoothing   bool       `json:"enable_smoothing"`
	SmoothingSpeed    float64    `json:"smoothing_speed"`
	AutoApplyRotation bool       `json:"auto_apply_rotation"`

	// TickInterval is how often Run advances the receiver.
	TickInterval time.Duration `json:"tick_interval"`
	// StatsLogInterval is how often packet statistics are logged.
	StatsLogInterval time.Duration `json:"stats_log_interval"`
}

// DefaultConfig returns the settings the sensor firmware expects.
func DefaultConfig() Config {
	return Config{
		DataPort:          network.DefaultDataPort,
		DiscoveryPort:     network.DefaultDiscoveryPort,
		ListenIP:          "0.0.0.0",
		BroadcastIP:       "255.255.255.255",
		DiscoveryInterval: 2 * time.Second,
		ConnectionTimeout: 5 * time.Second,
		RotationAxis:      angle.AxisZ,
		AngleMultiplier:   1,
		AngleOffset:       0,
		EnableSmoothing:   true,
		SmoothingSpeed:    15,
		AutoApplyRotation: true,
		TickInterval:      time.Second / 60,
		StatsLogInterval:  time.Minute,
	}
}

// Normalize clamps the tunables into their supported ranges and rejects
// values that cannot be clamped sensibly.
func (c Config) Normalize() (Config, error) {
	if c.DataPort < 0 || c.DataPort > 65535 {
		return c, fmt.Errorf("invalid data port %d", c.DataPort)
	}
	if c.DiscoveryPort < 1 || c.DiscoveryPort > 65535 {
		return c, fmt.Errorf("invalid discovery port %d", c.DiscoveryPort)
	}
	if _, err := network.ParseIPv4(c.ListenIP); err != nil {
		return c, fmt.Errorf("invalid listen IP: %w", err)
	}
	if c.TickInterval <= 0 {
		return c, fmt.Errorf("tick interval must be positive, got %v", c.TickInterval)
	}
	if c.StatsLogInterval <= 0 {
		c.StatsLogInterval = time.Minute
	}
	for _, v := range []float64{c.AngleMultiplier, c.AngleOffset, c.SmoothingSpeed} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return c, fmt.Errorf("angle multiplier, offset and smoothing speed must be finite, got %v", v)
		}
	}

	c.DiscoveryInterval = clampDuration(c.DiscoveryInterval, MinDiscoveryInterval, MaxDiscoveryInterval)
	c.ConnectionTimeout = clampDuration(c.ConnectionTimeout, MinConnectionTimeout, MaxConnectionTimeout)
	if c.SmoothingSpeed < MinSmoothingSpeed {
		c.SmoothingSpeed = MinSmoothingSpeed
	} else if c.SmoothingSpeed > MaxSmoothingSpeed {
		c.SmoothingSpeed = MaxSmoothingSpeed
	}
	return c, nil
}

func clampDuration(d, lo, hi time.Duration) time.Duration {
	if d < lo {
		return lo
	}
	if d > hi {
		return hi
	}
	return d
}
