package simulator

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/banshee-data/angle.receiver/internal/network"
	"github.com/banshee-data/angle.receiver/internal/timeutil"
)

const (
	DefaultRate              = 100.0
	DefaultSpeed             = 30.0
	DefaultDiscoveryInterval = 2 * time.Second
	statusInterval           = time.Second
)

// Config describes where and how the simulator sends.
type Config struct {
	TargetIP          string
	DataPort          int
	DiscoveryPort     int
	Rate              float64 // Hz
	Mode              Mode
	Speed             float64 // degrees per second
	DiscoveryInterval time.Duration
	Seed              uint64
}

// DefaultConfig matches the real encoder's defaults on localhost.
func DefaultConfig() Config {
	return Config{
		TargetIP:          "127.0.0.1",
		DataPort:          network.DefaultDataPort,
		DiscoveryPort:     network.DefaultDiscoveryPort,
		Rate:              DefaultRate,
		Mode:              ModeRotate,
		Speed:             DefaultSpeed,
		DiscoveryInterval: DefaultDiscoveryInterval,
	}
}

// DiscoveryTarget is where discovery datagrams go: the loopback address
// when the target is local, otherwise the limited broadcast address.
func (c Config) DiscoveryTarget() string {
	if ip := net.ParseIP(c.TargetIP); (ip != nil && ip.IsLoopback()) || c.TargetIP == "localhost" {
		return "127.0.0.1"
	}
	return "255.255.255.255"
}

// DataInterval is the time between data packets.
func (c Config) DataInterval() time.Duration {
	return time.Duration(float64(time.Second) / c.Rate)
}

func (c Config) validate() error {
	if _, err := network.ParseIPv4(c.TargetIP); err != nil && c.TargetIP != "localhost" {
		return err
	}
	if c.DataPort < 1 || c.DataPort > 65535 {
		return fmt.Errorf("data port %d out of range", c.DataPort)
	}
	if c.DiscoveryPort < 1 || c.DiscoveryPort > 65535 {
		return fmt.Errorf("discovery port %d out of range", c.DiscoveryPort)
	}
	if c.Rate <= 0 {
		return fmt.Errorf("rate must be positive, got %g", c.Rate)
	}
	if _, err := ParseMode(string(c.Mode)); err != nil {
		return err
	}
	return nil
}

// Status is reported once a second while sending.
type Status struct {
	Angle   float64
	Packets int64
	Elapsed time.Duration
	// Rate is the average send rate since start in Hz.
	Rate float64
}

// Sender owns the data socket and the discovery broadcaster.
type Sender struct {
	cfg       Config
	gen       *Generator
	target    *net.UDPAddr
	data      network.UDPSocket
	discovery *network.Discoverer
	clock     timeutil.Clock
	onStatus  func(Status)

	start         time.Time
	lastData      time.Time
	lastDiscovery time.Time
	lastStatus    time.Time
	packets       int64
	sendErrors    int64
}

// NewSender validates cfg and opens both sockets. onStatus may be nil.
func NewSender(cfg Config, factory network.UDPSocketFactory, clock timeutil.Clock, onStatus func(Status)) (*Sender, error) {
	if cfg.DiscoveryInterval <= 0 {
		cfg.DiscoveryInterval = DefaultDiscoveryInterval
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if factory == nil {
		factory = network.NewRealUDPSocketFactory()
	}
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	host := cfg.TargetIP
	if host == "localhost" {
		host = "127.0.0.1"
	}
	target, err := net.ResolveUDPAddr("udp4", net.JoinHostPort(host, fmt.Sprint(cfg.DataPort)))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve target: %w", err)
	}

	data, err := factory.ListenUDP("udp4", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create data socket: %w", err)
	}
	disc := network.NewDiscoverer(factory, cfg.DiscoveryTarget(), cfg.DiscoveryPort)
	if err := disc.Open(); err != nil {
		data.Close()
		return nil, err
	}

	return &Sender{
		cfg:       cfg,
		gen:       NewGenerator(cfg.Mode, cfg.Speed, cfg.Seed),
		target:    target,
		data:      data,
		discovery: disc,
		clock:     clock,
		onStatus:  onStatus,
	}, nil
}

// Step sends whatever is due at now: a discovery datagram every
// DiscoveryInterval, a data packet every DataInterval and a status report
// every second. The first call sends both datagrams.
func (s *Sender) Step(now time.Time) {
	if s.start.IsZero() {
		s.start = now
		s.lastStatus = now
	}

	if s.lastDiscovery.IsZero() || now.Sub(s.lastDiscovery) >= s.cfg.DiscoveryInterval {
		if err := s.discovery.Send(); err != nil {
			s.sendErrors++
		}
		s.lastDiscovery = now
	}

	interval := s.cfg.DataInterval()
	if s.lastData.IsZero() || now.Sub(s.lastData) >= interval {
		a := s.gen.Next(interval)
		if _, err := s.data.WriteToUDP(network.EncodeAngle(float32(a)), s.target); err != nil {
			s.sendErrors++
		} else {
			s.packets++
		}
		s.lastData = now

		if now.Sub(s.lastStatus) >= statusInterval {
			s.lastStatus = now
			if s.onStatus != nil {
				s.onStatus(s.statusAt(now))
			}
		}
	}
}

func (s *Sender) statusAt(now time.Time) Status {
	st := Status{Angle: s.gen.Angle(), Packets: s.packets}
	if !s.start.IsZero() {
		st.Elapsed = now.Sub(s.start)
	}
	if st.Elapsed > 0 {
		st.Rate = float64(s.packets) / st.Elapsed.Seconds()
	}
	return st
}

// Summary reports the totals so far.
func (s *Sender) Summary() Status {
	return s.statusAt(s.clock.Now())
}

// SendErrors counts failed sends of either kind.
func (s *Sender) SendErrors() int64 { return s.sendErrors }

// Run calls Step at the data rate until ctx is done.
func (s *Sender) Run(ctx context.Context) error {
	ticker := s.clock.NewTicker(s.cfg.DataInterval())
	defer ticker.Stop()

	s.Step(s.clock.Now())
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C():
			s.Step(now)
		}
	}
}

// Close closes both sockets.
func (s *Sender) Close() error {
	s.discovery.Close()
	return s.data.Close()
}
