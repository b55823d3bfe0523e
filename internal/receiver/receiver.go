// Package receiver turns angle datagrams from the encoder into a smoothed
// rotation. A background goroutine only records the latest reading; all
// state changes happen in Tick, which Run drives from a clock.
package receiver

import (
	"context"
	"errors"
	"net"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/banshee-data/angle.receiver/internal/angle"
	"github.com/banshee-data/angle.receiver/internal/monitoring"
	"github.com/banshee-data/angle.receiver/internal/network"
	"github.com/banshee-data/angle.receiver/internal/timeutil"
)

// ErrNotListening is returned by operations that need open sockets.
var ErrNotListening = errors.New("receiver is not listening")

// Options carries the collaborators of a Receiver. Zero values pick the
// real implementations.
type Options struct {
	Factory   network.UDPSocketFactory
	Clock     timeutil.Clock
	Owner     Owner
	Forwarder *network.PacketForwarder
}

// Receiver owns the data and discovery sockets and the derived angle state.
type Receiver struct {
	factory   network.UDPSocketFactory
	clock     timeutil.Clock
	stats     *network.PacketStats
	forwarder *network.PacketForwarder

	// written by the network goroutine, consumed by Tick
	pending atomic.Pointer[network.Sample]

	mu             sync.Mutex
	cfg            Config
	owner          Owner
	listener       *network.DataListener
	discoverer     *network.Discoverer
	cancelServe    context.CancelFunc
	serveDone      chan struct{}
	listening      bool
	connected      bool
	sensorAddr     string
	raw            float64
	processed      float64
	smoothed       float64
	packetsApplied int64
	sinceDiscovery time.Duration
	sincePacket    time.Duration
	lastSampleAt   time.Time

	angles      *hub[AngleEvent]
	connections *hub[ConnectionEvent]
}

// New creates a Receiver. cfg is normalised; an error means it could not be.
func New(cfg Config, opts Options) (*Receiver, error) {
	cfg, err := cfg.Normalize()
	if err != nil {
		return nil, err
	}
	if opts.Factory == nil {
		opts.Factory = network.NewRealUDPSocketFactory()
	}
	if opts.Clock == nil {
		opts.Clock = timeutil.RealClock{}
	}
	return &Receiver{
		factory:     opts.Factory,
		clock:       opts.Clock,
		stats:       network.NewPacketStats(),
		forwarder:   opts.Forwarder,
		cfg:         cfg,
		owner:       opts.Owner,
		angles:      newHub[AngleEvent](),
		connections: newHub[ConnectionEvent](),
	}, nil
}

// Config returns the active configuration.
func (r *Receiver) Config() Config {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cfg
}

// SetConfig replaces the configuration. Processing and smoothing settings
// take effect on the next Tick and the discovery target on the next send.
// Data port and listen IP changes apply the next time StartListening opens
// the data socket.
func (r *Receiver) SetConfig(cfg Config) error {
	cfg, err := cfg.Normalize()
	if err != nil {
		return err
	}
	r.mu.Lock()
	r.cfg = cfg
	disc := r.discoverer
	r.mu.Unlock()
	if disc != nil {
		disc.SetTarget(cfg.BroadcastIP, cfg.DiscoveryPort)
	}
	return nil
}

// SetOwner attaches the object that follows the smoothed angle.
func (r *Receiver) SetOwner(o Owner) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.owner = o
}

// HandleSample records the newest reading. It is called from the network
// goroutine (and from serial or replay sources) and never blocks.
func (r *Receiver) HandleSample(s network.Sample) {
	r.pending.Store(&s)
}

// StartListening opens the data and discovery sockets and starts receiving.
// Calling it while already listening is a no-op.
func (r *Receiver) StartListening() error {
	r.mu.Lock()
	if r.listening {
		r.mu.Unlock()
		monitoring.Logf("UDP Receiver: Already listening")
		return nil
	}
	cfg := r.cfg

	ip, err := network.ParseIPv4(cfg.ListenIP)
	if err != nil {
		r.mu.Unlock()
		monitoring.Logf("UDP Receiver: Invalid IP address: %s", cfg.ListenIP)
		return err
	}

	listener := network.NewDataListener(network.DataListenerConfig{
		Address:     net.JoinHostPort(ip.String(), strconv.Itoa(cfg.DataPort)),
		RcvBuf:      network.DefaultReceiveBuffer,
		LogInterval: cfg.StatsLogInterval,
		Factory:     r.factory,
		Stats:       r.stats,
		Sink:        r,
		Forwarder:   r.forwarder,
		Now:         r.clock.Now,
	})
	if err := listener.Bind(); err != nil {
		r.mu.Unlock()
		monitoring.Logf("UDP Receiver: Failed to create data socket on port %d: %v", cfg.DataPort, err)
		return err
	}

	disc := network.NewDiscoverer(r.factory, cfg.BroadcastIP, cfg.DiscoveryPort)
	if err := disc.Open(); err != nil {
		listener.Close()
		r.mu.Unlock()
		monitoring.Logf("UDP Receiver: Failed to create discovery socket: %v", err)
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := listener.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
			monitoring.Logf("UDP Receiver: data listener stopped: %v", err)
		}
	}()

	r.listener = listener
	r.discoverer = disc
	r.cancelServe = cancel
	r.serveDone = done
	r.listening = true
	r.sinceDiscovery = 0
	r.mu.Unlock()

	monitoring.Logf("UDP Receiver: Started listening on %s, discovery on port %d", listener.LocalAddr(), cfg.DiscoveryPort)

	r.SendDiscovery()
	return nil
}

// StopListening stops the receive goroutine and closes both sockets. The
// sensor is reported as disconnected. Safe to call when not listening.
func (r *Receiver) StopListening() {
	r.mu.Lock()
	cancel, done := r.cancelServe, r.serveDone
	listener, disc := r.listener, r.discoverer
	r.cancelServe, r.serveDone = nil, nil
	r.listener, r.discoverer = nil, nil
	wasListening := r.listening
	r.listening = false
	connEvt := r.setConnectedLocked(false, "")
	r.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if listener != nil {
		listener.Close()
	}
	if done != nil {
		<-done
	}
	if disc != nil {
		disc.Close()
	}
	if connEvt != nil {
		r.connections.publish(*connEvt)
	}
	if wasListening {
		monitoring.Logf("UDP Receiver: Stopped listening")
	}
}

// ResetAngle zeroes every stored angle, including a reading not yet applied.
func (r *Receiver) ResetAngle() {
	r.pending.Store(nil)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.raw, r.processed, r.smoothed = 0, 0, 0
}

// SendDiscovery broadcasts one DISCOVER datagram. Without an open discovery
// socket it does nothing.
func (r *Receiver) SendDiscovery() {
	r.mu.Lock()
	disc := r.discoverer
	r.mu.Unlock()
	if disc == nil {
		return
	}
	if err := disc.Send(); err != nil {
		monitoring.Logf("UDP Discovery: %v", err)
	}
}

// Tick advances the receiver by dt: periodic discovery, applying a pending
// reading, connection timeout, smoothing and the owner's rotation.
func (r *Receiver) Tick(dt time.Duration) {
	var (
		angleEvt      *AngleEvent
		connEvt       *ConnectionEvent
		sendDiscovery bool
	)

	r.mu.Lock()
	cfg := r.cfg

	r.sinceDiscovery += dt
	if r.sinceDiscovery >= cfg.DiscoveryInterval {
		r.sinceDiscovery = 0
		sendDiscovery = true
	}

	if s := r.pending.Swap(nil); s != nil {
		r.raw = s.Angle
		r.packetsApplied++
		r.sincePacket = 0
		r.lastSampleAt = s.At

		if !r.connected {
			connEvt = r.setConnectedLocked(true, s.Source())
		}

		r.processed = angle.Process(r.raw, cfg.AngleMultiplier, cfg.AngleOffset)
		angleEvt = &AngleEvent{Raw: r.raw, Processed: r.processed, Source: s.Source(), At: s.At}
	} else {
		r.sincePacket += dt
		if r.connected && r.sincePacket > cfg.ConnectionTimeout {
			connEvt = r.setConnectedLocked(false, "")
		}
	}

	if cfg.EnableSmoothing {
		r.smoothed = angle.Lerp(r.smoothed, r.processed, dt.Seconds()*cfg.SmoothingSpeed)
	} else {
		r.smoothed = r.processed
	}

	if cfg.AutoApplyRotation && r.owner != nil {
		r.owner.SetRotation(r.owner.Rotation().WithAxis(cfg.RotationAxis, r.smoothed))
	}
	r.mu.Unlock()

	if sendDiscovery {
		r.SendDiscovery()
	}
	if connEvt != nil {
		r.connections.publish(*connEvt)
	}
	if angleEvt != nil {
		r.angles.publish(*angleEvt)
	}
}

// setConnectedLocked updates the connection state and returns the event to
// publish, or nil when nothing changed. r.mu must be held.
func (r *Receiver) setConnectedLocked(connected bool, addr string) *ConnectionEvent {
	if r.connected == connected {
		return nil
	}
	r.connected = connected
	r.sensorAddr = addr
	if connected {
		monitoring.Logf("UDP Receiver: sensor connected from %s", addr)
	} else {
		monitoring.Logf("UDP Receiver: sensor disconnected")
	}
	return &ConnectionEvent{Connected: connected, Address: addr, At: r.clock.Now()}
}

// Run ticks the receiver at the configured interval until ctx is done, then
// stops listening.
func (r *Receiver) Run(ctx context.Context) error {
	r.mu.Lock()
	interval := r.cfg.TickInterval
	r.mu.Unlock()

	ticker := r.clock.NewTicker(interval)
	defer ticker.Stop()
	defer r.StopListening()

	last := r.clock.Now()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C():
			dt := now.Sub(last)
			last = now
			if dt < 0 {
				dt = 0
			}
			r.Tick(dt)
		}
	}
}

// SubscribeAngles returns a subscription id and a channel of applied
// readings. Slow consumers miss events rather than stall the receiver.
func (r *Receiver) SubscribeAngles() (string, <-chan AngleEvent) {
	return r.angles.subscribe()
}

// SubscribeConnection returns a subscription id and a channel of sensor
// connect/disconnect events.
func (r *Receiver) SubscribeConnection() (string, <-chan ConnectionEvent) {
	return r.connections.subscribe()
}

// Unsubscribe closes and removes a subscription of either kind.
func (r *Receiver) Unsubscribe(id string) {
	if !r.angles.unsubscribe(id) {
		r.connections.unsubscribe(id)
	}
}

// Close stops listening and closes every subscriber channel.
func (r *Receiver) Close() error {
	r.StopListening()
	r.angles.close()
	r.connections.close()
	return nil
}

// DataAddr returns the bound data socket address, or "" when not listening.
func (r *Receiver) DataAddr() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listener == nil {
		return ""
	}
	if a := r.listener.LocalAddr(); a != nil {
		return a.String()
	}
	return ""
}
