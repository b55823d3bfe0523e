package network

import (
	"errors"
	"fmt"
	"net"
	"sync"

	"github.com/banshee-data/angle.receiver/internal/monitoring"
)

// ErrInvalidAddress is returned when an IPv4 address string does not parse.
var ErrInvalidAddress = errors.New("invalid IPv4 address")

// ParseIPv4 parses a dotted-quad IPv4 address.
func ParseIPv4(s string) (net.IP, error) {
	ip := net.ParseIP(s)
	if ip == nil || ip.To4() == nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAddress, s)
	}
	return ip.To4(), nil
}

// Discoverer broadcasts the discovery message so a sensor on the local
// network learns where to send its readings.
type Discoverer struct {
	factory UDPSocketFactory

	mu            sync.Mutex
	conn          UDPSocket
	broadcastIP   string
	discoveryPort int
	sent          int64
}

// NewDiscoverer creates a broadcaster for broadcastIP:port. The socket is
// opened by Open.
func NewDiscoverer(factory UDPSocketFactory, broadcastIP string, port int) *Discoverer {
	if factory == nil {
		factory = NewRealUDPSocketFactory()
	}
	return &Discoverer{
		factory:       factory,
		broadcastIP:   broadcastIP,
		discoveryPort: port,
	}
}

// Open creates the outbound socket on an ephemeral port. Go enables
// SO_BROADCAST on UDP sockets by default.
func (d *Discoverer) Open() error {
	conn, err := d.factory.ListenUDP("udp4", nil)
	if err != nil {
		return fmt.Errorf("failed to create discovery socket: %w", err)
	}
	d.mu.Lock()
	d.conn = conn
	d.mu.Unlock()
	return nil
}

// SetTarget changes the broadcast endpoint used by later sends.
func (d *Discoverer) SetTarget(broadcastIP string, port int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.broadcastIP = broadcastIP
	d.discoveryPort = port
}

// IsOpen reports whether the socket is open.
func (d *Discoverer) IsOpen() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.conn != nil
}

// Send emits one discovery datagram. Without an open socket it does nothing.
// The broadcast address is parsed on every call so a bad value is reported
// each time rather than once at startup.
func (d *Discoverer) Send() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.conn == nil {
		return nil
	}
	ip, err := ParseIPv4(d.broadcastIP)
	if err != nil {
		monitoring.Logf("UDP Discovery: Invalid broadcast IP: %s", d.broadcastIP)
		return err
	}
	target := &net.UDPAddr{IP: ip, Port: d.discoveryPort}
	if _, err := d.conn.WriteToUDP([]byte(DiscoveryMessage), target); err != nil {
		return fmt.Errorf("failed to send discovery to %s: %w", target, err)
	}
	d.sent++
	return nil
}

// Sent returns the number of successful sends.
func (d *Discoverer) Sent() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.sent
}

// Close closes the socket. Safe to call repeatedly.
func (d *Discoverer) Close() error {
	d.mu.Lock()
	conn := d.conn
	d.conn = nil
	d.mu.Unlock()
	if conn != nil {
		return conn.Close()
	}
	return nil
}
