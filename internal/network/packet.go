package network

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"net"
	"time"

	"github.com/banshee-data/angle.receiver/internal/angle"
)

// Ports and payloads shared with the sensor firmware.
const (
	DefaultDataPort      = 5005
	DefaultDiscoveryPort = 5006
	DiscoveryMessage     = "DISCOVER"

	// AnglePayloadSize is the size of one little-endian float32 reading.
	AnglePayloadSize = 4

	// DefaultReceiveBuffer is the OS receive buffer requested for the data socket.
	DefaultReceiveBuffer = 2 * 1024 * 1024

	// readTimeout bounds each blocking read so cancellation is noticed.
	readTimeout = 100 * time.Millisecond
)

var (
	ErrShortPacket = errors.New("packet shorter than one angle reading")
	ErrOutOfRange  = errors.New("angle outside 0-360 degrees")
)

// Sample is one accepted angle reading together with where and when it
// arrived.
type Sample struct {
	Angle float64
	From  *net.UDPAddr
	// Origin names a non-UDP source such as a serial port path.
	Origin string
	At     time.Time
}

// Source returns the sender as "ip:port", the Origin for non-UDP samples,
// or "" when unknown.
func (s Sample) Source() string {
	if s.From == nil {
		return s.Origin
	}
	return s.From.String()
}

// SampleSink receives accepted samples. Implementations are called from the
// network goroutine and must not block.
type SampleSink interface {
	HandleSample(Sample)
}

// SampleSinkFunc adapts a function to SampleSink.
type SampleSinkFunc func(Sample)

func (f SampleSinkFunc) HandleSample(s Sample) { f(s) }

// DecodeAngle reads the little-endian float32 at the start of a datagram.
// Bytes past the first four are ignored.
func DecodeAngle(payload []byte) (float64, error) {
	if len(payload) < AnglePayloadSize {
		return 0, fmt.Errorf("%w: %d bytes", ErrShortPacket, len(payload))
	}
	v := float64(math.Float32frombits(binary.LittleEndian.Uint32(payload[:AnglePayloadSize])))
	if !angle.Valid(v) {
		return 0, fmt.Errorf("%w: %v", ErrOutOfRange, v)
	}
	return v, nil
}

// EncodeAngle produces the datagram the sensor sends for a.
func EncodeAngle(a float32) []byte {
	b := make([]byte, AnglePayloadSize)
	binary.LittleEndian.PutUint32(b, math.Float32bits(a))
	return b
}
