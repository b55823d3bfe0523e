package serialmux

import (
	"fmt"
	"strings"

	"go.bug.st/serial"
)

// DefaultBaudRate matches the encoder firmware's USB console.
const DefaultBaudRate = 115200

// DefaultFrame is the character framing used when none is given.
const DefaultFrame = "8N1"

// PortOptions holds the line settings for a real port. Zero values mean
// 115200 baud, 8N1.
type PortOptions struct {
	BaudRate int    `json:"baud_rate"`
	DataBits int    `json:"data_bits"`
	Parity   string `json:"parity"`
	StopBits int    `json:"stop_bits"`
}

// ParsePortOptions builds options from a baud rate and a frame such as
// "8N1" or "7E2". An empty frame means DefaultFrame.
func ParsePortOptions(baud int, frame string) (PortOptions, error) {
	frame = strings.ToUpper(strings.TrimSpace(frame))
	if frame == "" {
		frame = DefaultFrame
	}
	if len(frame) != 3 || frame[0] < '5' || frame[0] > '8' || (frame[2] != '1' && frame[2] != '2') {
		return PortOptions{}, fmt.Errorf("invalid frame %q: want <data bits><N|E|O><stop bits>, e.g. 8N1", frame)
	}
	return PortOptions{
		BaudRate: baud,
		DataBits: int(frame[0] - '0'),
		Parity:   frame[1:2],
		StopBits: int(frame[2] - '0'),
	}.Normalize()
}

// Normalize fills defaults and rejects settings the port cannot use.
func (o PortOptions) Normalize() (PortOptions, error) {
	if o.BaudRate <= 0 {
		o.BaudRate = DefaultBaudRate
	}
	if o.DataBits == 0 {
		o.DataBits = 8
	}
	if o.DataBits < 5 || o.DataBits > 8 {
		return o, fmt.Errorf("invalid data bits %d: must be between 5 and 8", o.DataBits)
	}
	if o.StopBits == 0 {
		o.StopBits = 1
	}
	if o.StopBits != 1 && o.StopBits != 2 {
		return o, fmt.Errorf("invalid stop bits %d: supported values are 1 or 2", o.StopBits)
	}

	switch p := strings.ToUpper(strings.TrimSpace(o.Parity)); p {
	case "", "N", "NONE":
		o.Parity = "N"
	case "E", "EVEN":
		o.Parity = "E"
	case "O", "ODD":
		o.Parity = "O"
	default:
		return o, fmt.Errorf("unsupported parity %q: expected N, E, or O", o.Parity)
	}
	return o, nil
}

// String renders the options as "115200 8N1".
func (o PortOptions) String() string {
	n, err := o.Normalize()
	if err != nil {
		return fmt.Sprintf("invalid(%d %d%s%d)", o.BaudRate, o.DataBits, o.Parity, o.StopBits)
	}
	return fmt.Sprintf("%d %d%s%d", n.BaudRate, n.DataBits, n.Parity, n.StopBits)
}

// SerialMode converts the options into the go.bug.st/serial mode.
func (o PortOptions) SerialMode() (*serial.Mode, error) {
	n, err := o.Normalize()
	if err != nil {
		return nil, err
	}
	mode := &serial.Mode{
		BaudRate: n.BaudRate,
		DataBits: n.DataBits,
		StopBits: serial.OneStopBit,
		Parity:   serial.NoParity,
	}
	if n.StopBits == 2 {
		mode.StopBits = serial.TwoStopBits
	}
	switch n.Parity {
	case "E":
		mode.Parity = serial.EvenParity
	case "O":
		mode.Parity = serial.OddParity
	}
	return mode, nil
}
