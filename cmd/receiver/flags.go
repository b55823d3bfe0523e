package main

import (
	"flag"
	"time"

	"github.com/banshee-data/angle.receiver/internal/config"
	"github.com/banshee-data/angle.receiver/internal/receiver"
)

var (
	configFile  = flag.String("config", "", "Path to a JSON or YAML receiver config file")
	listen      = flag.String("listen", ":8080", "HTTP listen address (empty disables the HTTP server)")
	dbFile      = flag.String("db", "angles.db", "SQLite database path (empty disables recording)")
	logFile     = flag.String("log-file", "", "Also write logs to this file, rotated by size")
	devMode     = flag.Bool("dev", false, "Feed simulated angles from a mock serial port instead of a sensor")
	devMotion   = flag.String("dev-mode", "rotate", "Simulated motion in dev mode (rotate, sine, static, random)")
	serialPort  = flag.String("serial-port", "", "Read angles from this serial port in addition to UDP")
	serialBaud  = flag.Int("serial-baud", 115200, "Serial baud rate")
	serialFrame = flag.String("serial-frame", "8N1", "Serial framing: data bits, parity (N/E/O), stop bits")
	listPorts   = flag.Bool("list-ports", false, "List serial ports and exit")
	pcapFile    = flag.String("pcap", "", "Replay a pcap capture instead of listening on UDP")
	pcapSpeed   = flag.Float64("pcap-speed", 1.0, "Replay speed multiplier (0 = as fast as possible)")
	forwardAddr = flag.String("forward", "", "Mirror raw sensor datagrams to host:port")
	dataPort    = flag.Int("data-port", 0, "Override the UDP data port")
	discPort    = flag.Int("discovery-port", 0, "Override the UDP discovery port")
	listenIP    = flag.String("listen-ip", "", "Override the IPv4 address the data socket binds")
	broadcastIP = flag.String("broadcast-ip", "", "Override the discovery broadcast address")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

const (
	recorderBatch = 100
	recorderFlush = time.Second
	devInterval   = 10 * time.Millisecond
)

// overrides holds command-line values that take precedence over the config
// file. Zero values leave the file or default untouched.
type overrides struct {
	DataPort      int
	DiscoveryPort int
	ListenIP      string
	BroadcastIP   string
}

func flagOverrides() overrides {
	return overrides{
		DataPort:      *dataPort,
		DiscoveryPort: *discPort,
		ListenIP:      *listenIP,
		BroadcastIP:   *broadcastIP,
	}
}

// resolveConfig loads the config file, if any, and applies the overrides.
func resolveConfig(path string, o overrides) (receiver.Config, error) {
	cfg, err := config.LoadReceiverConfig(path)
	if err != nil {
		return cfg, err
	}
	f := config.File{}
	if o.DataPort != 0 {
		f.DataPort = &o.DataPort
	}
	if o.DiscoveryPort != 0 {
		f.DiscoveryPort = &o.DiscoveryPort
	}
	if o.ListenIP != "" {
		f.ListenIP = &o.ListenIP
	}
	if o.BroadcastIP != "" {
		f.BroadcastIP = &o.BroadcastIP
	}
	if err := f.Validate(); err != nil {
		return cfg, err
	}
	return f.Apply(cfg)
}

// sessionSource names where a session's readings come from.
func sessionSource(dev bool, serial, pcap string) string {
	switch {
	case pcap != "":
		return "pcap"
	case dev:
		return "dev"
	case serial != "":
		return "udp+serial"
	default:
		return "udp"
	}
}
