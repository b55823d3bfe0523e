package network

import (
	"bufio"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"

	"github.com/banshee-data/angle.receiver/internal/monitoring"
)

// pcapngMagic is the block type of a pcapng section header.
const pcapngMagic = 0x0A0D0D0A

// ReplayConfig controls ReplayPCAP.
type ReplayConfig struct {
	// Port filters UDP packets by destination port. Zero accepts any port.
	Port int
	// SpeedMultiplier paces replay against capture timestamps (1.0 = real
	// time, 2.0 = twice as fast). Zero or negative replays as fast as possible.
	SpeedMultiplier float64
	Stats           PacketStatsInterface
}

// ReplayResult summarises a replay run.
type ReplayResult struct {
	Packets  int
	Accepted int
	Dropped  int
}

// ReplayPCAP reads a pcap or pcapng capture of sensor traffic and feeds the
// UDP payloads into sink exactly as the live listener would, using the
// capture timestamps as arrival times.
func ReplayPCAP(ctx context.Context, r io.Reader, cfg ReplayConfig, sink SampleSink) (ReplayResult, error) {
	var res ReplayResult
	stats := cfg.Stats
	if stats == nil {
		stats = &noopStats{}
	}

	source, err := newPacketSource(r)
	if err != nil {
		return res, err
	}

	var firstCapture time.Time
	replayStart := time.Now()

	for {
		select {
		case <-ctx.Done():
			return res, ctx.Err()
		default:
		}

		packet, err := source.NextPacket()
		if err == io.EOF {
			monitoring.Logf("PCAP replay complete: %d packets, %d accepted, %d dropped", res.Packets, res.Accepted, res.Dropped)
			return res, nil
		}
		if err != nil {
			return res, fmt.Errorf("failed to read capture: %w", err)
		}

		udpLayer := packet.Layer(layers.LayerTypeUDP)
		if udpLayer == nil {
			continue
		}
		udp, ok := udpLayer.(*layers.UDP)
		if !ok {
			continue
		}
		if cfg.Port != 0 && int(udp.DstPort) != cfg.Port {
			continue
		}

		captured := packet.Metadata().Timestamp
		if cfg.SpeedMultiplier > 0 {
			if firstCapture.IsZero() {
				firstCapture = captured
			}
			due := time.Duration(float64(captured.Sub(firstCapture)) / cfg.SpeedMultiplier)
			if wait := due - time.Since(replayStart); wait > 0 {
				select {
				case <-ctx.Done():
					return res, ctx.Err()
				case <-time.After(wait):
				}
			}
		}

		res.Packets++
		stats.AddPacket(len(udp.Payload))
		v, err := DecodeAngle(udp.Payload)
		if err != nil {
			res.Dropped++
			stats.AddDropped()
			continue
		}
		res.Accepted++
		stats.AddAccepted()
		sink.HandleSample(Sample{Angle: v, From: sourceAddr(packet, udp), At: captured})
	}
}

func newPacketSource(r io.Reader) (*gopacket.PacketSource, error) {
	br := bufio.NewReader(r)
	head, err := br.Peek(4)
	if err != nil {
		return nil, fmt.Errorf("failed to read capture header: %w", err)
	}
	if binary.LittleEndian.Uint32(head) == pcapngMagic {
		ng, err := pcapgo.NewNgReader(br, pcapgo.DefaultNgReaderOptions)
		if err != nil {
			return nil, fmt.Errorf("failed to open pcapng capture: %w", err)
		}
		return gopacket.NewPacketSource(ng, ng.LinkType()), nil
	}
	pr, err := pcapgo.NewReader(br)
	if err != nil {
		return nil, fmt.Errorf("failed to open pcap capture: %w", err)
	}
	return gopacket.NewPacketSource(pr, pr.LinkType()), nil
}

func sourceAddr(packet gopacket.Packet, udp *layers.UDP) *net.UDPAddr {
	if ip4, ok := packet.Layer(layers.LayerTypeIPv4).(*layers.IPv4); ok {
		return &net.UDPAddr{IP: ip4.SrcIP, Port: int(udp.SrcPort)}
	}
	if ip6, ok := packet.Layer(layers.LayerTypeIPv6).(*layers.IPv6); ok {
		return &net.UDPAddr{IP: ip6.SrcIP, Port: int(udp.SrcPort)}
	}
	return nil
}
