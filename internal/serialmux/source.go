package serialmux

import (
	"context"
	"time"

	"github.com/banshee-data/angle.receiver/internal/monitoring"
	"github.com/banshee-data/angle.receiver/internal/network"
)

// Feed subscribes to mux and hands every valid angle line to sink as a
// sample whose origin is name. Comment lines are logged; anything else is
// counted as dropped. It returns when ctx is done or the mux closes.
func Feed(ctx context.Context, mux SerialMuxInterface, name string, sink network.SampleSink, stats network.PacketStatsInterface, now func() time.Time) error {
	if now == nil {
		now = time.Now
	}
	id, lines := mux.Subscribe()
	defer mux.Unsubscribe(id)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			if stats != nil {
				stats.AddPacket(len(line))
			}
			switch ClassifyLine(line) {
			case EventTypeAngle:
				v, err := ParseAngleLine(line)
				if err != nil {
					if stats != nil {
						stats.AddDropped()
					}
					continue
				}
				if stats != nil {
					stats.AddAccepted()
				}
				sink.HandleSample(network.Sample{Angle: v, Origin: name, At: now()})
			case EventTypeComment:
				monitoring.Logf("serial %s: %s", name, line)
			default:
				if stats != nil {
					stats.AddDropped()
				}
			}
		}
	}
}
