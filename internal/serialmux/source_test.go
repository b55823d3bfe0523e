package serialmux

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/angle.receiver/internal/monitoring"
	"github.com/banshee-data/angle.receiver/internal/network"
)

func init() {
	monitoring.SetLogger(nil)
}

type sampleRecorder struct {
	mu      sync.Mutex
	samples []network.Sample
}

func (r *sampleRecorder) HandleSample(s network.Sample) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.samples = append(r.samples, s)
}

func (r *sampleRecorder) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.samples)
}

func TestFeed(t *testing.T) {
	port := NewTestableSerialPort()
	mux := NewSerialMux(port)
	defer mux.Close()

	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	rec := &sampleRecorder{}
	stats := network.NewPacketStats()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go mux.Monitor(ctx)

	feedDone := make(chan error, 1)
	go func() {
		feedDone <- Feed(ctx, mux, "/dev/ttyUSB0", rec, stats, func() time.Time { return at })
	}()

	// wait for Feed to subscribe before writing
	require.Eventually(t, func() bool { return mux.Stats().Subscribers == 1 }, 2*time.Second, time.Millisecond)

	port.AddReadData("10.5\n# hello\n999\nnoise\nangle: 20\n")

	require.Eventually(t, func() bool { return rec.len() == 2 }, 2*time.Second, time.Millisecond)
	require.Eventually(t, func() bool { return stats.Snapshot().Packets == 5 }, 2*time.Second, time.Millisecond)

	rec.mu.Lock()
	assert.Equal(t, 10.5, rec.samples[0].Angle)
	assert.Equal(t, 20.0, rec.samples[1].Angle)
	assert.Equal(t, "/dev/ttyUSB0", rec.samples[0].Source())
	assert.Equal(t, at, rec.samples[0].At)
	rec.mu.Unlock()

	snap := stats.Snapshot()
	assert.Equal(t, int64(2), snap.Accepted)
	assert.Equal(t, int64(2), snap.Dropped)

	cancel()
	select {
	case err := <-feedDone:
		assert.True(t, errors.Is(err, context.Canceled))
	case <-time.After(2 * time.Second):
		t.Fatal("Feed did not return")
	}
}

func TestFeed_ReturnsWhenMuxCloses(t *testing.T) {
	d := NewDisabledSerialMux()
	done := make(chan error, 1)
	go func() {
		done <- Feed(context.Background(), d, "disabled", network.SampleSinkFunc(func(network.Sample) {}), nil, nil)
	}()

	require.Eventually(t, func() bool { return d.Stats().Subscribers == 1 }, 2*time.Second, time.Millisecond)

	require.NoError(t, d.Close())
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Feed did not return after Close")
	}
}
