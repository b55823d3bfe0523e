package simulator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/angle.receiver/internal/monitoring"
	"github.com/banshee-data/angle.receiver/internal/network"
	"github.com/banshee-data/angle.receiver/internal/timeutil"
)

func init() {
	monitoring.SetLogger(nil)
}

var epoch = time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

func newTestSender(t *testing.T, mutate func(*Config), onStatus func(Status)) (*Sender, *network.MockUDPSocket, *network.MockUDPSocket, *timeutil.MockClock) {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Mode = ModeStatic
	if mutate != nil {
		mutate(&cfg)
	}
	data := network.NewMockUDPSocket(nil)
	disc := network.NewMockUDPSocket(nil)
	clock := timeutil.NewMockClock(epoch)
	s, err := NewSender(cfg, network.NewMockUDPSocketFactory(data, disc), clock, onStatus)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s, data, disc, clock
}

func TestDiscoveryTarget(t *testing.T) {
	tests := map[string]string{
		"127.0.0.1":    "127.0.0.1",
		"localhost":    "127.0.0.1",
		"127.0.0.2":    "127.0.0.1",
		"192.168.1.50": "255.255.255.255",
	}
	for target, want := range tests {
		c := DefaultConfig()
		c.TargetIP = target
		assert.Equal(t, want, c.DiscoveryTarget(), target)
	}
}

func TestNewSender_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad ip", func(c *Config) { c.TargetIP = "nowhere" }},
		{"zero rate", func(c *Config) { c.Rate = 0 }},
		{"bad data port", func(c *Config) { c.DataPort = 0 }},
		{"bad discovery port", func(c *Config) { c.DiscoveryPort = 70000 }},
		{"bad mode", func(c *Config) { c.Mode = "spin" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := DefaultConfig()
			tt.mutate(&c)
			_, err := NewSender(c, network.NewMockUDPSocketFactory(), nil, nil)
			assert.Error(t, err)
		})
	}
}

func TestNewSender_DiscoverySocketFailureClosesData(t *testing.T) {
	data := network.NewMockUDPSocket(nil)
	f := network.NewMockUDPSocketFactory(data)
	f.FailOn = 2
	f.Error = errors.New("no sockets left")
	_, err := NewSender(DefaultConfig(), f, nil, nil)
	require.Error(t, err)
	assert.True(t, data.IsClosed())
}

func TestSender_Step(t *testing.T) {
	s, data, disc, _ := newTestSender(t, nil, nil)

	s.Step(epoch)
	require.Equal(t, 1, data.WriteCount())
	require.Equal(t, 1, disc.WriteCount())

	got, err := network.DecodeAngle(data.Writes[0].Data)
	require.NoError(t, err)
	assert.Equal(t, StaticAngle, got)
	assert.Equal(t, "127.0.0.1:5005", data.Writes[0].Addr.String())
	assert.Equal(t, "DISCOVER", string(disc.Writes[0].Data))
	assert.Equal(t, "127.0.0.1:5006", disc.Writes[0].Addr.String())

	// not yet due
	s.Step(epoch.Add(5 * time.Millisecond))
	assert.Equal(t, 1, data.WriteCount())

	// 100 Hz: one packet per 10ms
	for i := 1; i <= 199; i++ {
		s.Step(epoch.Add(time.Duration(i) * 10 * time.Millisecond))
	}
	assert.Equal(t, 200, data.WriteCount())
	assert.Equal(t, 1, disc.WriteCount(), "discovery waits for the 2s interval")

	s.Step(epoch.Add(2 * time.Second))
	assert.Equal(t, 2, disc.WriteCount())
}

func TestSender_StatusEverySecond(t *testing.T) {
	var reports []Status
	s, _, _, clock := newTestSender(t, func(c *Config) { c.Rate = 10 }, func(st Status) {
		reports = append(reports, st)
	})

	for i := 0; i <= 30; i++ {
		s.Step(epoch.Add(time.Duration(i) * 100 * time.Millisecond))
	}
	require.Len(t, reports, 3)
	assert.Equal(t, int64(11), reports[0].Packets)
	assert.Equal(t, time.Second, reports[0].Elapsed)
	assert.InDelta(t, 11.0, reports[0].Rate, 1e-9)

	clock.Advance(3 * time.Second)
	sum := s.Summary()
	assert.Equal(t, int64(31), sum.Packets)
	assert.Equal(t, 3*time.Second, sum.Elapsed)
}

func TestSender_WriteErrorsCounted(t *testing.T) {
	s, data, _, _ := newTestSender(t, nil, nil)
	data.WriteError = errors.New("network down")
	s.Step(epoch)
	assert.Equal(t, int64(1), s.SendErrors())
	assert.Equal(t, int64(0), s.Summary().Packets)
}

func TestSender_Run(t *testing.T) {
	s, data, _, clock := newTestSender(t, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	require.Eventually(t, func() bool { return data.WriteCount() >= 1 }, time.Second, time.Millisecond)
	require.Eventually(t, func() bool {
		clock.Advance(10 * time.Millisecond)
		return data.WriteCount() >= 3
	}, 2*time.Second, time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return")
	}
}
