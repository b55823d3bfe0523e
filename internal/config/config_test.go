package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/banshee-data/angle.receiver/internal/angle"
	"github.com/banshee-data/angle.receiver/internal/fsutil"
	"github.com/banshee-data/angle.receiver/internal/receiver"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func TestLoad_JSON(t *testing.T) {
	path := writeFile(t, "receiver.json", `{
  "data_port": 6000,
  "broadcast_ip": "192.168.1.255",
  "discovery_interval": "1s",
  "rotation_axis": "pitch",
  "angle_multiplier": -1,
  "enable_smoothing": false
}`)

	cfg, err := LoadReceiverConfig(path)
	if err != nil {
		t.Fatalf("LoadReceiverConfig: %v", err)
	}

	want := receiver.DefaultConfig()
	want.DataPort = 6000
	want.BroadcastIP = "192.168.1.255"
	want.DiscoveryInterval = time.Second
	want.RotationAxis = angle.AxisY
	want.AngleMultiplier = -1
	want.EnableSmoothing = false

	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_YAML(t *testing.T) {
	for _, ext := range []string{".yaml", ".yml"} {
		t.Run(ext, func(t *testing.T) {
			path := writeFile(t, "receiver"+ext, `
listen_ip: 127.0.0.1
connection_timeout: 10s
rotation_axis: X
angle_offset: 90
smoothing_speed: 200
`)
			cfg, err := LoadReceiverConfig(path)
			if err != nil {
				t.Fatalf("LoadReceiverConfig: %v", err)
			}
			if cfg.ListenIP != "127.0.0.1" {
				t.Errorf("ListenIP = %q", cfg.ListenIP)
			}
			if cfg.ConnectionTimeout != 10*time.Second {
				t.Errorf("ConnectionTimeout = %v", cfg.ConnectionTimeout)
			}
			if cfg.RotationAxis != angle.AxisX {
				t.Errorf("RotationAxis = %v", cfg.RotationAxis)
			}
			if cfg.AngleOffset != 90 {
				t.Errorf("AngleOffset = %v", cfg.AngleOffset)
			}
			if cfg.SmoothingSpeed != receiver.MaxSmoothingSpeed {
				t.Errorf("SmoothingSpeed = %v, want clamped to %v", cfg.SmoothingSpeed, receiver.MaxSmoothingSpeed)
			}
			// untouched fields keep their defaults
			if cfg.DataPort != 5005 {
				t.Errorf("DataPort = %d, want default 5005", cfg.DataPort)
			}
		})
	}
}

func TestLoad_EmptyPathGivesDefaults(t *testing.T) {
	cfg, err := LoadReceiverConfig("")
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(receiver.DefaultConfig(), cfg); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		wantErr string
	}{
		{"extension", "receiver.toml", "data_port = 1", "extension"},
		{"bad json", "receiver.json", "{", "failed to parse config json"},
		{"bad yaml", "receiver.yaml", "data_port: [", "failed to parse config yaml"},
		{"port range", "receiver.json", `{"data_port": 70000}`, "data_port"},
		{"discovery port zero", "receiver.json", `{"discovery_port": 0}`, "discovery_port"},
		{"bad duration", "receiver.yaml", "discovery_interval: soon", "discovery_interval"},
		{"negative duration", "receiver.json", `{"tick_interval": "-1s"}`, "tick_interval"},
		{"bad axis", "receiver.json", `{"rotation_axis": "W"}`, "rotation axis"},
		{"bad listen ip", "receiver.json", `{"listen_ip": "nope"}`, "listen IP"},
		{"nan multiplier", "receiver.yaml", "angle_multiplier: .nan", "angle_multiplier"},
		{"infinite offset", "receiver.yaml", "angle_offset: .inf", "angle_offset"},
		{"negative infinite smoothing", "receiver.yml", "smoothing_speed: -.inf", "smoothing_speed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, tt.file, tt.content)
			_, err := LoadReceiverConfig(path)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoad_TooLarge(t *testing.T) {
	path := writeFile(t, "big.json", `{"angle_offset": 1`+strings.Repeat(" ", maxFileSize)+`}`)
	_, err := Load(path)
	if err == nil || !strings.Contains(err.Error(), "too large") {
		t.Errorf("expected size error, got %v", err)
	}
}

func TestLoadFS_Memory(t *testing.T) {
	mfs := fsutil.NewMemoryFileSystem()
	mfs.WriteFile("/etc/angle/receiver.yml", []byte("rotation_axis: x\nsmoothing_speed: 20\n"))

	f, err := LoadFS(mfs, "/etc/angle/receiver.yml")
	if err != nil {
		t.Fatalf("LoadFS: %v", err)
	}
	cfg, err := f.Apply(receiver.DefaultConfig())
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if cfg.RotationAxis != angle.AxisX || cfg.SmoothingSpeed != 20 {
		t.Errorf("unexpected config: %+v", cfg)
	}

	if _, err := LoadFS(mfs, "/etc/angle/other.yml"); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestFromReceiver_RoundTrip(t *testing.T) {
	orig := receiver.DefaultConfig()
	orig.RotationAxis = angle.AxisY
	orig.AngleOffset = 12.5
	orig.DiscoveryInterval = 750 * time.Millisecond

	data, err := json.Marshal(FromReceiver(orig))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"discovery_interval":"750ms"`) {
		t.Errorf("durations should be rendered as strings: %s", data)
	}

	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		t.Fatal(err)
	}
	got, err := f.Apply(receiver.Config{})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(orig, got); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}
