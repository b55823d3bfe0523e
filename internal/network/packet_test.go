package network

import (
	"errors"
	"math"
	"net"
	"testing"
)

func TestDecodeAngle(t *testing.T) {
	tests := []struct {
		name    string
		payload []byte
		want    float64
		wantErr error
	}{
		{"zero", EncodeAngle(0), 0, nil},
		{"quarter", EncodeAngle(90), 90, nil},
		{"full turn inclusive", EncodeAngle(360), 360, nil},
		{"trailing bytes ignored", append(EncodeAngle(45.5), 0xde, 0xad), 45.5, nil},
		{"empty", nil, 0, ErrShortPacket},
		{"three bytes", []byte{1, 2, 3}, 0, ErrShortPacket},
		{"negative", EncodeAngle(-1), 0, ErrOutOfRange},
		{"too large", EncodeAngle(360.5), 0, ErrOutOfRange},
		{"nan", EncodeAngle(float32(math.NaN())), 0, ErrOutOfRange},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeAngle(tt.payload)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("DecodeAngle error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("DecodeAngle: %v", err)
			}
			if got != tt.want {
				t.Errorf("DecodeAngle = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEncodeAngle_LittleEndian(t *testing.T) {
	// 1.0f is 0x3f800000
	got := EncodeAngle(1)
	want := []byte{0x00, 0x00, 0x80, 0x3f}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("EncodeAngle(1) = % x, want % x", got, want)
		}
	}
}

func TestSampleSource(t *testing.T) {
	if got := (Sample{}).Source(); got != "" {
		t.Errorf("Source() with nil addr = %q", got)
	}
	s := Sample{From: &net.UDPAddr{IP: net.IPv4(192, 168, 1, 50), Port: 4000}}
	if got := s.Source(); got != "192.168.1.50:4000" {
		t.Errorf("Source() = %q", got)
	}
	serial := Sample{Origin: "/dev/ttyUSB0"}
	if got := serial.Source(); got != "/dev/ttyUSB0" {
		t.Errorf("Source() for serial sample = %q", got)
	}
}

func TestParseIPv4(t *testing.T) {
	if _, err := ParseIPv4("255.255.255.255"); err != nil {
		t.Errorf("ParseIPv4 broadcast: %v", err)
	}
	for _, bad := range []string{"", "not-an-ip", "::1", "300.1.1.1"} {
		if _, err := ParseIPv4(bad); !errors.Is(err, ErrInvalidAddress) {
			t.Errorf("ParseIPv4(%q) error = %v, want ErrInvalidAddress", bad, err)
		}
	}
}
