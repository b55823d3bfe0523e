package angle

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestRotatorWithAxis(t *testing.T) {
	base := Rotator{Roll: 1, Pitch: 2, Yaw: 3}

	tests := []struct {
		axis Axis
		want Rotator
	}{
		{AxisX, Rotator{Roll: 45, Pitch: 2, Yaw: 3}},
		{AxisY, Rotator{Roll: 1, Pitch: 45, Yaw: 3}},
		{AxisZ, Rotator{Roll: 1, Pitch: 2, Yaw: 45}},
		{Axis(42), Rotator{Roll: 1, Pitch: 2, Yaw: 45}},
	}
	for _, tt := range tests {
		t.Run(tt.axis.String(), func(t *testing.T) {
			got := base.WithAxis(tt.axis, 45)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("WithAxis(%v) mismatch (-want +got):\n%s", tt.axis, diff)
			}
		})
	}

	if base.Yaw != 3 {
		t.Errorf("WithAxis mutated the receiver: %+v", base)
	}
}

func TestParseAxis(t *testing.T) {
	tests := []struct {
		in      string
		want    Axis
		wantErr bool
	}{
		{"x", AxisX, false},
		{"Roll", AxisX, false},
		{"Y", AxisY, false},
		{"pitch", AxisY, false},
		{"z", AxisZ, false},
		{"yaw", AxisZ, false},
		{"", AxisZ, false},
		{"w", AxisZ, true},
	}
	for _, tt := range tests {
		got, err := ParseAxis(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseAxis(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseAxis(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestAxisText(t *testing.T) {
	var a Axis
	if err := a.UnmarshalText([]byte("y")); err != nil {
		t.Fatalf("UnmarshalText: %v", err)
	}
	b, err := a.MarshalText()
	if err != nil {
		t.Fatalf("MarshalText: %v", err)
	}
	if string(b) != "Y" {
		t.Errorf("MarshalText = %q, want %q", b, "Y")
	}
	if err := a.UnmarshalText([]byte("q")); err == nil {
		t.Error("expected error for unknown axis")
	}
}
