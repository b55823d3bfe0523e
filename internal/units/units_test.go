package units

import (
	"math"
	"testing"
)

func TestConvertAngle(t *testing.T) {
	tests := []struct {
		name     string
		deg      float64
		units    string
		expected float64
	}{
		{"90 deg to rad", 90, Radians, math.Pi / 2},
		{"180 deg to rad", 180, Radians, math.Pi},
		{"90 deg to rev", 90, Revolutions, 0.25},
		{"360 deg to rev", 360, Revolutions, 1},
		{"45 deg to deg", 45, Degrees, 45},
		{"unknown units default to deg", 45, "grad", 45},
		{"zero", 0, Radians, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ConvertAngle(tt.deg, tt.units)
			if math.Abs(result-tt.expected) > 1e-9 {
				t.Errorf("ConvertAngle(%f, %s) = %f, want %f", tt.deg, tt.units, result, tt.expected)
			}
		})
	}
}

func TestFullTurn(t *testing.T) {
	if got := FullTurn(Degrees); got != 360 {
		t.Errorf("FullTurn(deg) = %v", got)
	}
	if got := FullTurn(Radians); math.Abs(got-2*math.Pi) > 1e-12 {
		t.Errorf("FullTurn(rad) = %v", got)
	}
	if got := FullTurn(Revolutions); got != 1 {
		t.Errorf("FullTurn(rev) = %v", got)
	}
}

func TestIsValid(t *testing.T) {
	tests := []struct {
		name     string
		unit     string
		expected bool
	}{
		{"degrees", Degrees, true},
		{"radians", Radians, true},
		{"revolutions", Revolutions, true},
		{"empty", "", false},
		{"grad", "grad", false},
		{"upper case", "DEG", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsValid(tt.unit); got != tt.expected {
				t.Errorf("IsValid(%q) = %v, want %v", tt.unit, got, tt.expected)
			}
		})
	}
}

func TestGetValidUnitsString(t *testing.T) {
	want := "deg, rad, rev"
	if got := GetValidUnitsString(); got != want {
		t.Errorf("GetValidUnitsString() = %q, want %q", got, want)
	}
}
