package units

import (
	"testing"
	"time"
	_ "time/tzdata"
)

func TestIsTimezoneValid(t *testing.T) {
	tests := []struct {
		name     string
		timezone string
		expected bool
	}{
		{"valid UTC", "UTC", true},
		{"valid Berlin", "Europe/Berlin", true},
		{"invalid", "Invalid/Timezone", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := IsTimezoneValid(tt.timezone)
			if res != tt.expected {
				t.Errorf("IsTimezoneValid(%s) = %v, want %v", tt.timezone, res, tt.expected)
			}
		})
	}
}

func TestConvertTime(t *testing.T) {
	utcTime := time.Date(2025, 9, 13, 12, 0, 0, 0, time.UTC)

	t.Run("UTC to UTC", func(t *testing.T) {
		out, err := ConvertTime(utcTime, "UTC")
		if err != nil {
			t.Fatalf("ConvertTime error: %v", err)
		}
		if !out.Equal(utcTime) || out.Location() != time.UTC {
			t.Fatalf("ConvertTime returned %v, want %v", out, utcTime)
		}
	})

	t.Run("empty means UTC", func(t *testing.T) {
		out, err := ConvertTime(utcTime.In(time.FixedZone("X", 3600)), "")
		if err != nil {
			t.Fatalf("ConvertTime error: %v", err)
		}
		if out.Location() != time.UTC {
			t.Errorf("location = %v, want UTC", out.Location())
		}
	})

	t.Run("UTC to Berlin", func(t *testing.T) {
		out, err := ConvertTime(utcTime, "Europe/Berlin")
		if err != nil {
			t.Fatalf("ConvertTime error: %v", err)
		}
		if !out.Equal(utcTime) {
			t.Errorf("instant changed: %v", out)
		}
		if out.Hour() != 14 {
			t.Errorf("hour = %d, want 14 (CEST)", out.Hour())
		}
	})

	t.Run("unknown zone", func(t *testing.T) {
		if _, err := ConvertTime(utcTime, "Mars/Olympus"); err == nil {
			t.Error("expected error")
		}
	})
}
