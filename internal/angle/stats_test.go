package angle

import (
	"math"
	"testing"
)

func TestCircular(t *testing.T) {
	tests := []struct {
		name      string
		in        []float64
		mean      float64
		resultant float64
		span      float64
	}{
		{"single", []float64{42}, 42, 1, 0},
		{"identical", []float64{90, 90, 90}, 90, 1, 0},
		{"wraps through zero", []float64{350, 10}, 0, math.Cos(10 * math.Pi / 180), 20},
		{"symmetric about 180", []float64{170, 190}, 180, math.Cos(10 * math.Pi / 180), 20},
		{"quarter", []float64{0, 90}, 45, math.Sqrt2 / 2, 90},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Circular(tt.in)
			if got.Count != len(tt.in) {
				t.Errorf("Count = %d", got.Count)
			}
			if d := math.Abs(math.Mod(got.Mean-tt.mean+540, 360) - 180); d > 1e-9 {
				t.Errorf("Mean = %v, want %v", got.Mean, tt.mean)
			}
			if math.Abs(got.Resultant-tt.resultant) > 1e-9 {
				t.Errorf("Resultant = %v, want %v", got.Resultant, tt.resultant)
			}
			if math.Abs(got.Span-tt.span) > 1e-9 {
				t.Errorf("Span = %v, want %v", got.Span, tt.span)
			}
			if got.Mean < 0 || got.Mean >= 360 {
				t.Errorf("Mean %v outside [0, 360)", got.Mean)
			}
		})
	}
}

func TestCircular_Opposite(t *testing.T) {
	got := Circular([]float64{0, 180})
	if got.Resultant > 1e-9 {
		t.Errorf("Resultant = %v, want 0", got.Resultant)
	}
	if got.StdDev != 0 {
		t.Errorf("StdDev = %v, want 0 without a mean direction", got.StdDev)
	}
}

func TestCircular_Empty(t *testing.T) {
	if got := Circular(nil); got != (CircularStats{}) {
		t.Errorf("Circular(nil) = %+v", got)
	}
}

func TestCircular_StdDevGrowsWithSpread(t *testing.T) {
	tight := Circular([]float64{100, 101, 99})
	loose := Circular([]float64{60, 100, 140})
	if !(tight.StdDev < loose.StdDev) {
		t.Errorf("tight %v should be < loose %v", tight.StdDev, loose.StdDev)
	}
	if tight.StdDev == 0 {
		t.Error("non-identical angles should have a non-zero spread")
	}
}
