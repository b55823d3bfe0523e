package angle

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// CircularStats summarises a set of angles on the circle.
type CircularStats struct {
	Count int `json:"count"`
	// Mean is the circular mean in [0, 360).
	Mean float64 `json:"mean"`
	// Resultant is the mean resultant length in [0, 1]; 1 means all angles
	// coincide.
	Resultant float64 `json:"resultant"`
	// StdDev is the circular standard deviation in degrees. It is 0 when
	// Resultant is 0, as such angles have no mean direction.
	StdDev float64 `json:"std_dev"`
	// Span is the smallest arc, in degrees, that contains every angle.
	Span float64 `json:"span"`
}

// Circular computes circular statistics for degs. An empty input yields the
// zero value.
func Circular(degs []float64) CircularStats {
	if len(degs) == 0 {
		return CircularStats{}
	}
	rad := make([]float64, len(degs))
	cos := make([]float64, len(degs))
	sin := make([]float64, len(degs))
	for i, d := range degs {
		rad[i] = d * math.Pi / 180
		cos[i] = math.Cos(rad[i])
		sin[i] = math.Sin(rad[i])
	}

	r := math.Hypot(stat.Mean(cos, nil), stat.Mean(sin, nil))
	if r > 1 {
		r = 1
	}
	st := CircularStats{
		Count:     len(degs),
		Mean:      Normalize(stat.CircularMean(rad, nil) * 180 / math.Pi),
		Resultant: r,
		Span:      span(degs),
	}
	if r > 1e-12 {
		st.StdDev = math.Sqrt(-2*math.Log(r)) * 180 / math.Pi
	} else {
		st.Resultant = 0
	}
	return st
}

// span is 360 minus the largest gap between neighbouring angles.
func span(degs []float64) float64 {
	sorted := make([]float64, len(degs))
	for i, d := range degs {
		sorted[i] = Normalize(d)
	}
	sort.Float64s(sorted)

	maxGap := sorted[0] + 360 - sorted[len(sorted)-1]
	for i := 1; i < len(sorted); i++ {
		if g := sorted[i] - sorted[i-1]; g > maxGap {
			maxGap = g
		}
	}
	return 360 - maxGap
}
