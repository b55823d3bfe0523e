// Package simulator emulates the rotary encoder: it generates angles in one
// of several motion modes and sends them to a receiver over UDP, announcing
// itself with periodic discovery datagrams like the real device's peers do.
package simulator

import (
	"fmt"
	"math"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/banshee-data/angle.receiver/internal/angle"
)

// Mode selects how the simulated encoder moves.
type Mode string

const (
	// ModeRotate turns continuously at the configured speed.
	ModeRotate Mode = "rotate"
	// ModeSine oscillates over the full range, 180 + 180*sin(t/2).
	ModeSine Mode = "sine"
	// ModeStatic holds StaticAngle.
	ModeStatic Mode = "static"
	// ModeRandom is a random walk of up to RandomStep degrees per sample.
	ModeRandom Mode = "random"
)

const (
	StaticAngle = 45.0
	RandomStep  = 5.0
	// sineRate is the angular frequency of ModeSine in rad/s.
	sineRate = 0.5
)

// Modes lists every supported mode.
var Modes = []Mode{ModeRotate, ModeSine, ModeStatic, ModeRandom}

// ParseMode accepts a mode name, case-insensitively.
func ParseMode(s string) (Mode, error) {
	m := Mode(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Modes {
		if m == known {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown simulation mode %q (want rotate, sine, static or random)", s)
}

// Generator produces successive angles in [0, 360).
type Generator struct {
	mode    Mode
	speed   float64
	angle   float64
	elapsed time.Duration
	rng     *rand.Rand
}

// NewGenerator creates a generator. speed is in degrees per second and only
// affects ModeRotate. seed makes ModeRandom reproducible.
func NewGenerator(mode Mode, speed float64, seed uint64) *Generator {
	return &Generator{
		mode:  mode,
		speed: speed,
		rng:   rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

// Next advances the generator by dt and returns the new angle.
func (g *Generator) Next(dt time.Duration) float64 {
	g.elapsed += dt
	switch g.mode {
	case ModeSine:
		g.angle = 180 + 180*math.Sin(g.elapsed.Seconds()*sineRate)
		// sin can reach exactly 1, which would give 360.
		g.angle = angle.Normalize(g.angle)
	case ModeStatic:
		g.angle = StaticAngle
	case ModeRandom:
		g.angle = angle.Normalize(g.angle + (g.rng.Float64()*2-1)*RandomStep)
	default:
		g.angle = angle.Normalize(g.angle + g.speed*dt.Seconds())
	}
	return g.angle
}

// Angle returns the most recent angle.
func (g *Generator) Angle() float64 { return g.angle }
