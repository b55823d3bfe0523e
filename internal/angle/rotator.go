package angle

import (
	"fmt"
	"strings"
)

// Axis selects which component of a Rotator receives the sensor angle.
type Axis int

const (
	AxisZ Axis = iota // yaw, the default
	AxisX             // roll
	AxisY             // pitch
)

func (a Axis) String() string {
	switch a {
	case AxisX:
		return "X"
	case AxisY:
		return "Y"
	default:
		return "Z"
	}
}

// ParseAxis accepts X, Y or Z (case-insensitive) as well as the rotation
// names roll, pitch and yaw.
func ParseAxis(s string) (Axis, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "X", "ROLL":
		return AxisX, nil
	case "Y", "PITCH":
		return AxisY, nil
	case "Z", "YAW", "":
		return AxisZ, nil
	}
	return AxisZ, fmt.Errorf("unknown rotation axis %q: expected X, Y or Z", s)
}

func (a Axis) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *Axis) UnmarshalText(b []byte) error {
	v, err := ParseAxis(string(b))
	if err != nil {
		return err
	}
	*a = v
	return nil
}

// Rotator is an orientation in degrees.
type Rotator struct {
	Roll  float64 `json:"roll"`
	Pitch float64 `json:"pitch"`
	Yaw   float64 `json:"yaw"`
}

// WithAxis returns a copy of r with only the component selected by axis
// replaced by deg.
func (r Rotator) WithAxis(axis Axis, deg float64) Rotator {
	switch axis {
	case AxisX:
		r.Roll = deg
	case AxisY:
		r.Pitch = deg
	default:
		r.Yaw = deg
	}
	return r
}
