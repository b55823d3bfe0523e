// Package units provides shared constants and validation for the angle units
// and timezones accepted by the HTTP API.
package units

import "math"

// Unit constants
const (
	Degrees     = "deg"
	Radians     = "rad"
	Revolutions = "rev"
)

// ValidUnits contains all valid unit values
var ValidUnits = []string{Degrees, Radians, Revolutions}

// IsValid checks if the given unit is in the list of valid units
func IsValid(unit string) bool {
	for _, validUnit := range ValidUnits {
		if unit == validUnit {
			return true
		}
	}
	return false
}

// GetValidUnitsString returns a comma-separated string of valid units for error messages
func GetValidUnitsString() string {
	return "deg, rad, rev"
}

// ConvertAngle converts an angle in degrees to the target units.
// The database stores angles in degrees.
func ConvertAngle(deg float64, targetUnits string) float64 {
	switch targetUnits {
	case Radians:
		return deg * math.Pi / 180
	case Revolutions:
		return deg / 360
	default:
		return deg
	}
}

// FullTurn is one revolution expressed in the given units.
func FullTurn(targetUnits string) float64 {
	return ConvertAngle(360, targetUnits)
}
