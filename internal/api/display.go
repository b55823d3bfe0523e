package api

import (
	"fmt"
	"net/http"

	"github.com/banshee-data/angle.receiver/internal/db"
	"github.com/banshee-data/angle.receiver/internal/units"
)

// display holds the optional units and tz query parameters. Angles are
// stored in degrees and timestamps in UTC.
type display struct {
	units string
	tz    string
}

func parseDisplay(r *http.Request) (display, error) {
	q := r.URL.Query()
	d := display{units: q.Get("units"), tz: q.Get("tz")}
	if d.units == "" {
		d.units = units.Degrees
	} else if !units.IsValid(d.units) {
		return d, fmt.Errorf("Invalid 'units' parameter: must be one of %s", units.GetValidUnitsString())
	}
	if d.tz == "" {
		d.tz = "UTC"
	} else if !units.IsTimezoneValid(d.tz) {
		return d, fmt.Errorf("Invalid 'tz' parameter: %q", d.tz)
	}
	return d, nil
}

func (d display) angle(deg float64) float64 {
	return units.ConvertAngle(deg, d.units)
}

func (d display) apply(s db.AngleSample) db.AngleSample {
	s.Raw = d.angle(s.Raw)
	s.Processed = d.angle(s.Processed)
	// tz was validated by parseDisplay
	s.ReceivedAt, _ = units.ConvertTime(s.ReceivedAt, d.tz)
	return s
}

func (d display) axisName() string {
	switch d.units {
	case units.Radians:
		return "radians"
	case units.Revolutions:
		return "revolutions"
	default:
		return "degrees"
	}
}
