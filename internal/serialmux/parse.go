package serialmux

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/banshee-data/angle.receiver/internal/angle"
	"github.com/banshee-data/angle.receiver/internal/network"
)

const (
	EventTypeAngle   = "angle"
	EventTypeComment = "comment"
	EventTypeUnknown = "unknown"
)

// anglePrefixes are the labels the firmware console may put in front of a
// reading, e.g. "angle: 123.4" or "A=123.4".
var anglePrefixes = []string{"angle:", "angle=", "a:", "a="}

// ClassifyLine returns a coarse event type for a serial line. Lines starting
// with '#' are firmware log output.
func ClassifyLine(line string) string {
	line = strings.TrimSpace(line)
	if line == "" {
		return EventTypeUnknown
	}
	if strings.HasPrefix(line, "#") {
		return EventTypeComment
	}
	if _, err := strconv.ParseFloat(stripPrefix(line), 64); err == nil {
		return EventTypeAngle
	}
	return EventTypeUnknown
}

// ParseAngleLine parses one decimal angle from a serial line. The value must
// lie in [0, 360] like a UDP reading.
func ParseAngleLine(line string) (float64, error) {
	v, err := strconv.ParseFloat(stripPrefix(strings.TrimSpace(line)), 64)
	if err != nil {
		return 0, fmt.Errorf("not an angle line %q: %w", line, err)
	}
	if !angle.Valid(v) {
		return 0, fmt.Errorf("%w: %v", network.ErrOutOfRange, v)
	}
	return v, nil
}

func stripPrefix(line string) string {
	lower := strings.ToLower(line)
	for _, p := range anglePrefixes {
		if strings.HasPrefix(lower, p) {
			return strings.TrimSpace(line[len(p):])
		}
	}
	return line
}
