// Package timing defines the time and data-rate units used to describe
// links.
package timing

import (
	"fmt"
	"strconv"
	"strings"
)

// VTimeInSec defines the time in the simulated space in the unit of second
type VTimeInSec = float64

var timeUnits = []struct {
	suffix string
	scale  float64
}{
	{"ns", 1e-9},
	{"us", 1e-6},
	{"ms", 1e-3},
	{"s", 1},
}

// ParseTime parses a duration such as "2ms", "10us", or "0.5s" into seconds.
// A bare number is taken as seconds.
func ParseTime(s string) (VTimeInSec, error) {
	str := strings.ToLower(strings.TrimSpace(s))
	if str == "" {
		return 0, fmt.Errorf("empty time")
	}

	scale := 1.0

	for _, u := range timeUnits {
		if strings.HasSuffix(str, u.suffix) {
			str = strings.TrimSuffix(str, u.suffix)
			scale = u.scale

			break
		}
	}

	value, err := strconv.ParseFloat(strings.TrimSpace(str), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid time %q: %w", s, err)
	}

	return VTimeInSec(value * scale), nil
}

// MustParseTime is ParseTime that panics on error.
func MustParseTime(s string) VTimeInSec {
	t, err := ParseTime(s)
	if err != nil {
		panic(err)
	}

	return t
}
