package timing

import (
	"fmt"
	"strconv"
	"strings"
)

// DataRate is a link bandwidth in bits per second.
type DataRate uint64

// Defines the unit of data rate
const (
	Bps  DataRate = 1
	Kbps DataRate = 1e3
	Mbps DataRate = 1e6
	Gbps DataRate = 1e9
)

var dataRateUnits = []struct {
	suffix string
	unit   DataRate
}{
	{"gbps", Gbps},
	{"mbps", Mbps},
	{"kbps", Kbps},
	{"bps", Bps},
	{"g", Gbps},
	{"m", Mbps},
	{"k", Kbps},
	{"b", Bps},
}

// ParseDataRate parses strings such as "5Mbps", "10Gbps", "1.5M", or "800"
// (bits per second).
func ParseDataRate(s string) (DataRate, error) {
	str := strings.ToLower(strings.TrimSpace(s))
	if str == "" {
		return 0, fmt.Errorf("empty data rate")
	}

	unit := Bps

	for _, u := range dataRateUnits {
		if strings.HasSuffix(str, u.suffix) {
			str = strings.TrimSuffix(str, u.suffix)
			unit = u.unit

			break
		}
	}

	value, err := strconv.ParseFloat(strings.TrimSpace(str), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid data rate %q: %w", s, err)
	}

	if value < 0 {
		return 0, fmt.Errorf("invalid data rate %q: negative", s)
	}

	return DataRate(value * float64(unit)), nil
}

// MustParseDataRate is ParseDataRate that panics on error.
func MustParseDataRate(s string) DataRate {
	r, err := ParseDataRate(s)
	if err != nil {
		panic(err)
	}

	return r
}

func (r DataRate) String() string {
	switch {
	case r >= Gbps && r%Gbps == 0:
		return strconv.FormatUint(uint64(r/Gbps), 10) + "Gbps"
	case r >= Mbps && r%Mbps == 0:
		return strconv.FormatUint(uint64(r/Mbps), 10) + "Mbps"
	case r >= Kbps && r%Kbps == 0:
		return strconv.FormatUint(uint64(r/Kbps), 10) + "Kbps"
	default:
		return strconv.FormatUint(uint64(r), 10) + "bps"
	}
}
