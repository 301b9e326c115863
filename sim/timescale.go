package sim

import (
	"fmt"
	"log"
	"math"
	"strconv"
	"strings"
)

// Timescale defines how long one simulation tick lasts in real time,
// expressed in seconds per tick. All delays are rounded to whole ticks
// before scheduling.
type Timescale float64

// The common tick durations.
const (
	S  Timescale = 1
	MS Timescale = 1e-3
	US Timescale = 1e-6
	NS Timescale = 1e-9
	PS Timescale = 1e-12
	FS Timescale = 1e-15
)

// ParseTimescale parses strings such as "1ns" or "10ps".
func ParseTimescale(s string) (Timescale, error) {
	units := []struct {
		suffix string
		scale  Timescale
	}{
		{"fs", FS}, {"ps", PS}, {"ns", NS},
		{"us", US}, {"ms", MS}, {"s", S},
	}

	s = strings.TrimSpace(s)
	for _, u := range units {
		if !strings.HasSuffix(s, u.suffix) {
			continue
		}

		num := strings.TrimSpace(strings.TrimSuffix(s, u.suffix))
		mult, err := strconv.ParseFloat(num, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid timescale %q", s)
		}

		return Timescale(mult) * u.scale, nil
	}

	return 0, fmt.Errorf("invalid timescale %q", s)
}

// Ticks converts a real duration in seconds to the nearest whole number of
// ticks.
func (ts Timescale) Ticks(seconds float64) SimTime {
	if ts == 0 {
		log.Panic("timescale cannot be 0")
	}

	if math.IsNaN(seconds) || seconds < 0 {
		log.Panic("invalid duration")
	}

	return SimTime(math.Round(seconds / float64(ts)))
}

// Seconds converts a tick count back to real seconds.
func (ts Timescale) Seconds(t SimTime) float64 {
	return float64(t) * float64(ts)
}

// Format renders a tick count in the most natural real unit, e.g. "15ns".
func (ts Timescale) Format(t SimTime) string {
	seconds := ts.Seconds(t)

	units := []struct {
		suffix string
		scale  float64
	}{
		{"s", 1}, {"ms", 1e-3}, {"us", 1e-6},
		{"ns", 1e-9}, {"ps", 1e-12}, {"fs", 1e-15},
	}

	for _, u := range units {
		if seconds >= u.scale {
			return strconv.FormatFloat(
				seconds/u.scale, 'g', -1, 64) + u.suffix
		}
	}

	return strconv.FormatFloat(seconds/1e-15, 'g', -1, 64) + "fs"
}
