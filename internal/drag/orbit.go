package drag

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	satellite "github.com/joshuaferrara/go-satellite"
)

// omegaEarth is Earth's rotation rate in rad/s.
const omegaEarth = 7.292115146706979e-5

// Orbit wraps an SGP4 satellite built from a TLE.
type Orbit struct {
	sat satellite.Satellite
}

// State is a sub-satellite point with the speed relative to a co-rotating
// atmosphere.
type State struct {
	AltKm   float64
	LatDeg  float64
	LonDeg  float64
	SpeedMS float64 // atmosphere-relative speed, m/s
}

// NewOrbit initialises SGP4 (WGS84) from two TLE lines.
//
// The lines are checked before they reach go-satellite, which calls
// log.Fatal on malformed input.
func NewOrbit(line1, line2 string) (*Orbit, error) {
	line1 = strings.TrimSpace(line1)
	line2 = strings.TrimSpace(line2)
	if err := validateTLELines(line1, line2); err != nil {
		return nil, fmt.Errorf("invalid TLE: %w", err)
	}

	sat := satellite.TLEToSat(line1, line2, satellite.GravityWGS84)
	if sat.Error != 0 {
		return nil, fmt.Errorf("sgp4 init failed: code=%d %s", sat.Error, sat.ErrorStr)
	}
	return &Orbit{sat: sat}, nil
}

func validateTLELines(line1, line2 string) error {
	if len(line1) != 69 {
		return fmt.Errorf("line1 length %d, expected 69", len(line1))
	}
	if len(line2) != 69 {
		return fmt.Errorf("line2 length %d, expected 69", len(line2))
	}
	if line1[0] != '1' {
		return fmt.Errorf("line1 must start with '1', got '%c'", line1[0])
	}
	if line2[0] != '2' {
		return fmt.Errorf("line2 must start with '2', got '%c'", line2[0])
	}
	if err := checksum(line1); err != nil {
		return fmt.Errorf("line1: %w", err)
	}
	if err := checksum(line2); err != nil {
		return fmt.Errorf("line2: %w", err)
	}
	return validateTLEFields(line1, line2)
}

// checksum verifies the modulo-10 check digit in column 69: digits count
// their value, minus signs count 1, everything else 0.
func checksum(line string) error {
	want := line[68]
	if want < '0' || want > '9' {
		return fmt.Errorf("checksum %q is not a digit", want)
	}
	sum := 0
	for i := 0; i < 68; i++ {
		switch c := line[i]; {
		case c >= '0' && c <= '9':
			sum += int(c - '0')
		case c == '-':
			sum++
		}
	}
	if got := sum % 10; got != int(want-'0') {
		return fmt.Errorf("checksum %d, computed %d", want-'0', got)
	}
	return nil
}

// tleField is a numeric field in the form go-satellite parses it. Those
// parsers call log.Fatal on bad input, so each field must parse here first.
type tleField struct {
	name  string
	value string
	isInt bool
}

func validateTLEFields(line1, line2 string) error {
	squeeze := func(s string) string { return strings.Replace(s, " ", "", 2) }
	fields := []tleField{
		{"catalog number", strings.TrimSpace(line1[2:7]), true},
		{"epoch year", line1[18:20], true},
		{"epoch day", line1[20:32], false},
		{"mean motion dot", squeeze(line1[33:43]), false},
		{"mean motion ddot", squeeze(line1[44:45] + "." + line1[45:50] + "e" + line1[50:52]), false},
		{"bstar", squeeze(line1[53:54] + "." + line1[54:59] + "e" + line1[59:61]), false},
		{"inclination", squeeze(line2[8:16]), false},
		{"raan", squeeze(line2[17:25]), false},
		{"eccentricity", "." + line2[26:33], false},
		{"argument of perigee", squeeze(line2[34:42]), false},
		{"mean anomaly", squeeze(line2[43:51]), false},
		{"mean motion", squeeze(line2[52:63]), false},
	}

	for _, f := range fields {
		if f.isInt {
			if _, err := strconv.ParseInt(f.value, 10, 0); err != nil {
				return fmt.Errorf("%s %q is not an integer", f.name, f.value)
			}
			continue
		}
		v, err := strconv.ParseFloat(f.value, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%s %q is not a number", f.name, f.value)
		}
	}
	return nil
}

// At propagates to t and returns the geodetic state. go-satellite takes
// whole seconds, so t must not carry a fractional second.
func (o *Orbit) At(t time.Time) (State, error) {
	t = t.UTC()
	if t.Nanosecond() != 0 {
		return State{}, fmt.Errorf("sgp4 time %s has a fractional second", t.Format(time.RFC3339Nano))
	}
	pos, vel := satellite.Propagate(o.sat, t.Year(), int(t.Month()), t.Day(), t.Hour(), t.Minute(), t.Second())

	for _, v := range []float64{pos.X, pos.Y, pos.Z, vel.X, vel.Y, vel.Z} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return State{}, fmt.Errorf("sgp4 propagation failed at %s: output is NaN/Inf", t.Format(time.RFC3339))
		}
	}

	gmst := satellite.GSTimeFromDate(t.Year(), int(t.Month()), t.Day(), t.Hour(), t.Minute(), t.Second())
	alt, _, ll := satellite.ECIToLLA(pos, gmst)

	// Velocity relative to the rotating atmosphere: v - ω×r, with ω along z.
	vx := vel.X + omegaEarth*pos.Y
	vy := vel.Y - omegaEarth*pos.X
	vz := vel.Z
	speed := math.Sqrt(vx*vx+vy*vy+vz*vz) * 1000

	return State{
		AltKm:   alt,
		LatDeg:  ll.Latitude * 180 / math.Pi,
		LonDeg:  normalizeLon(ll.Longitude * 180 / math.Pi),
		SpeedMS: speed,
	}, nil
}

// normalizeLon wraps a longitude into [-180, 180).
func normalizeLon(lon float64) float64 {
	lon = math.Mod(lon+180, 360)
	if lon < 0 {
		lon += 360
	}
	return lon - 180
}
