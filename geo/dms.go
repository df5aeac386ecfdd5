package geo

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var dmsRegex = regexp.MustCompile(`(?i)^\s*(-?)(\d+)[°d]?\s*(?:(\d+)[′'m]?\s*(?:(\d+(?:\.\d+)?)(?:[″"]|(?-i:s))?)?)?\s*([NSEW]?)\s*$`)

// DMS is an angle in degrees, minutes, and seconds. The sign applies to the whole angle.
type DMS struct {
	Negative bool
	Degrees  int
	Minutes  int
	Seconds  float64
}

// ToDMS converts decimal degrees to degrees, minutes, and seconds.
func ToDMS(decimal float64) DMS {
	abs := math.Abs(decimal)
	degrees := math.Floor(abs)
	minutes := math.Floor((abs - degrees) * 60.0)
	seconds := ((abs-degrees)*60.0 - minutes) * 60.0
	return DMS{
		Negative: decimal < 0.0,
		Degrees:  int(degrees),
		Minutes:  int(minutes),
		Seconds:  seconds,
	}
}

// Decimal returns the angle in decimal degrees.
func (d DMS) Decimal() float64 {
	v := float64(d.Degrees) + float64(d.Minutes)/60.0 + d.Seconds/3600.0
	if d.Negative {
		return -v
	}
	return v
}

func (d DMS) String() string {
	sign := ""
	if d.Negative {
		sign = "-"
	}
	return fmt.Sprintf("%s%d°%d'%.2f\"", sign, d.Degrees, d.Minutes, d.Seconds)
}

// ParseDMS parses an angle such as 51°30'26.5"N, 4 21 17 W, -33°52', or 51°N. Minutes and seconds are optional. A hemisphere letter S or W, or a leading minus sign, makes the angle negative.
func ParseDMS(s string) (DMS, error) {
	m := dmsRegex.FindStringSubmatch(s)
	if m == nil {
		return DMS{}, fmt.Errorf("invalid DMS angle %q", s)
	}
	degrees, err := strconv.Atoi(m[2])
	if err != nil {
		return DMS{}, fmt.Errorf("invalid DMS degrees %q: %w", m[2], err)
	}
	var minutes int
	if m[3] != "" {
		if minutes, err = strconv.Atoi(m[3]); err != nil {
			return DMS{}, fmt.Errorf("invalid DMS minutes %q: %w", m[3], err)
		} else if 60 <= minutes {
			return DMS{}, fmt.Errorf("invalid DMS minutes %q: must be less than 60", m[3])
		}
	}
	var seconds float64
	if m[4] != "" {
		if seconds, err = strconv.ParseFloat(m[4], 64); err != nil {
			return DMS{}, fmt.Errorf("invalid DMS seconds %q: %w", m[4], err)
		} else if 60.0 <= seconds {
			return DMS{}, fmt.Errorf("invalid DMS seconds %q: must be less than 60", m[4])
		}
	}
	hemisphere := strings.ToUpper(m[5])
	return DMS{
		Negative: m[1] == "-" || hemisphere == "S" || hemisphere == "W",
		Degrees:  degrees,
		Minutes:  minutes,
		Seconds:  seconds,
	}, nil
}
