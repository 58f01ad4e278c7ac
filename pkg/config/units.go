package config

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration to support a day unit (d) in YAML.
type Duration time.Duration

// Day is the extra unit accepted by ParseDuration.
const Day = 24 * time.Hour

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	dur, err := ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(dur)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// ParseDuration parses a duration string. On top of time.ParseDuration it
// accepts d, alone or combined ("1d12h").
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	if !strings.Contains(s, "d") {
		return time.ParseDuration(s)
	}

	var total time.Duration
	re := regexp.MustCompile(`([0-9.]+)([a-zµ]+)`)
	matches := re.FindAllStringSubmatch(s, -1)
	if len(matches) == 0 {
		return 0, fmt.Errorf("invalid duration format: %s", s)
	}
	for _, m := range matches {
		if m[2] == "d" {
			val, err := strconv.ParseFloat(m[1], 64)
			if err != nil {
				return 0, fmt.Errorf("invalid number in duration: %s", m[1])
			}
			total += time.Duration(val * float64(Day))
			continue
		}
		part, err := time.ParseDuration(m[0])
		if err != nil {
			return 0, err
		}
		total += part
	}
	return total, nil
}

// Distance is a length in survey units (metres on a metric grid).
type Distance float64

// UnmarshalYAML implements yaml.Unmarshaler. Bare numbers are metres.
func (d *Distance) UnmarshalYAML(value *yaml.Node) error {
	var f float64
	if err := value.Decode(&f); err == nil {
		*d = Distance(f)
		return nil
	}

	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	dist, err := ParseDistance(s)
	if err != nil {
		return err
	}
	*d = Distance(dist)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Distance) MarshalYAML() (interface{}, error) {
	return strconv.FormatFloat(float64(d), 'f', -1, 64) + "m", nil
}

// ParseDistance parses "10", "10m", "250cm" or "0.01km" into metres.
func ParseDistance(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}

	mult := 1.0
	numStr := s
	switch {
	case strings.HasSuffix(s, "km"):
		mult, numStr = 1000, strings.TrimSuffix(s, "km")
	case strings.HasSuffix(s, "cm"):
		mult, numStr = 0.01, strings.TrimSuffix(s, "cm")
	case strings.HasSuffix(s, "mm"):
		mult, numStr = 0.001, strings.TrimSuffix(s, "mm")
	case strings.HasSuffix(s, "m"):
		numStr = strings.TrimSuffix(s, "m")
	}

	val, err := strconv.ParseFloat(strings.TrimSpace(numStr), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid distance number: %w", err)
	}
	return val * mult, nil
}

// Angle is an angle in degrees.
type Angle float64

// UnmarshalYAML implements yaml.Unmarshaler. Accepts 60, "60", "60deg" or "60°".
func (a *Angle) UnmarshalYAML(value *yaml.Node) error {
	var f float64
	if err := value.Decode(&f); err == nil {
		*a = Angle(f)
		return nil
	}

	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(strings.TrimSuffix(s, "deg"), "°")
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return fmt.Errorf("invalid angle: %w", err)
	}
	*a = Angle(v)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (a Angle) MarshalYAML() (interface{}, error) {
	return strconv.FormatFloat(float64(a), 'f', -1, 64) + "deg", nil
}
