// Package schedule parses recurring-job specifications of the form
// "hh:mm;hh:mm;..." read from configuration and registers them with an
// injected trigger scheduler. The actual scheduling engine is an external
// collaborator; this package never reimplements it.
package schedule

import (
	"fmt"
	"strconv"
	"strings"
)

// Disabled is the sentinel spec meaning "do not schedule".
const Disabled = "-"

// TimeOfDay is a wall-clock trigger time on a 24h clock.
type TimeOfDay struct {
	Hour   int
	Minute int
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// IsDisabled reports whether the spec is the disabled sentinel or empty.
func IsDisabled(spec string) bool {
	s := strings.TrimSpace(spec)
	return s == "" || s == Disabled
}

// Parse parses a semicolon-separated "hh:mm" list. A trailing semicolon is
// allowed and blank segments are ignored. A disabled spec parses to nil.
func Parse(spec string) ([]TimeOfDay, error) {
	if IsDisabled(spec) {
		return nil, nil
	}

	var times []TimeOfDay
	for _, segment := range strings.Split(spec, ";") {
		segment = strings.TrimSpace(segment)
		if segment == "" {
			continue
		}
		t, err := parseTime(segment)
		if err != nil {
			return nil, fmt.Errorf("schedule spec %q: %w", spec, err)
		}
		times = append(times, t)
	}
	return times, nil
}

func parseTime(segment string) (TimeOfDay, error) {
	hh, mm, ok := strings.Cut(segment, ":")
	if !ok {
		return TimeOfDay{}, fmt.Errorf("segment %q is not hh:mm", segment)
	}
	hour, err := strconv.Atoi(hh)
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("segment %q: bad hour: %w", segment, err)
	}
	minute, err := strconv.Atoi(mm)
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("segment %q: bad minute: %w", segment, err)
	}
	if hour < 0 || hour > 23 {
		return TimeOfDay{}, fmt.Errorf("segment %q: hour out of range 0-23", segment)
	}
	if minute < 0 || minute > 59 {
		return TimeOfDay{}, fmt.Errorf("segment %q: minute out of range 0-59", segment)
	}
	return TimeOfDay{Hour: hour, Minute: minute}, nil
}
