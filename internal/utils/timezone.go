package utils

import (
	"fmt"
	"time"
)

// ResolveLocation loads the user's IANA zone, falling back to the default
// zone (and finally UTC) when the stored value is invalid. The error
// reports the fallback so callers can log a warning.
func ResolveLocation(tz, defaultTZ string) (*time.Location, error) {
	if tz != "" {
		if loc, err := time.LoadLocation(tz); err == nil {
			return loc, nil
		}
	}

	loc, err := time.LoadLocation(defaultTZ)
	if err != nil {
		return time.UTC, fmt.Errorf("invalid timezone %q and default %q, using UTC", tz, defaultTZ)
	}

	if tz == "" || tz == defaultTZ {
		return loc, nil
	}
	return loc, fmt.Errorf("invalid timezone %q, using default %q", tz, defaultTZ)
}

// ValidTimezone reports whether tz is a loadable IANA zone name
func ValidTimezone(tz string) bool {
	if tz == "" {
		return false
	}
	_, err := time.LoadLocation(tz)
	return err == nil
}
