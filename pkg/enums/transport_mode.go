package enums

import (
	"fmt"
	"strings"
)

// TransportMode is the inland haulage mode.
type TransportMode string

const (
	TransportModeTruck TransportMode = "truck"
	TransportModeRail  TransportMode = "rail"
	TransportModeBarge TransportMode = "barge"
)

var validTransportModes = []TransportMode{
	TransportModeTruck,
	TransportModeRail,
	TransportModeBarge,
}

// String implements fmt.Stringer.
func (m TransportMode) String() string {
	return string(m)
}

// IsValid reports whether the value is a known TransportMode.
func (m TransportMode) IsValid() bool {
	for _, candidate := range validTransportModes {
		if candidate == m {
			return true
		}
	}
	return false
}

// ParseTransportMode converts raw input into a TransportMode.
func ParseTransportMode(value string) (TransportMode, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for _, candidate := range validTransportModes {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid transport mode %q", value)
}
