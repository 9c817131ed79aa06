package enums

import (
	"fmt"
	"strings"
)

// LegPhase places an inland leg relative to the main ocean carriage.
type LegPhase string

const (
	LegPhasePreCarriage  LegPhase = "pre_carriage"
	LegPhaseMainCarriage LegPhase = "main_carriage"
	LegPhaseOnCarriage   LegPhase = "on_carriage"
)

var validLegPhases = []LegPhase{
	LegPhasePreCarriage,
	LegPhaseMainCarriage,
	LegPhaseOnCarriage,
}

// String implements fmt.Stringer.
func (p LegPhase) String() string {
	return string(p)
}

// IsValid reports whether the value is a known LegPhase.
func (p LegPhase) IsValid() bool {
	for _, candidate := range validLegPhases {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParseLegPhase accepts snake, kebab and camel spellings ("pre-carriage", "preCarriage").
func ParseLegPhase(value string) (LegPhase, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	normalized = strings.NewReplacer("-", "", "_", "", " ", "").Replace(normalized)
	for _, candidate := range validLegPhases {
		if strings.ReplaceAll(string(candidate), "_", "") == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid leg phase %q", value)
}
