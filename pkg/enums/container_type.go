package enums

import (
	"fmt"
	"strings"
)

// ContainerType is an ISO-style container size/type code.
type ContainerType string

const (
	ContainerType20Standard ContainerType = "20STD"
	ContainerType40Standard ContainerType = "40STD"
	ContainerType40HighCube ContainerType = "40HC"
	ContainerType45HighCube ContainerType = "45HC"
)

var validContainerTypes = []ContainerType{
	ContainerType20Standard,
	ContainerType40Standard,
	ContainerType40HighCube,
	ContainerType45HighCube,
}

var containerTypeLabels = map[ContainerType]string{
	ContainerType20Standard: "20ft Standard",
	ContainerType40Standard: "40ft Standard",
	ContainerType40HighCube: "40ft High Cube",
	ContainerType45HighCube: "45ft High Cube",
}

// String implements fmt.Stringer.
func (c ContainerType) String() string {
	return string(c)
}

// Label returns the human readable name, or the raw code when unknown.
func (c ContainerType) Label() string {
	if label, ok := containerTypeLabels[c]; ok {
		return label
	}
	return string(c)
}

// IsValid reports whether the value is a known ContainerType.
func (c ContainerType) IsValid() bool {
	for _, candidate := range validContainerTypes {
		if candidate == c {
			return true
		}
	}
	return false
}

// TEU returns twenty-foot equivalent units per container, derived from the size series.
// Unknown series yield 0.
func (c ContainerType) TEU() float64 {
	code := strings.ToUpper(strings.TrimSpace(string(c)))
	switch {
	case strings.HasPrefix(code, "20"):
		return 1
	case strings.HasPrefix(code, "40"):
		return 2
	case strings.HasPrefix(code, "45"):
		return 2.25
	}
	return 0
}

// ParseContainerType converts raw input (code or label) into a ContainerType.
func ParseContainerType(value string) (ContainerType, error) {
	trimmed := strings.TrimSpace(value)
	for _, candidate := range validContainerTypes {
		if strings.EqualFold(string(candidate), trimmed) || strings.EqualFold(containerTypeLabels[candidate], trimmed) {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid container type %q", value)
}
