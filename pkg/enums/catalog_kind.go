package enums

import "fmt"

// CatalogKind identifies one of the three independently loaded offer catalogs.
type CatalogKind string

const (
	CatalogKindOceanLeg  CatalogKind = "ocean_leg"
	CatalogKindInlandLeg CatalogKind = "inland_leg"
	CatalogKindService   CatalogKind = "service"
)

var validCatalogKinds = []CatalogKind{
	CatalogKindOceanLeg,
	CatalogKindInlandLeg,
	CatalogKindService,
}

// CatalogKinds returns every catalog kind in a stable order.
func CatalogKinds() []CatalogKind {
	out := make([]CatalogKind, len(validCatalogKinds))
	copy(out, validCatalogKinds)
	return out
}

// String implements fmt.Stringer.
func (k CatalogKind) String() string {
	return string(k)
}

// IsValid reports whether the value is a known CatalogKind.
func (k CatalogKind) IsValid() bool {
	for _, candidate := range validCatalogKinds {
		if candidate == k {
			return true
		}
	}
	return false
}

// ParseCatalogKind converts raw input into a CatalogKind. Path-style aliases are accepted.
func ParseCatalogKind(value string) (CatalogKind, error) {
	switch value {
	case "ocean-legs", "ocean_legs", "ocean":
		return CatalogKindOceanLeg, nil
	case "inland-legs", "inland_legs", "inland":
		return CatalogKindInlandLeg, nil
	case "services":
		return CatalogKindService, nil
	}
	for _, candidate := range validCatalogKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid catalog kind %q", value)
}
