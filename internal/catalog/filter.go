package catalog

import (
	"strings"
	"time"

	"github.com/angelmondragon/freightquote-backend/internal/offers"
	"github.com/angelmondragon/freightquote-backend/pkg/enums"
	"github.com/angelmondragon/freightquote-backend/pkg/pagination"
)

// Criteria narrows a catalog. Empty fields do not filter.
type Criteria struct {
	Query       string     `json:"query,omitempty"`
	Origin      string     `json:"origin,omitempty"`
	Destination string     `json:"destination,omitempty"`
	Carrier     string     `json:"carrier,omitempty"`
	LegPhase    string     `json:"leg_phase,omitempty"`
	ValidOn     *time.Time `json:"valid_on,omitempty"`
}

// IsZero reports whether no criterion is set.
func (c Criteria) IsZero() bool {
	return strings.TrimSpace(c.Query) == "" &&
		strings.TrimSpace(c.Origin) == "" &&
		strings.TrimSpace(c.Destination) == "" &&
		strings.TrimSpace(c.Carrier) == "" &&
		strings.TrimSpace(c.LegPhase) == "" &&
		c.ValidOn == nil
}

// Equal compares criteria after trimming.
func (c Criteria) Equal(other Criteria) bool {
	if strings.TrimSpace(c.Query) != strings.TrimSpace(other.Query) ||
		strings.TrimSpace(c.Origin) != strings.TrimSpace(other.Origin) ||
		strings.TrimSpace(c.Destination) != strings.TrimSpace(other.Destination) ||
		strings.TrimSpace(c.Carrier) != strings.TrimSpace(other.Carrier) ||
		strings.TrimSpace(c.LegPhase) != strings.TrimSpace(other.LegPhase) {
		return false
	}
	switch {
	case c.ValidOn == nil && other.ValidOn == nil:
		return true
	case c.ValidOn == nil || other.ValidOn == nil:
		return false
	default:
		return c.ValidOn.Equal(*other.ValidOn)
	}
}

// Filter returns the offers matching every set criterion, in input order. The
// input slice is never modified.
func Filter(list []offers.Offer, criteria Criteria) []offers.Offer {
	m := newMatcher(criteria)
	out := make([]offers.Offer, 0, len(list))
	for _, offer := range list {
		if m.matches(offer) {
			out = append(out, offer)
		}
	}
	return out
}

// Page is one page of filtered offers.
type Page struct {
	Items []offers.Offer  `json:"items"`
	Meta  pagination.Meta `json:"page"`
}

// Paginate slices list into the requested page. Out-of-range pages are empty.
func Paginate(list []offers.Offer, page, size int) Page {
	items, meta := pagination.Slice(list, pagination.Params{Page: page, PageSize: size})
	return Page{Items: items, Meta: meta}
}

type matcher struct {
	query       string
	origin      string
	destination string
	carrier     string
	legPhase    string
	validOn     *time.Time
}

func newMatcher(c Criteria) matcher {
	m := matcher{
		query:       fold(c.Query),
		origin:      fold(c.Origin),
		destination: fold(c.Destination),
		carrier:     fold(c.Carrier),
		legPhase:    fold(c.LegPhase),
	}
	if phase, err := enums.ParseLegPhase(c.LegPhase); err == nil {
		m.legPhase = string(phase)
	}
	if c.ValidOn != nil {
		day := truncateDay(*c.ValidOn)
		m.validOn = &day
	}
	return m
}

func (m matcher) matches(o offers.Offer) bool {
	if m.origin != "" && fold(o.OriginName()) != m.origin {
		return false
	}
	if m.destination != "" && fold(o.DestinationName()) != m.destination {
		return false
	}
	if m.carrier != "" && fold(o.Carrier) != m.carrier {
		return false
	}
	if m.legPhase != "" && fold(string(o.LegPhase)) != m.legPhase {
		return false
	}
	if m.validOn != nil {
		if o.ValidUntil == nil || truncateDay(*o.ValidUntil).Before(*m.validOn) {
			return false
		}
	}
	if m.query != "" && !m.matchesText(o) {
		return false
	}
	return true
}

func (m matcher) matchesText(o offers.Offer) bool {
	for _, field := range searchableFields(o) {
		if field != "" && strings.Contains(fold(field), m.query) {
			return true
		}
	}
	return false
}

func searchableFields(o offers.Offer) []string {
	fields := []string{o.OriginName(), o.DestinationName(), o.Carrier, string(o.LegPhase), o.DistanceText()}
	if o.Kind == enums.CatalogKindService {
		fields = append(fields, o.Label, o.Code)
	}
	return fields
}

func fold(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

func truncateDay(t time.Time) time.Time {
	utc := t.UTC()
	return time.Date(utc.Year(), utc.Month(), utc.Day(), 0, 0, 0, 0, time.UTC)
}
