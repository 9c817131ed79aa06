package offers

import (
	"strconv"
	"strings"
	"time"

	"github.com/angelmondragon/freightquote-backend/pkg/enums"
)

// Location describes an origin or destination of an offer.
type Location struct {
	Name    string `json:"name"`
	Address string `json:"address,omitempty"`
	Code    string `json:"code,omitempty"`
}

// Offer is a read-only market offer from one of the three catalogs. Kind-specific
// fields are left zero for the other kinds.
type Offer struct {
	Kind     enums.CatalogKind `json:"kind"`
	OfferID  string            `json:"offer_id,omitempty"`
	Carrier  string            `json:"carrier,omitempty"`
	Currency enums.Currency    `json:"currency,omitempty"`
	Price    PriceBreakdown    `json:"price"`

	Origin      *Location `json:"origin,omitempty"`
	Destination *Location `json:"destination,omitempty"`

	// ocean legs
	ContractRef      string     `json:"contract_ref,omitempty"`
	TransitDays      *int       `json:"transit_days,omitempty"`
	SailingFrequency string     `json:"sailing_frequency,omitempty"`
	ValidUntil       *time.Time `json:"valid_until,omitempty"`

	// inland legs
	RouteRef      string              `json:"route_ref,omitempty"`
	LegPhase      enums.LegPhase      `json:"leg_phase,omitempty"`
	TransportMode enums.TransportMode `json:"transport_mode,omitempty"`
	DistanceKm    *float64            `json:"distance_km,omitempty"`

	// services
	Code  string `json:"code,omitempty"`
	Label string `json:"label,omitempty"`
}

// Identity returns the selection identity: the offer id, or the per-kind fallback
// (ocean: contract ref, inland: route ref, service: code). Empty means the offer
// cannot be selected.
func (o Offer) Identity() string {
	if id := strings.TrimSpace(o.OfferID); id != "" {
		return id
	}
	switch o.Kind {
	case enums.CatalogKindOceanLeg:
		return strings.TrimSpace(o.ContractRef)
	case enums.CatalogKindInlandLeg:
		return strings.TrimSpace(o.RouteRef)
	case enums.CatalogKindService:
		return strings.TrimSpace(o.Code)
	}
	return ""
}

// OriginName returns the origin display name or "".
func (o Offer) OriginName() string {
	if o.Origin == nil {
		return ""
	}
	return o.Origin.Name
}

// DestinationName returns the destination display name or "".
func (o Offer) DestinationName() string {
	if o.Destination == nil {
		return ""
	}
	return o.Destination.Name
}

// DistanceText renders the distance the way it is searched, or "" when absent.
func (o Offer) DistanceText() string {
	if o.DistanceKm == nil {
		return ""
	}
	return strconv.FormatFloat(*o.DistanceKm, 'f', -1, 64)
}

// Clone deep-copies the offer so callers cannot reach into catalog state.
func (o Offer) Clone() Offer {
	out := o
	out.Price = o.Price.Clone()
	if o.Origin != nil {
		loc := *o.Origin
		out.Origin = &loc
	}
	if o.Destination != nil {
		loc := *o.Destination
		out.Destination = &loc
	}
	if o.TransitDays != nil {
		v := *o.TransitDays
		out.TransitDays = &v
	}
	if o.ValidUntil != nil {
		v := *o.ValidUntil
		out.ValidUntil = &v
	}
	if o.DistanceKm != nil {
		v := *o.DistanceKm
		out.DistanceKm = &v
	}
	return out
}

// CloneAll deep-copies a list of offers.
func CloneAll(in []Offer) []Offer {
	if in == nil {
		return nil
	}
	out := make([]Offer, len(in))
	for i := range in {
		out[i] = in[i].Clone()
	}
	return out
}
