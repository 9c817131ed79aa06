package offers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/angelmondragon/freightquote-backend/pkg/enums"
)

var errNotAnObject = errors.New("offer payload is not a JSON object")

// wireOffer covers the field spellings seen across the three catalog endpoints.
type wireOffer struct {
	ID      looseString `json:"id"`
	OfferID looseString `json:"offerId"`

	Origin      *wireLocation `json:"origin"`
	Destination *wireLocation `json:"destination"`
	From        *wireLocation `json:"from"`
	To          *wireLocation `json:"to"`

	Carrier     string `json:"carrier"`
	CarrierName string `json:"carrierName"`
	Haulier     string `json:"haulier"`
	HaulierName string `json:"haulierName"`
	Provider    string `json:"provider"`

	Currency     string `json:"currency"`
	CurrencyCode string `json:"currencyCode"`

	Price          *PriceBreakdown `json:"price"`
	PriceBreakdown *PriceBreakdown `json:"priceBreakdown"`
	Pricing        *PriceBreakdown `json:"pricing"`

	ContractRef      string     `json:"contractRef"`
	TransitTime      looseFloat `json:"transitTime"`
	TransitDays      looseFloat `json:"transitDays"`
	SailingFrequency string     `json:"sailingFrequency"`
	Frequency        string     `json:"frequency"`
	ValidUntil       looseTime  `json:"validUntil"`
	ValidTo          looseTime  `json:"validTo"`

	RouteRef      string     `json:"routeRef"`
	LegPhase      string     `json:"legPhase"`
	Phase         string     `json:"phase"`
	TransportMode string     `json:"transportMode"`
	Mode          string     `json:"mode"`
	Distance      looseFloat `json:"distance"`
	DistanceKm    looseFloat `json:"distanceKm"`

	Code  string `json:"code"`
	Label string `json:"label"`
	Name  string `json:"name"`
}

// DecodeOffer maps one raw catalog record to an Offer of the given kind.
func DecodeOffer(kind enums.CatalogKind, raw json.RawMessage) (Offer, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return Offer{}, errNotAnObject
	}

	var w wireOffer
	if err := json.Unmarshal(trimmed, &w); err != nil {
		return Offer{}, fmt.Errorf("decode %s offer: %w", kind, err)
	}

	offer := Offer{
		Kind:     kind,
		OfferID:  firstNonEmpty(string(w.OfferID), string(w.ID)),
		Carrier:  firstNonEmpty(w.Carrier, w.CarrierName, w.Haulier, w.HaulierName, w.Provider),
		Currency: enums.NormalizeCurrency(firstNonEmpty(w.Currency, w.CurrencyCode)),
	}

	switch {
	case w.Price != nil:
		offer.Price = *w.Price
	case w.PriceBreakdown != nil:
		offer.Price = *w.PriceBreakdown
	case w.Pricing != nil:
		offer.Price = *w.Pricing
	}

	offer.Origin = firstLocation(w.Origin, w.From)
	offer.Destination = firstLocation(w.Destination, w.To)

	switch kind {
	case enums.CatalogKindOceanLeg:
		offer.ContractRef = strings.TrimSpace(w.ContractRef)
		if days, ok := firstFloat(w.TransitTime, w.TransitDays); ok {
			d := int(days)
			offer.TransitDays = &d
		}
		offer.SailingFrequency = firstNonEmpty(w.SailingFrequency, w.Frequency)
		offer.ValidUntil = firstTime(w.ValidUntil, w.ValidTo)
	case enums.CatalogKindInlandLeg:
		offer.RouteRef = strings.TrimSpace(w.RouteRef)
		offer.LegPhase = normalizeLegPhase(firstNonEmpty(w.LegPhase, w.Phase))
		offer.TransportMode = normalizeTransportMode(firstNonEmpty(w.TransportMode, w.Mode))
		if km, ok := firstFloat(w.DistanceKm, w.Distance); ok {
			offer.DistanceKm = &km
		}
	case enums.CatalogKindService:
		offer.Code = strings.TrimSpace(w.Code)
		offer.Label = firstNonEmpty(w.Label, w.Name)
	}

	return offer, nil
}

// DecodeAll decodes every record, skipping the ones that are not offers. The
// number of skipped records is returned for diagnostics.
func DecodeAll(kind enums.CatalogKind, records []json.RawMessage) ([]Offer, int) {
	out := make([]Offer, 0, len(records))
	skipped := 0
	for _, raw := range records {
		offer, err := DecodeOffer(kind, raw)
		if err != nil {
			skipped++
			continue
		}
		out = append(out, offer)
	}
	return out, skipped
}

func normalizeLegPhase(raw string) enums.LegPhase {
	if raw == "" {
		return ""
	}
	if phase, err := enums.ParseLegPhase(raw); err == nil {
		return phase
	}
	return enums.LegPhase(strings.ToLower(strings.TrimSpace(raw)))
}

func normalizeTransportMode(raw string) enums.TransportMode {
	if raw == "" {
		return ""
	}
	if mode, err := enums.ParseTransportMode(raw); err == nil {
		return mode
	}
	return enums.TransportMode(strings.ToLower(strings.TrimSpace(raw)))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

func firstLocation(candidates ...*wireLocation) *Location {
	for _, c := range candidates {
		if c == nil {
			continue
		}
		loc := Location(*c)
		if loc.Name == "" && loc.Address == "" && loc.Code == "" {
			continue
		}
		if loc.Name == "" {
			loc.Name = firstNonEmpty(loc.Code, loc.Address)
		}
		return &loc
	}
	return nil
}

func firstFloat(values ...looseFloat) (float64, bool) {
	for _, v := range values {
		if v.set {
			return v.value, true
		}
	}
	return 0, false
}

func firstTime(values ...looseTime) *time.Time {
	for _, v := range values {
		if v.set {
			t := v.value
			return &t
		}
	}
	return nil
}

// wireLocation accepts either a plain display string or an object.
type wireLocation Location

func (l *wireLocation) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	if trimmed[0] == '"' {
		var name string
		if err := json.Unmarshal(trimmed, &name); err != nil {
			return err
		}
		*l = wireLocation{Name: strings.TrimSpace(name)}
		return nil
	}
	var obj struct {
		Name             string `json:"name"`
		DisplayName      string `json:"displayName"`
		Address          string `json:"address"`
		FormattedAddress string `json:"formattedAddress"`
		Code             string `json:"code"`
		UNLocode         string `json:"unLocode"`
	}
	if err := json.Unmarshal(trimmed, &obj); err != nil {
		// unrecognized location shapes count as absent
		return nil
	}
	*l = wireLocation{
		Name:    firstNonEmpty(obj.Name, obj.DisplayName),
		Address: firstNonEmpty(obj.FormattedAddress, obj.Address),
		Code:    firstNonEmpty(obj.Code, obj.UNLocode),
	}
	return nil
}

// looseString accepts JSON strings and numbers.
type looseString string

func (s *looseString) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	if trimmed[0] == '"' {
		var v string
		if err := json.Unmarshal(trimmed, &v); err != nil {
			return err
		}
		*s = looseString(strings.TrimSpace(v))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(trimmed, &n); err != nil {
		return nil
	}
	*s = looseString(n.String())
	return nil
}

// looseFloat accepts numbers and numeric strings; anything else is treated as absent.
type looseFloat struct {
	value float64
	set   bool
}

func (f *looseFloat) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	raw := string(trimmed)
	if trimmed[0] == '"' {
		if err := json.Unmarshal(trimmed, &raw); err != nil {
			return nil
		}
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return nil
	}
	*f = looseFloat{value: v, set: true}
	return nil
}

var timeLayouts = []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"}

// looseTime accepts RFC3339 timestamps and plain dates.
type looseTime struct {
	value time.Time
	set   bool
}

func (t *looseTime) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil
	}
	raw = strings.TrimSpace(raw)
	for _, layout := range timeLayouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			*t = looseTime{value: parsed.UTC(), set: true}
			return nil
		}
	}
	return nil
}
