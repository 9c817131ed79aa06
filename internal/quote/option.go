package quote

import (
	"time"

	"github.com/angelmondragon/freightquote-backend/pkg/enums"
)

// Option is one priced configuration of cargo, legs and services.
type Option struct {
	ID         string            `json:"id,omitempty"`
	Name       string            `json:"name,omitempty"`
	Containers []ContainerEntry  `json:"containers"`
	OceanLegs  []SelectionRecord `json:"ocean_legs"`
	InlandLegs []SelectionRecord `json:"inland_legs"`
	Services   []SelectionRecord `json:"services"`
	SavedAt    *time.Time        `json:"saved_at,omitempty"`
}

// NewOption returns an empty option with non-nil lists.
func NewOption() Option {
	return Option{
		Containers: []ContainerEntry{},
		OceanLegs:  []SelectionRecord{},
		InlandLegs: []SelectionRecord{},
		Services:   []SelectionRecord{},
	}
}

// State derives the lifecycle state of the option.
func (o Option) State() enums.OptionState {
	switch {
	case o.SavedAt != nil:
		return enums.OptionStateSaved
	case len(o.Containers) > 0 || len(o.OceanLegs) > 0 || len(o.InlandLegs) > 0 || len(o.Services) > 0:
		return enums.OptionStateBuilding
	default:
		return enums.OptionStateEmpty
	}
}

// Selections returns the sub-list for kind.
func (o Option) Selections(kind enums.CatalogKind) []SelectionRecord {
	switch kind {
	case enums.CatalogKindOceanLeg:
		return o.OceanLegs
	case enums.CatalogKindInlandLeg:
		return o.InlandLegs
	case enums.CatalogKindService:
		return o.Services
	}
	return nil
}

// IsSelected reports whether offerID is in the sub-list for kind.
func (o Option) IsSelected(kind enums.CatalogKind, offerID string) bool {
	return indexOfSelection(o.Selections(kind), offerID) >= 0
}

func (o Option) withSelections(kind enums.CatalogKind, list []SelectionRecord) Option {
	switch kind {
	case enums.CatalogKindOceanLeg:
		o.OceanLegs = list
	case enums.CatalogKindInlandLeg:
		o.InlandLegs = list
	case enums.CatalogKindService:
		o.Services = list
	}
	return o
}

// Clone deep-copies the option. The copy shares no slice or pointer with o.
func (o Option) Clone() Option {
	out := o
	out.Containers = cloneContainers(o.Containers)
	out.OceanLegs = cloneSelections(o.OceanLegs)
	out.InlandLegs = cloneSelections(o.InlandLegs)
	out.Services = cloneSelections(o.Services)
	if o.SavedAt != nil {
		at := *o.SavedAt
		out.SavedAt = &at
	}
	return out
}

func cloneSelections(list []SelectionRecord) []SelectionRecord {
	out := make([]SelectionRecord, len(list))
	copy(out, list)
	return out
}

// Basics are the route and shared cargo of a draft.
type Basics struct {
	OriginPort      string           `json:"origin_port,omitempty"`
	DestinationPort string           `json:"destination_port,omitempty"`
	Containers      []ContainerEntry `json:"containers"`
}

// Clone deep-copies the basics.
func (b Basics) Clone() Basics {
	out := b
	out.Containers = cloneContainers(b.Containers)
	return out
}

// DraftQuote is the quote being assembled: shared basics, the option under edit
// and at most MaxSavedOptions saved snapshots.
type DraftQuote struct {
	ID              string   `json:"id"`
	Basics          Basics   `json:"basics"`
	CurrentOption   Option   `json:"current_option"`
	ExistingOptions []Option `json:"existing_options"`
}

// NewDraftQuote returns an empty draft with the given id.
func NewDraftQuote(id string) DraftQuote {
	return DraftQuote{
		ID:              id,
		Basics:          Basics{Containers: []ContainerEntry{}},
		CurrentOption:   NewOption(),
		ExistingOptions: []Option{},
	}
}

// Clone deep-copies the draft.
func (d DraftQuote) Clone() DraftQuote {
	out := d
	out.Basics = d.Basics.Clone()
	out.CurrentOption = d.CurrentOption.Clone()
	out.ExistingOptions = make([]Option, len(d.ExistingOptions))
	for i := range d.ExistingOptions {
		out.ExistingOptions[i] = d.ExistingOptions[i].Clone()
	}
	return out
}

// FindOption returns the saved option with id.
func (d DraftQuote) FindOption(id string) (Option, bool) {
	for _, opt := range d.ExistingOptions {
		if opt.ID == id {
			return opt, true
		}
	}
	return Option{}, false
}
