package enums

// OptionState tracks the lifecycle of a quote option: empty -> building -> saved.
type OptionState string

const (
	OptionStateEmpty    OptionState = "empty"
	OptionStateBuilding OptionState = "building"
	OptionStateSaved    OptionState = "saved"
)

// String implements fmt.Stringer.
func (s OptionState) String() string {
	return string(s)
}
