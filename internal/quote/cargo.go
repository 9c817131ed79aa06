package quote

import (
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/freightquote-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/freightquote-backend/pkg/errors"
)

// ContainerEntry is one line of cargo.
type ContainerEntry struct {
	EntryID  string              `json:"entry_id"`
	Type     enums.ContainerType `json:"container_type"`
	Quantity int                 `json:"quantity"`
}

// TEU returns the entry's twenty-foot equivalent units.
func (e ContainerEntry) TEU() float64 {
	return e.Type.TEU() * float64(e.Quantity)
}

// AddContainer appends a new entry. Unknown types and non-positive quantities are
// rejected with a validation error and list is returned unchanged.
func AddContainer(list []ContainerEntry, containerType enums.ContainerType, quantity int) ([]ContainerEntry, error) {
	if !containerType.IsValid() {
		return list, pkgerrors.New(pkgerrors.CodeValidation, "unknown container type").
			WithDetails(map[string]any{"container_type": containerType})
	}
	if quantity <= 0 {
		return list, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive").
			WithDetails(map[string]any{"quantity": quantity})
	}
	out := make([]ContainerEntry, len(list), len(list)+1)
	copy(out, list)
	return append(out, ContainerEntry{
		EntryID:  uuid.NewString(),
		Type:     containerType,
		Quantity: quantity,
	}), nil
}

// RemoveContainer drops the entry at index.
func RemoveContainer(list []ContainerEntry, index int) ([]ContainerEntry, error) {
	if index < 0 || index >= len(list) {
		return list, pkgerrors.New(pkgerrors.CodeNotFound, "container entry not found").
			WithDetails(map[string]any{"index": index})
	}
	out := make([]ContainerEntry, 0, len(list)-1)
	out = append(out, list[:index]...)
	return append(out, list[index+1:]...), nil
}

// RemoveContainerByID drops the entry with the given id.
func RemoveContainerByID(list []ContainerEntry, entryID string) ([]ContainerEntry, error) {
	return RemoveContainer(list, indexOfEntry(list, entryID))
}

// UpdateQuantity changes the quantity of one entry.
func UpdateQuantity(list []ContainerEntry, entryID string, quantity int) ([]ContainerEntry, error) {
	if quantity <= 0 {
		return list, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive").
			WithDetails(map[string]any{"quantity": quantity})
	}
	idx := indexOfEntry(list, entryID)
	if idx < 0 {
		return list, pkgerrors.New(pkgerrors.CodeNotFound, "container entry not found").
			WithDetails(map[string]any{"entry_id": entryID})
	}
	out := cloneContainers(list)
	out[idx].Quantity = quantity
	return out, nil
}

// TotalTeu sums TEU over every entry.
func TotalTeu(list []ContainerEntry) float64 {
	total := 0.0
	for _, entry := range list {
		total += entry.TEU()
	}
	return total
}

func indexOfEntry(list []ContainerEntry, entryID string) int {
	id := strings.TrimSpace(entryID)
	if id == "" {
		return -1
	}
	for i, entry := range list {
		if entry.EntryID == id {
			return i
		}
	}
	return -1
}

func cloneContainers(list []ContainerEntry) []ContainerEntry {
	out := make([]ContainerEntry, len(list))
	copy(out, list)
	return out
}
