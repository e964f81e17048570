// Package panel controls which plugin panel occupies the host's single
// side-panel region.
package panel

import (
	"github.com/jyoonje/collabview-plugin/internal/host"
)

// Key is the host store slice holding panel visibility.
const Key = "rhs"

// ActionUpdateRHS tags Show and Hide.
const ActionUpdateRHS = "UPDATE_RHS_STATE"

// Visibility is the host-owned panel state. At most one slot is active.
type Visibility struct {
	ActiveSlotID string `json:"activeSlotId"`
}

// Active returns the active slot, if any.
func (v Visibility) Active() (string, bool) {
	return v.ActiveSlotID, v.ActiveSlotID != ""
}

// Show activates SlotID, displacing any other active slot.
type Show struct{ SlotID string }

// Hide deactivates SlotID if it is the active slot.
type Hide struct{ SlotID string }

func (Show) Type() string { return ActionUpdateRHS }
func (Hide) Type() string { return ActionUpdateRHS }

// Apply is the visibility reducer.
func Apply(v Visibility, action host.Action) Visibility {
	switch a := action.(type) {
	case Show:
		if a.SlotID == "" {
			return v
		}
		return Visibility{ActiveSlotID: a.SlotID}
	case Hide:
		if a.SlotID == "" || v.ActiveSlotID != a.SlotID {
			return v
		}
		return Visibility{}
	}
	return v
}

// Toggle returns the action toggling slot against v: hide when slot is
// already active, show otherwise.
func Toggle(v Visibility, slot string) host.Action {
	if v.ActiveSlotID == slot {
		return Hide{SlotID: slot}
	}
	return Show{SlotID: slot}
}

func reducer(state any, action host.Action) any {
	v, _ := state.(Visibility)
	return Apply(v, action)
}
