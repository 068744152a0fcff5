package event

import (
	"time"

	"github.com/larsmaeder/homerules/internal/state"
)

// StateChange is the canonical input model for all incoming events: one
// entity's state transition as reported by the host.
type StateChange struct {
	Entity     string    `json:"entity"`
	Update     state.Map `json:"update"` // fields present in this specific update
	From       state.Map `json:"from"`   // full prior snapshot
	To         state.Map `json:"to"`     // full new snapshot
	ReceivedAt time.Time `json:"-"`
}
