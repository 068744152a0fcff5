// Package rules holds the normalized rule store and the pure decision
// functions of the engine: trigger matching and condition evaluation.
package rules

import (
	"github.com/larsmaeder/homerules/internal/config"
	"github.com/larsmaeder/homerules/internal/event"
	"github.com/larsmaeder/homerules/internal/state"
)

// Trigger platforms recognized by the store. The state variants share
// identical semantics and differ only in their default attribute, matching
// multi-channel devices that report a secondary state field.
const (
	PlatformAction       = "action"
	PlatformState        = "state"
	PlatformStateLeft    = "state_left"
	PlatformStateRight   = "state_right"
	PlatformNumericState = "numeric_state"
)

// Action services recognized by the store.
const (
	ServiceToggle  = "toggle"
	ServiceTurnOn  = "turn_on"
	ServiceTurnOff = "turn_off"
	ServiceCustom  = "custom"
)

// defaultAttribute maps a state-like platform to the attribute it watches
// when the trigger does not name one explicitly.
var defaultAttribute = map[string]string{
	PlatformState:      "state",
	PlatformStateLeft:  "state_left",
	PlatformStateRight: "state_right",
}

// Rule is one normalized automation replica, attached to a single watched
// entity. Replicas expanded from one raw entry share an ID.
type Rule struct {
	ID         string             `json:"id"`
	Name       string             `json:"name"`
	Entity     string             `json:"entity"`
	Trigger    config.Trigger     `json:"trigger"`
	Conditions []config.Condition `json:"conditions,omitempty"`
	Actions    []config.Action    `json:"actions"`
}

// Entity is an opaque handle to a host-resolved entity.
type Entity interface {
	ID() string
}

// Resolver looks entity names up in the host's registry.
type Resolver interface {
	Resolve(id string) (Entity, bool)
}

// States reads an entity's live state from the host.
type States interface {
	State(e Entity) (state.Map, bool)
}

// Publisher dispatches a command payload to an entity's command channel.
// Fire-and-forget: no acknowledgement is awaited.
type Publisher interface {
	Publish(e Entity, payload state.Map)
}

// Bus is the host's state-change notification source.
type Bus interface {
	Subscribe(handler func(event.StateChange)) Subscription
}

// Subscription is the explicit handle returned by Subscribe; cancelling it
// detaches the handler.
type Subscription interface {
	Cancel()
}
