package engine

import (
	"fmt"

	"github.com/larsmaeder/homerules/internal/config"
	"github.com/larsmaeder/homerules/internal/metrics"
	"github.com/larsmaeder/homerules/internal/rules"
	"github.com/larsmaeder/homerules/internal/state"
)

// runActions executes a rule's actions in order. Each action degrades to a
// no-op on a routing miss; a bad action never stops the rest.
func (e *Engine) runActions(actions []config.Action) int {
	published := 0
	for i := range actions {
		if e.runAction(&actions[i]) {
			published++
		}
	}
	return published
}

func (e *Engine) runAction(a *config.Action) bool {
	target, ok := e.resolver.Resolve(a.Entity)
	if !ok {
		e.log.Debug("action target not resolvable, skipping", "entity", a.Entity)
		metrics.CommandsSkipped.Inc()
		return false
	}

	// Custom payloads go out verbatim, bypassing the no-op check.
	if a.Service == rules.ServiceCustom {
		e.pub.Publish(target, a.Data)
		metrics.CommandsPublished.Inc()
		return true
	}

	current := ""
	if live, ok := e.states.State(target); ok {
		if v, ok := live["state"]; ok {
			current = fmt.Sprintf("%v", v)
		}
	}

	var next string
	switch a.Service {
	case rules.ServiceTurnOn:
		next = state.On
	case rules.ServiceTurnOff:
		next = state.Off
	case rules.ServiceToggle:
		// An undefined current state counts as OFF, so toggle turns on.
		if current == state.On {
			next = state.Off
		} else {
			next = state.On
		}
	default:
		// Unknown services are rejected at store build time.
		return false
	}

	if next == current {
		metrics.CommandsSkipped.Inc()
		return false
	}
	e.pub.Publish(target, state.Map{"state": next})
	metrics.CommandsPublished.Inc()
	return true
}
