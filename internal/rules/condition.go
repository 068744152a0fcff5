package rules

import (
	"log/slog"

	"github.com/larsmaeder/homerules/internal/config"
	"github.com/larsmaeder/homerules/internal/state"
)

// EvalConditions reports whether every condition in the list holds against
// live state. An empty list is trivially satisfied; evaluation
// short-circuits on the first failing condition.
func EvalConditions(conds []config.Condition, res Resolver, st States, log *slog.Logger) bool {
	for i := range conds {
		if !evalCondition(&conds[i], res, st, log) {
			return false
		}
	}
	return true
}

func evalCondition(c *config.Condition, res Resolver, st States, log *slog.Logger) bool {
	entity, ok := res.Resolve(c.Entity)
	if !ok {
		// Fail open: an unresolvable entity never blocks actions.
		log.Debug("condition entity not resolvable, passing", "entity", c.Entity)
		return true
	}
	live, ok := st.State(entity)
	if !ok {
		log.Debug("condition entity has no state, passing", "entity", c.Entity)
		return true
	}

	attr := c.Attribute
	if attr == "" {
		attr = defaultAttribute[c.Platform]
	}
	if c.Platform == PlatformNumericState {
		v, ok := state.Float(live[attr])
		if !ok {
			return false
		}
		if c.Above != nil && v < *c.Above {
			return false
		}
		if c.Below != nil && v > *c.Below {
			return false
		}
		return true
	}
	return state.Equal(live[attr], c.State)
}
