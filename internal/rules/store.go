package rules

import (
	"log/slog"
	"sort"

	"github.com/google/uuid"

	"github.com/larsmaeder/homerules/internal/config"
	"github.com/larsmaeder/homerules/internal/metrics"
)

// Store indexes rules by the entity they watch. It is built once from
// configuration and immutable afterwards; firing order for one entity is
// config document order.
type Store struct {
	byEntity map[string][]*Rule
	count    int
}

// Build normalizes raw automation entries into a Store. Invalid entries
// are logged and skipped; a bad automation never aborts loading.
func Build(autos config.Automations, log *slog.Logger) *Store {
	s := &Store{byEntity: make(map[string][]*Rule)}
	for _, raw := range autos {
		if !validate(raw, log) {
			metrics.AutomationsRejected.Inc()
			continue
		}
		// One id per raw entry: replicas across trigger entities share it.
		id := uuid.New().String()
		for _, entity := range raw.Trigger.Entity {
			s.byEntity[entity] = append(s.byEntity[entity], &Rule{
				ID:         id,
				Name:       raw.Name,
				Entity:     entity,
				Trigger:    raw.Trigger,
				Conditions: raw.Condition,
				Actions:    raw.Action,
			})
			s.count++
		}
	}
	metrics.AutomationsLoaded.Set(float64(s.count))
	return s
}

func validate(raw config.Automation, log *slog.Logger) bool {
	t := raw.Trigger
	if _, ok := defaultAttribute[t.Platform]; !ok &&
		t.Platform != PlatformAction && t.Platform != PlatformNumericState {
		log.Warn("skipping automation: unknown trigger platform",
			"automation", raw.Name, "platform", t.Platform)
		return false
	}
	if len(t.Entity) == 0 {
		log.Warn("skipping automation: trigger has no entity", "automation", raw.Name)
		return false
	}
	if len(raw.Action) == 0 {
		log.Warn("skipping automation: no actions", "automation", raw.Name)
		return false
	}
	for _, a := range raw.Action {
		switch a.Service {
		case ServiceToggle, ServiceTurnOn, ServiceTurnOff, ServiceCustom:
		default:
			log.Warn("skipping automation: unknown action service",
				"automation", raw.Name, "service", a.Service)
			return false
		}
	}
	for _, c := range raw.Condition {
		if c.Entity == "" {
			log.Warn("skipping automation: condition has no entity", "automation", raw.Name)
			return false
		}
		if _, ok := defaultAttribute[c.Platform]; !ok && c.Platform != PlatformNumericState {
			log.Warn("skipping automation: unknown condition platform",
				"automation", raw.Name, "platform", c.Platform)
			return false
		}
	}
	return true
}

// RulesFor returns the rules watching entity, in firing order.
func (s *Store) RulesFor(entity string) []*Rule {
	return s.byEntity[entity]
}

// Len returns the total number of rule replicas in the store.
func (s *Store) Len() int {
	return s.count
}

// Entities returns the watched entity names, sorted for stable listings.
func (s *Store) Entities() []string {
	out := make([]string, 0, len(s.byEntity))
	for e := range s.byEntity {
		out = append(out, e)
	}
	sort.Strings(out)
	return out
}
