package rules

import (
	"github.com/larsmaeder/homerules/internal/config"
	"github.com/larsmaeder/homerules/internal/state"
)

// Outcome is the three-valued result of matching a trigger against a state
// transition. NegativeEdge means the transition explicitly left the
// matching region and any pending delayed fire must be cancelled; NoMatch
// means the update is irrelevant and pending timers stay untouched.
type Outcome uint8

const (
	NoMatch Outcome = iota
	NegativeEdge
	Match
)

func (o Outcome) String() string {
	switch o {
	case NegativeEdge:
		return "negative_edge"
	case Match:
		return "match"
	default:
		return "no_match"
	}
}

// tri is the per-threshold verdict for numeric triggers: unknown (not a
// fresh crossing), left the region, or inside it.
type tri uint8

const (
	triNone tri = iota
	triFalse
	triTrue
)

// MatchTrigger decides whether a trigger fires for the observed transition.
// Pure function of its inputs; it never reads external state.
func MatchTrigger(t *config.Trigger, update, from, to state.Map) Outcome {
	switch t.Platform {
	case PlatformAction:
		return matchAction(t, update)
	case PlatformNumericState:
		return matchNumeric(t, update, from, to)
	default:
		return matchState(t, update, from, to)
	}
}

// matchAction fires on discrete action pulses carried in the update. A
// pulse is not a level, so there is no negative edge here.
func matchAction(t *config.Trigger, update state.Map) Outcome {
	v, ok := update["action"]
	if !ok {
		return NoMatch
	}
	for _, name := range t.Action {
		if state.Equal(name, v) {
			return Match
		}
	}
	return NoMatch
}

func matchState(t *config.Trigger, update, from, to state.Map) Outcome {
	attr := t.Attribute
	if attr == "" {
		attr = defaultAttribute[t.Platform]
	}
	uv, uok := update[attr]
	fv, fok := from[attr]
	tv, tok := to[attr]
	if !uok || !fok || !tok {
		return NoMatch
	}
	if state.Equal(fv, tv) {
		// No real transition.
		return NoMatch
	}
	// The update value is authoritative for the matched value; from/to only
	// establish that a transition occurred.
	if t.State.Contains(uv) {
		return Match
	}
	return NegativeEdge
}

func matchNumeric(t *config.Trigger, update, from, to state.Map) Outcome {
	attr := t.Attribute
	if attr == "" {
		return NoMatch
	}
	if _, ok := update[attr]; !ok {
		return NoMatch
	}
	fv, fok := state.Float(from[attr])
	tv, tok := state.Float(to[attr])
	if !fok || !tok {
		return NoMatch
	}
	if fv == tv {
		return NoMatch
	}

	res := triTrue
	if t.Above != nil {
		res = combine(res, crossedAbove(fv, tv, *t.Above))
	}
	if t.Below != nil {
		res = combine(res, crossedBelow(fv, tv, *t.Below))
	}
	switch res {
	case triFalse:
		return NegativeEdge
	case triTrue:
		return Match
	default:
		return NoMatch
	}
}

// crossedAbove: the to-value must be at or above the threshold, and the
// from-value below it (a fresh crossing, not a continued stay).
func crossedAbove(from, to, above float64) tri {
	if to < above {
		return triFalse
	}
	if from >= above {
		return triNone
	}
	return triTrue
}

func crossedBelow(from, to, below float64) tri {
	if to > below {
		return triFalse
	}
	if from <= below {
		return triNone
	}
	return triTrue
}

// combine merges per-threshold verdicts: leaving any region dominates,
// then "no fresh crossing", then match. Both thresholds, when configured,
// must independently permit a match.
func combine(a, b tri) tri {
	if a == triFalse || b == triFalse {
		return triFalse
	}
	if a == triNone || b == triNone {
		return triNone
	}
	return triTrue
}
