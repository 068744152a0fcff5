package rules_test

import (
	"testing"

	"github.com/larsmaeder/homerules/internal/config"
	"github.com/larsmaeder/homerules/internal/rules"
	"github.com/larsmaeder/homerules/internal/state"
)

func f(v float64) *float64 { return &v }

func TestMatchActionTrigger(t *testing.T) {
	trig := &config.Trigger{
		Platform: rules.PlatformAction,
		Entity:   config.StringList{"remote"},
		Action:   config.StringList{"single", "double"},
	}

	tests := []struct {
		name   string
		update state.Map
		want   rules.Outcome
	}{
		{"accepted name", state.Map{"action": "single"}, rules.Match},
		{"second accepted name", state.Map{"action": "double"}, rules.Match},
		{"unknown name", state.Map{"action": "hold"}, rules.NoMatch},
		{"no action field", state.Map{"state": "ON"}, rules.NoMatch},
		{"empty update", state.Map{}, rules.NoMatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := rules.MatchTrigger(trig, tt.update, state.Map{}, state.Map{})
			if got != tt.want {
				t.Errorf("MatchTrigger = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMatchStateTrigger(t *testing.T) {
	trig := &config.Trigger{
		Platform: rules.PlatformState,
		Entity:   config.StringList{"switch_hall"},
		State:    config.ValueList{"ON"},
	}

	tests := []struct {
		name             string
		update, from, to state.Map
		want             rules.Outcome
	}{
		{
			"transition into accepted value",
			state.Map{"state": "ON"}, state.Map{"state": "OFF"}, state.Map{"state": "ON"},
			rules.Match,
		},
		{
			"no real transition",
			state.Map{"state": "ON"}, state.Map{"state": "ON"}, state.Map{"state": "ON"},
			rules.NoMatch,
		},
		{
			"transition out of accepted value",
			state.Map{"state": "OFF"}, state.Map{"state": "ON"}, state.Map{"state": "OFF"},
			rules.NegativeEdge,
		},
		{
			// The update snapshot is authoritative for the matched value even
			// when it diverges from the transition's to-value.
			"update diverges from to",
			state.Map{"state": "ON"}, state.Map{"state": "OFF"}, state.Map{"state": "DIM"},
			rules.Match,
		},
		{
			"attribute missing from update",
			state.Map{"brightness": 40}, state.Map{"state": "OFF"}, state.Map{"state": "ON"},
			rules.NoMatch,
		},
		{
			"attribute missing from from",
			state.Map{"state": "ON"}, state.Map{}, state.Map{"state": "ON"},
			rules.NoMatch,
		},
		{
			"attribute missing from to",
			state.Map{"state": "ON"}, state.Map{"state": "OFF"}, state.Map{},
			rules.NoMatch,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := rules.MatchTrigger(trig, tt.update, tt.from, tt.to)
			if got != tt.want {
				t.Errorf("MatchTrigger = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMatchStateTrigger_FromEqualsToAlwaysNoMatch(t *testing.T) {
	// Property: from[attr] == to[attr] yields NoMatch regardless of the
	// update value.
	trig := &config.Trigger{
		Platform: rules.PlatformState,
		Entity:   config.StringList{"x"},
		State:    config.ValueList{"ON", "OFF", "DIM"},
	}
	for _, v := range []string{"ON", "OFF", "DIM", "other"} {
		got := rules.MatchTrigger(trig,
			state.Map{"state": v}, state.Map{"state": "ON"}, state.Map{"state": "ON"})
		if got != rules.NoMatch {
			t.Errorf("update=%q: got %v, want no_match", v, got)
		}
	}
}

func TestMatchStateVariantDefaultAttribute(t *testing.T) {
	trig := &config.Trigger{
		Platform: rules.PlatformStateLeft,
		Entity:   config.StringList{"wall_switch"},
		State:    config.ValueList{"ON"},
	}
	got := rules.MatchTrigger(trig,
		state.Map{"state_left": "ON"},
		state.Map{"state_left": "OFF"},
		state.Map{"state_left": "ON"})
	if got != rules.Match {
		t.Errorf("state_left variant: got %v, want match", got)
	}

	// An explicit attribute overrides the platform default.
	trig2 := &config.Trigger{
		Platform:  rules.PlatformState,
		Entity:    config.StringList{"wall_switch"},
		Attribute: "state_right",
		State:     config.ValueList{"ON"},
	}
	got = rules.MatchTrigger(trig2,
		state.Map{"state_right": "ON"},
		state.Map{"state_right": "OFF"},
		state.Map{"state_right": "ON"})
	if got != rules.Match {
		t.Errorf("explicit attribute: got %v, want match", got)
	}
}

func TestMatchNumericTrigger(t *testing.T) {
	above := &config.Trigger{
		Platform:  rules.PlatformNumericState,
		Entity:    config.StringList{"thermometer"},
		Attribute: "temperature",
		Above:     f(30),
	}
	below := &config.Trigger{
		Platform:  rules.PlatformNumericState,
		Entity:    config.StringList{"thermometer"},
		Attribute: "temperature",
		Below:     f(10),
	}
	banded := &config.Trigger{
		Platform:  rules.PlatformNumericState,
		Entity:    config.StringList{"thermometer"},
		Attribute: "temperature",
		Above:     f(10),
		Below:     f(30),
	}

	tests := []struct {
		name             string
		trig             *config.Trigger
		update, from, to state.Map
		want             rules.Outcome
	}{
		{
			"above: fresh crossing",
			above,
			state.Map{"temperature": 35}, state.Map{"temperature": 25}, state.Map{"temperature": 35},
			rules.Match,
		},
		{
			"above: already above, no fresh crossing",
			above,
			state.Map{"temperature": 32}, state.Map{"temperature": 35}, state.Map{"temperature": 32},
			rules.NoMatch,
		},
		{
			"above: drops below threshold",
			above,
			state.Map{"temperature": 25}, state.Map{"temperature": 35}, state.Map{"temperature": 25},
			rules.NegativeEdge,
		},
		{
			"above: no-op transition",
			above,
			state.Map{"temperature": 35}, state.Map{"temperature": 35}, state.Map{"temperature": 35},
			rules.NoMatch,
		},
		{
			"above: non-numeric value",
			above,
			state.Map{"temperature": "hot"}, state.Map{"temperature": "warm"}, state.Map{"temperature": "hot"},
			rules.NoMatch,
		},
		{
			"above: attribute missing from update",
			above,
			state.Map{"humidity": 40}, state.Map{"temperature": 25}, state.Map{"temperature": 35},
			rules.NoMatch,
		},
		{
			"below: fresh crossing",
			below,
			state.Map{"temperature": 5}, state.Map{"temperature": 15}, state.Map{"temperature": 5},
			rules.Match,
		},
		{
			"below: already below",
			below,
			state.Map{"temperature": 3}, state.Map{"temperature": 5}, state.Map{"temperature": 3},
			rules.NoMatch,
		},
		{
			"below: rises above threshold",
			below,
			state.Map{"temperature": 15}, state.Map{"temperature": 5}, state.Map{"temperature": 15},
			rules.NegativeEdge,
		},
		{
			// Each threshold needs its own fresh crossing: entering from
			// below, the below-check was already satisfied at the from-value,
			// so the band as a whole does not match.
			"band: enters from below",
			banded,
			state.Map{"temperature": 20}, state.Map{"temperature": 5}, state.Map{"temperature": 20},
			rules.NoMatch,
		},
		{
			"band: enters from above",
			banded,
			state.Map{"temperature": 20}, state.Map{"temperature": 35}, state.Map{"temperature": 20},
			rules.NoMatch,
		},
		{
			"band: leaves upward",
			banded,
			state.Map{"temperature": 35}, state.Map{"temperature": 20}, state.Map{"temperature": 35},
			rules.NegativeEdge,
		},
		{
			"band: moves within band",
			banded,
			state.Map{"temperature": 25}, state.Map{"temperature": 20}, state.Map{"temperature": 25},
			rules.NoMatch,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := rules.MatchTrigger(tt.trig, tt.update, tt.from, tt.to)
			if got != tt.want {
				t.Errorf("MatchTrigger = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestMatchNumericTrigger_Sequence follows a thermometer through
// 25 → 35 → 32 with above: 30. Only the 25→35 step is a fresh crossing.
func TestMatchNumericTrigger_Sequence(t *testing.T) {
	trig := &config.Trigger{
		Platform:  rules.PlatformNumericState,
		Entity:    config.StringList{"thermometer"},
		Attribute: "temperature",
		Above:     f(30),
	}

	steps := []struct {
		from, to float64
		want     rules.Outcome
	}{
		{25, 25, rules.NoMatch},      // initial report, no transition
		{25, 35, rules.Match},        // crosses above 30
		{35, 32, rules.NoMatch},      // stays above, not a fresh crossing
		{32, 25, rules.NegativeEdge}, // leaves the region
	}
	for i, s := range steps {
		got := rules.MatchTrigger(trig,
			state.Map{"temperature": s.to},
			state.Map{"temperature": s.from},
			state.Map{"temperature": s.to})
		if got != s.want {
			t.Errorf("step %d (%v→%v): got %v, want %v", i, s.from, s.to, got, s.want)
		}
	}
}
