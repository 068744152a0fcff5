package config

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/larsmaeder/homerules/internal/state"
)

// File is the top-level YAML structure.
type File struct {
	Version     string      `yaml:"version"`
	Automations Automations `yaml:"automations"`
}

// Automations preserves document order: iteration order at load time is
// the firing order for rules watching the same entity.
type Automations []Automation

// Automation is one raw rule entry. Condition is optional; Action and
// Condition accept a single mapping or a sequence.
type Automation struct {
	Name      string        `yaml:"-"`
	Trigger   Trigger       `yaml:"trigger"`
	Condition ConditionList `yaml:"condition"`
	Action    ActionList    `yaml:"action"`
}

// Trigger is the tagged union over trigger platforms. Which fields are
// meaningful depends on Platform; unknown platforms are rejected at store
// build time, not here.
type Trigger struct {
	Platform  string     `yaml:"platform"`
	Entity    StringList `yaml:"entity"`
	Attribute string     `yaml:"attribute"`
	State     ValueList  `yaml:"state"`  // accepted values, state-like platforms
	Action    StringList `yaml:"action"` // accepted action names, action platform
	Above     *float64   `yaml:"above"`
	Below     *float64   `yaml:"below"`
	For       float64    `yaml:"for"` // seconds; 0 = fire immediately
}

// Condition is one guard entry. All of a rule's conditions must hold.
type Condition struct {
	Platform  string   `yaml:"platform"`
	Entity    string   `yaml:"entity"`
	Attribute string   `yaml:"attribute"`
	State     any      `yaml:"state"`
	Above     *float64 `yaml:"above"`
	Below     *float64 `yaml:"below"`
}

// Action is one command entry. Data is only used by the custom service.
type Action struct {
	Entity  string    `yaml:"entity"`
	Service string    `yaml:"service"`
	Data    state.Map `yaml:"data"`
}

// UnmarshalYAML decodes the automations mapping while keeping document
// order, which a plain map would lose.
func (a *Automations) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("automations: expected a mapping, got %s", value.Tag)
	}
	out := make(Automations, 0, len(value.Content)/2)
	for i := 0; i+1 < len(value.Content); i += 2 {
		var name string
		if err := value.Content[i].Decode(&name); err != nil {
			return fmt.Errorf("automations: bad key: %w", err)
		}
		var auto Automation
		if err := value.Content[i+1].Decode(&auto); err != nil {
			return fmt.Errorf("automation %q: %w", name, err)
		}
		auto.Name = name
		out = append(out, auto)
	}
	*a = out
	return nil
}

// StringList accepts a scalar or a sequence of scalars.
type StringList []string

func (l *StringList) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.SequenceNode {
		var items []string
		if err := value.Decode(&items); err != nil {
			return err
		}
		*l = items
		return nil
	}
	var single string
	if err := value.Decode(&single); err != nil {
		return err
	}
	*l = StringList{single}
	return nil
}

// ValueList accepts a scalar or a sequence of arbitrary scalars.
type ValueList []any

func (l *ValueList) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.SequenceNode {
		var items []any
		if err := value.Decode(&items); err != nil {
			return err
		}
		*l = items
		return nil
	}
	var single any
	if err := value.Decode(&single); err != nil {
		return err
	}
	*l = ValueList{single}
	return nil
}

// Contains reports whether v matches one of the accepted values.
func (l ValueList) Contains(v any) bool {
	for _, accepted := range l {
		if state.Equal(accepted, v) {
			return true
		}
	}
	return false
}

// ConditionList accepts a single condition mapping or a sequence of them.
type ConditionList []Condition

func (l *ConditionList) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.SequenceNode {
		var items []Condition
		if err := value.Decode(&items); err != nil {
			return err
		}
		*l = items
		return nil
	}
	var single Condition
	if err := value.Decode(&single); err != nil {
		return err
	}
	*l = ConditionList{single}
	return nil
}

// ActionList accepts a single action mapping or a sequence of them.
type ActionList []Action

func (l *ActionList) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.SequenceNode {
		var items []Action
		if err := value.Decode(&items); err != nil {
			return err
		}
		*l = items
		return nil
	}
	var single Action
	if err := value.Decode(&single); err != nil {
		return err
	}
	*l = ActionList{single}
	return nil
}
