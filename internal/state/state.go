// Package state holds the string-keyed attribute maps that carry entity
// state through the engine, plus the value coercion helpers shared by
// trigger matching and condition evaluation.
package state

import (
	"fmt"
	"math"
)

// On and Off are the canonical binary state values used by the built-in
// action services.
const (
	On  = "ON"
	Off = "OFF"
)

// Map is one entity state snapshot or update: attribute name → value.
type Map = map[string]any

// Clone returns a shallow copy of m. A nil map clones to an empty one.
func Clone(m Map) Map {
	out := make(Map, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Merge overlays src onto a copy of dst and returns the result. Neither
// input is modified.
func Merge(dst, src Map) Map {
	out := Clone(dst)
	for k, v := range src {
		out[k] = v
	}
	return out
}

// Float coerces a numeric value to float64. YAML and JSON decoding produce
// a mix of int and float64 depending on the literal, so every numeric
// comparison goes through here.
func Float(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

// Equal compares two attribute values. Numeric types are compared by value,
// booleans by identity, everything else by string form.
func Equal(a, b any) bool {
	af, aok := Float(a)
	bf, bok := Float(b)
	if aok && bok {
		return math.Abs(af-bf) < 1e-9
	}
	if ab, ok := a.(bool); ok {
		bb, ok := b.(bool)
		return ok && ab == bb
	}
	return fmt.Sprintf("%v", a) == fmt.Sprintf("%v", b)
}
