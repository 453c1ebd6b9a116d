package models

// State is an opaque puzzle state snapshot: a JSON object decoded into a
// string-keyed map. The engine never interprets puzzle-specific keys.
type State map[string]any

// Clone returns a shallow copy of the state. Values are shared; the delta
// codec treats nested values as whole-value replacements, so a shallow copy
// is sufficient for snapshot bookkeeping.
func (s State) Clone() State {
	if s == nil {
		return nil
	}
	out := make(State, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}
