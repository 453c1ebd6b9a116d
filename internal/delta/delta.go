// Package delta implements the snapshot codec used to store replay state
// compactly: instead of full snapshots, each action keeps only the top-level
// keys that changed since the previous state. Nested objects are treated as
// whole-value replacements; there is no recursive diffing.
package delta

import (
	"bytes"
	"encoding/json"

	"github.com/vytor/puzzlereplay/internal/models"
)

// removedKey tags a key that was deleted between two snapshots. JSON null is
// a valid snapshot value, so deletion needs an explicit marker. A caller state
// containing exactly {"$removed": true} as a value would collide with the
// marker; accepted trade-off.
const removedKey = "$removed"

// Removed returns the deletion marker stored in a delta for a key that is
// absent from the newer state.
func Removed() any {
	return map[string]any{removedKey: true}
}

// IsRemoved reports whether v is the deletion marker. It recognizes both the
// in-memory form and the form that round-trips through JSON storage.
func IsRemoved(v any) bool {
	m, ok := v.(map[string]any)
	if !ok || len(m) != 1 {
		return false
	}
	b, ok := m[removedKey].(bool)
	return ok && b
}

// Equal reports structural equality of two snapshot values by comparing their
// canonical JSON encodings. encoding/json sorts map keys, so the encoding is
// deterministic regardless of insertion order.
func Equal(a, b any) bool {
	ab, err := json.Marshal(a)
	if err != nil {
		return false
	}
	bb, err := json.Marshal(b)
	if err != nil {
		return false
	}
	return bytes.Equal(ab, bb)
}

// Diff computes the top-level delta that transforms prev into curr:
// every key of curr whose value differs from prev is included, and every key
// of prev missing from curr maps to the removal marker.
// Apply(prev, Diff(prev, curr)) reproduces curr for all prev/curr.
func Diff(prev, curr models.State) models.State {
	d := models.State{}

	for k, cv := range curr {
		pv, ok := prev[k]
		if !ok || !Equal(pv, cv) {
			d[k] = cv
		}
	}

	for k := range prev {
		if _, ok := curr[k]; !ok {
			d[k] = Removed()
		}
	}

	return d
}

// Apply shallow-merges d into prev, deleting keys marked as removed. The
// inputs are not mutated.
func Apply(prev, d models.State) models.State {
	out := make(models.State, len(prev)+len(d))
	for k, v := range prev {
		out[k] = v
	}
	for k, v := range d {
		if IsRemoved(v) {
			delete(out, k)
			continue
		}
		out[k] = v
	}
	return out
}
