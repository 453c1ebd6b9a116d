package delta_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vytor/puzzlereplay/internal/delta"
	"github.com/vytor/puzzlereplay/internal/models"
)

func TestDiff_ChangedAndAddedKeys(t *testing.T) {
	prev := models.State{"board": "a1", "moves": float64(3), "flag": true}
	curr := models.State{"board": "a2", "moves": float64(3), "extra": "new"}

	d := delta.Diff(prev, curr)

	assert.Equal(t, "a2", d["board"])
	assert.Equal(t, "new", d["extra"])
	assert.NotContains(t, d, "moves", "unchanged keys stay out of the delta")
	assert.True(t, delta.IsRemoved(d["flag"]), "dropped keys map to the removal marker")
}

func TestDiff_NullIsAValue(t *testing.T) {
	prev := models.State{"cursor": "b2"}
	curr := models.State{"cursor": nil}

	d := delta.Diff(prev, curr)

	require.Contains(t, d, "cursor")
	assert.Nil(t, d["cursor"])
	assert.False(t, delta.IsRemoved(d["cursor"]), "null must not be confused with removal")

	applied := delta.Apply(prev, d)
	require.Contains(t, applied, "cursor")
	assert.Nil(t, applied["cursor"])
}

func TestDiff_NestedValuesReplacedWhole(t *testing.T) {
	prev := models.State{"grid": map[string]any{"a": float64(1), "b": float64(2)}}
	curr := models.State{"grid": map[string]any{"a": float64(1), "b": float64(3)}}

	d := delta.Diff(prev, curr)

	require.Contains(t, d, "grid")
	assert.Equal(t, curr["grid"], d["grid"], "nested objects are whole-value replacements")
}

func TestApply_RoundTrip(t *testing.T) {
	cases := []struct {
		name string
		prev models.State
		curr models.State
	}{
		{"empty to empty", models.State{}, models.State{}},
		{"empty to populated", models.State{}, models.State{"x": float64(1), "y": "z"}},
		{"populated to empty", models.State{"x": float64(1)}, models.State{}},
		{
			"mixed changes",
			models.State{"keep": true, "change": "old", "drop": float64(9)},
			models.State{"keep": true, "change": "new", "add": []any{"a", "b"}},
		},
		{
			"nested replacement",
			models.State{"grid": map[string]any{"r": float64(0)}},
			models.State{"grid": map[string]any{"r": float64(1), "c": float64(2)}},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := delta.Diff(tc.prev, tc.curr)
			got := delta.Apply(tc.prev, d)
			assert.True(t, delta.Equal(got, tc.curr), "Apply(prev, Diff(prev, curr)) must equal curr")
		})
	}
}

func TestApply_DoesNotMutateInputs(t *testing.T) {
	prev := models.State{"a": float64(1), "b": float64(2)}
	d := models.State{"a": float64(10), "b": delta.Removed()}

	out := delta.Apply(prev, d)

	assert.Equal(t, float64(1), prev["a"])
	assert.Contains(t, prev, "b")
	assert.Equal(t, float64(10), out["a"])
	assert.NotContains(t, out, "b")
}

func TestRemovedMarker_SurvivesJSONRoundTrip(t *testing.T) {
	raw, err := json.Marshal(models.State{"gone": delta.Removed()})
	require.NoError(t, err)

	var decoded models.State
	require.NoError(t, json.Unmarshal(raw, &decoded))

	assert.True(t, delta.IsRemoved(decoded["gone"]))
}

func TestEqual_IgnoresKeyOrder(t *testing.T) {
	a := models.State{"x": float64(1), "y": float64(2)}
	b := models.State{"y": float64(2), "x": float64(1)}

	assert.True(t, delta.Equal(a, b))
}
