package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalCanonical_SortsKeys(t *testing.T) {
	data, err := MarshalCanonical(map[string]any{
		"b": 1,
		"a": []any{"x", true},
		"c": map[string]any{"z": "<&>", "y": int64(2)},
	})
	require.NoError(t, err)
	assert.Equal(t, `{"a":["x",true],"b":1,"c":{"y":2,"z":"<&>"}}`, string(data))
}

func TestMarshalCanonical_NFC(t *testing.T) {
	decomposed := "e\u0301"
	data, err := MarshalCanonical(decomposed)
	require.NoError(t, err)
	assert.Equal(t, "\"\u00e9\"", string(data))
}

func TestMarshalCanonical_Rejects(t *testing.T) {
	_, err := MarshalCanonical(nil)
	assert.Error(t, err)

	_, err = MarshalCanonical(map[string]any{"f": 1.5})
	assert.Error(t, err)

	_, err = MarshalCanonical(struct{}{})
	assert.Error(t, err)
}

func TestSnapshotHash_Deterministic(t *testing.T) {
	snap := Snapshot{
		{Kind: KindLocation, Path: "Cave", Level: "Normal"},
		{Kind: KindSection, Path: "Cave/Chest", Level: "Inspect"},
	}

	h1, err := SnapshotHash(snap)
	require.NoError(t, err)
	assert.Len(t, h1, 64)
	assert.Equal(t, h1, MustSnapshotHash(snap))

	changed := append(Snapshot{}, snap...)
	changed[1].Level = "Normal"
	assert.NotEqual(t, h1, MustSnapshotHash(changed))
}

func TestSnapshot_MarshalCanonical(t *testing.T) {
	data, err := Snapshot{{Kind: KindSection, Path: "A/b", Level: "None"}}.MarshalCanonical()
	require.NoError(t, err)
	assert.Equal(t, `{"entries":[{"kind":"section","level":"None","path":"A/b"}],"version":"1"}`, string(data))
}
