package ir

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInt_ValueOrString(t *testing.T) {
	var v struct {
		A Int `json:"a"`
		B Int `json:"b"`
		C Int `json:"c"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a": 5, "b": "12", "c": 3.0}`), &v))
	assert.Equal(t, Int(5), v.A)
	assert.Equal(t, Int(12), v.B)
	assert.Equal(t, Int(3), v.C)

	var bad Int
	assert.Error(t, json.Unmarshal([]byte(`"twelve"`), &bad))
	assert.Error(t, json.Unmarshal([]byte(`1.5`), &bad))
}

func TestBool_ValueOrString(t *testing.T) {
	var v struct {
		A Bool `json:"a"`
		B Bool `json:"b"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a": true, "b": "false"}`), &v))
	assert.True(t, bool(v.A))
	assert.False(t, bool(v.B))

	var bad Bool
	assert.Error(t, json.Unmarshal([]byte(`"yes please"`), &bad))
}

func TestCodeList(t *testing.T) {
	var c CodeList
	require.NoError(t, json.Unmarshal([]byte(`"sword, master_sword,,"`), &c))
	assert.Equal(t, CodeList{"sword", "master_sword"}, c)
	assert.True(t, c.Contains("master_sword"))
	assert.False(t, c.Contains("bow"))

	require.NoError(t, json.Unmarshal([]byte(`["bow", "arrows,quiver"]`), &c))
	assert.Equal(t, CodeList{"bow", "arrows", "quiver"}, c)
}

func TestLocationShape(t *testing.T) {
	var m Map
	require.NoError(t, json.Unmarshal([]byte(`{"name": "overworld", "location_shape": "diamond", "location_size": "24"}`), &m))
	assert.Equal(t, ShapeDiamond, m.LocationShape)
	assert.Equal(t, Int(24), m.LocationSize)

	assert.Error(t, json.Unmarshal([]byte(`{"location_shape": "hexagon"}`), &m))
}

func TestLocation_Walk(t *testing.T) {
	root := Location{
		Name: "Hyrule",
		Children: []Location{
			{Name: "Kakariko", Children: []Location{{Name: "Well"}}},
			{Name: "Lake"},
		},
	}

	var paths []string
	root.Walk(func(path string, _ *Location) {
		paths = append(paths, path)
	})
	assert.Equal(t, []string{"Hyrule", "Hyrule/Kakariko", "Hyrule/Kakariko/Well", "Hyrule/Lake"}, paths)
}
