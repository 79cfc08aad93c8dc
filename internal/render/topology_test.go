package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleTopology = `{
  "type": "FeatureCollection",
  "features": [
    {"type": "Feature", "id": "380", "properties": {"name": "Italy"},
     "geometry": {"type": "Polygon", "coordinates": [[[10,40],[15,40],[15,45],[10,45],[10,40]]]}},
    {"type": "Feature", "id": 840, "properties": {"name": "United States"},
     "geometry": {"type": "MultiPolygon", "coordinates": [
       [[[-100,30],[-80,30],[-80,45],[-100,45],[-100,30]]],
       [[[-160,55],[-150,55],[-150,65],[-160,65],[-160,55]]]
     ]}},
    {"type": "Feature", "properties": {"name": "Disputed"},
     "geometry": {"type": "Polygon", "coordinates": [[[70,30],[72,30],[72,32],[70,32],[70,30]]]}},
    {"type": "Feature", "id": 1, "properties": {},
     "geometry": {"type": "Point", "coordinates": [0,0]}}
  ]
}`

func TestDecodeTopology(t *testing.T) {
	features, err := DecodeTopology([]byte(sampleTopology))
	require.NoError(t, err)
	require.Len(t, features, 3, "point geometry is dropped")

	assert.Equal(t, 380, features[0].ID)
	assert.Equal(t, "Italy", features[0].Name)
	assert.Len(t, features[0].Polygons, 1)

	assert.Equal(t, 840, features[1].ID)
	assert.Len(t, features[1].Polygons, 2)

	assert.Equal(t, UnknownID, features[2].ID)
}

func TestDecodeTopology_Errors(t *testing.T) {
	_, err := DecodeTopology([]byte(`not json`))
	assert.Error(t, err)

	_, err = DecodeTopology([]byte(`{"type":"FeatureCollection","features":[]}`))
	assert.Error(t, err)
}

func TestISOTable_Lookup(t *testing.T) {
	table := NewISOTable(map[int]string{-99: "XKX"})

	code, ok := table.Lookup(840)
	assert.True(t, ok)
	assert.Equal(t, "USA", code)

	code, ok = table.Lookup(380)
	assert.True(t, ok)
	assert.Equal(t, "ITA", code)

	code, ok = table.Lookup(-99)
	assert.True(t, ok)
	assert.Equal(t, "XKX", code)

	_, ok = table.Lookup(UnknownID)
	assert.False(t, ok)

	_, ok = table.Lookup(2)
	assert.False(t, ok)
}
