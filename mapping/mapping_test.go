package mapping

import (
	"os"
	"path/filepath"
	"testing"

	osm "github.com/omniscale/go-osm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanupTags(t *testing.T) {
	c := Default()
	tags := osm.Tags{
		"highway":      "residential",
		"name":         "Hauptstraße",
		"created_by":   "JOSM",
		"source":       "survey",
		"tiger:county": "Multnomah",
		"note:de":      "irgendwas",
	}
	clean := c.CleanupTags(tags)
	assert.Equal(t, osm.Tags{"highway": "residential", "name": "Hauptstraße"}, clean)
	// the input stays untouched
	assert.Len(t, tags, 6)
}

func TestIsPolygon(t *testing.T) {
	c := Default()
	assert.True(t, c.IsPolygon(osm.Tags{"building": "yes"}))
	assert.True(t, c.IsPolygon(osm.Tags{"landuse": "forest"}))
	// key/value combination
	assert.True(t, c.IsPolygon(osm.Tags{"highway": "services"}))
	assert.False(t, c.IsPolygon(osm.Tags{"highway": "residential"}))
}

func TestIsLinestringOverridesPolygon(t *testing.T) {
	c := Default()
	// natural is a polygon key, cliff stays a line
	assert.True(t, c.IsPolygon(osm.Tags{"natural": "cliff"}))
	assert.True(t, c.IsLinestring(osm.Tags{"natural": "cliff"}))
	assert.False(t, c.IsLinestring(osm.Tags{"natural": "water"}))
}

func TestZOrderSums(t *testing.T) {
	c := Default()
	assert.Equal(t, 380, c.ZOrder(osm.Tags{"highway": "motorway"}))
	// scores of independent keys add up
	assert.Equal(t, 380+440, c.ZOrder(osm.Tags{"highway": "motorway", "railway": "rail"}))
	assert.Equal(t, 0, c.ZOrder(osm.Tags{"building": "yes"}))
}

func TestIsRoad(t *testing.T) {
	c := Default()
	assert.True(t, c.IsRoad(osm.Tags{"highway": "motorway"}))
	assert.True(t, c.IsRoad(osm.Tags{"railway": "rail"}))
	// flagged with a zero z-order
	assert.True(t, c.IsRoad(osm.Tags{"boundary": "administrative"}))
	assert.False(t, c.IsRoad(osm.Tags{"highway": "residential"}))
	// scored but not road-flagged
	assert.False(t, c.IsRoad(osm.Tags{"aeroway": "runway"}))
	assert.False(t, c.IsRoad(osm.Tags{"building": "yes"}))
}

func TestFromFile(t *testing.T) {
	dir := t.TempDir()
	filename := filepath.Join(dir, "classification.yml")
	require.NoError(t, os.WriteFile(filename, []byte(`
polygon_keys: [building]
linestring_values:
  natural: [cliff]
delete_keys: [note]
delete_prefixes: ["source:"]
scores:
  highway:
    motorway: {z: 380, roads: true}
`), 0o644))

	c, err := FromFile(filename)
	require.NoError(t, err)
	assert.True(t, c.IsPolygon(osm.Tags{"building": "yes"}))
	assert.False(t, c.IsPolygon(osm.Tags{"landuse": "forest"}))
	assert.True(t, c.IsLinestring(osm.Tags{"natural": "cliff"}))
	assert.Equal(t, 380, c.ZOrder(osm.Tags{"highway": "motorway"}))
	assert.True(t, c.IsRoad(osm.Tags{"highway": "motorway"}))
	assert.Equal(t, osm.Tags{}, c.CleanupTags(osm.Tags{"note": "x", "source:date": "y"}))
}

func TestFromFileMissing(t *testing.T) {
	_, err := FromFile("/does/not/exist.yml")
	assert.Error(t, err)
}
