package render

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const styleTemplate = `<Map><Parameter name="table">
(SELECT * FROM planet_osm_line
 WHERE valid_since &lt;= '{{.Date}}' AND valid_until &gt; '{{.Date}}') AS data
</Parameter></Map>`

func TestStyleForInjectsDate(t *testing.T) {
	p, err := NewStyleProviderFromString(styleTemplate, nil, 0)
	require.NoError(t, err)

	style, err := p.StyleFor(context.Background(), time.Date(2020, 6, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Contains(t, style, `valid_since &lt;= '2020-06-01'`)
	assert.Contains(t, style, `valid_until &gt; '2020-06-01'`)
	assert.NotContains(t, style, "{{")
}

func TestStyleKeyPerDate(t *testing.T) {
	a := styleKey(time.Date(2020, 6, 1, 0, 0, 0, 0, time.UTC))
	b := styleKey(time.Date(2020, 6, 2, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, "style-2020-06-01.xml", a)
	assert.NotEqual(t, a, b)
}
