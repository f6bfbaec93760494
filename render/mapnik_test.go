package render

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ohdm/chronotile/proj"
)

func TestMapnikRender(t *testing.T) {
	var got renderRequest
	daemon := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/render", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte("png-bytes"))
	}))
	defer daemon.Close()

	styles, err := NewStyleProviderFromString(`date={{.Date}}`, nil, 0)
	require.NoError(t, err)

	bbox, err := proj.TileBBox(0, 0, 0)
	require.NoError(t, err)

	m := NewMapnik(daemon.URL, styles)
	tile, err := m.Render(context.Background(), Request{
		Date: time.Date(2020, 6, 1, 0, 0, 0, 0, time.UTC),
		Zoom: 0, X: 0, Y: 0,
		BBox: bbox.ToMerc(),
	})
	require.NoError(t, err)
	assert.Equal(t, []byte("png-bytes"), tile)

	assert.Equal(t, "date=2020-06-01", got.Style)
	assert.Equal(t, 256, got.Width)
	assert.InDelta(t, -20037508.34, got.MinX, 1.0)
	assert.InDelta(t, 20037508.34, got.MaxX, 1.0)
}

func TestMapnikRenderWithoutDate(t *testing.T) {
	styles, err := NewStyleProviderFromString(`x`, nil, 0)
	require.NoError(t, err)
	m := NewMapnik("http://localhost:0", styles)

	_, err = m.Render(context.Background(), Request{})
	assert.ErrorIs(t, err, ErrNoValidityDate)
}

func TestMapnikRenderDaemonError(t *testing.T) {
	daemon := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "style broken", http.StatusInternalServerError)
	}))
	defer daemon.Close()

	styles, err := NewStyleProviderFromString(`x`, nil, 0)
	require.NoError(t, err)

	m := NewMapnik(daemon.URL, styles)
	_, err = m.Render(context.Background(), Request{
		Date: time.Date(2020, 6, 1, 0, 0, 0, 0, time.UTC),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "style broken")
}
