package render

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"
)

// Mapnik renders tiles through a mapnik rendering daemon over HTTP. The
// daemon receives the date-bound style document and the mercator extent
// and answers with an encoded PNG.
type Mapnik struct {
	url    string
	styles *StyleProvider
	client *http.Client
	width  int
	height int
}

func NewMapnik(url string, styles *StyleProvider) *Mapnik {
	return &Mapnik{
		url:    url,
		styles: styles,
		client: &http.Client{Timeout: 60 * time.Second},
		width:  256,
		height: 256,
	}
}

type renderRequest struct {
	Style  string  `json:"style"`
	Width  int     `json:"width"`
	Height int     `json:"height"`
	MinX   float64 `json:"minx"`
	MinY   float64 `json:"miny"`
	MaxX   float64 `json:"maxx"`
	MaxY   float64 `json:"maxy"`
}

func (m *Mapnik) Render(ctx context.Context, req Request) ([]byte, error) {
	if req.Date.IsZero() {
		return nil, ErrNoValidityDate
	}
	style, err := m.styles.StyleFor(ctx, req.Date)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(renderRequest{
		Style:  style,
		Width:  m.width,
		Height: m.height,
		MinX:   req.BBox.MinLong,
		MinY:   req.BBox.MinLat,
		MaxX:   req.BBox.MaxLong,
		MaxY:   req.BBox.MaxLat,
	})
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, m.url+"/render", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(httpReq)
	if err != nil {
		return nil, errors.Wrap(err, "calling render daemon")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, errors.Errorf("render daemon returned %s for %d/%d/%d: %s",
			resp.Status, req.Zoom, req.X, req.Y, bytes.TrimSpace(msg))
	}
	return io.ReadAll(resp.Body)
}

// String implements fmt.Stringer for log output.
func (r Request) String() string {
	return fmt.Sprintf("%s/%d/%d/%d", r.Date.Format("2006-01-02"), r.Zoom, r.X, r.Y)
}
