package render

import (
	"bytes"
	"context"
	"os"
	"text/template"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// StyleProvider renders the carto style template for a map date. Rendered
// styles are cached in redis, one entry per date.
type StyleProvider struct {
	template *template.Template
	cache    *redis.Client
	ttl      time.Duration
}

// NewStyleProvider parses the style template from filename. cache may be
// nil to disable caching.
func NewStyleProvider(filename string, cache *redis.Client, ttl time.Duration) (*StyleProvider, error) {
	b, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.Wrap(err, "reading style template")
	}
	return NewStyleProviderFromString(string(b), cache, ttl)
}

func NewStyleProviderFromString(tmpl string, cache *redis.Client, ttl time.Duration) (*StyleProvider, error) {
	t, err := template.New("style").Parse(tmpl)
	if err != nil {
		return nil, errors.Wrap(err, "parsing style template")
	}
	return &StyleProvider{template: t, cache: cache, ttl: ttl}, nil
}

// StyleFor returns the style document with all date placeholders bound to
// date.
func (p *StyleProvider) StyleFor(ctx context.Context, date time.Time) (string, error) {
	key := styleKey(date)
	if p.cache != nil {
		style, err := p.cache.Get(ctx, key).Result()
		if err == nil {
			return style, nil
		}
		if err != redis.Nil {
			return "", errors.Wrap(err, "style cache get")
		}
	}

	style, err := p.render(date)
	if err != nil {
		return "", err
	}
	if p.cache != nil {
		if err := p.cache.Set(ctx, key, style, p.ttl).Err(); err != nil {
			return "", errors.Wrap(err, "style cache set")
		}
	}
	return style, nil
}

func (p *StyleProvider) render(date time.Time) (string, error) {
	buf := &bytes.Buffer{}
	data := struct{ Date string }{Date: date.Format("2006-01-02")}
	if err := p.template.Execute(buf, data); err != nil {
		return "", errors.Wrap(err, "rendering style template")
	}
	return buf.String(), nil
}

func styleKey(date time.Time) string {
	return "style-" + date.Format("2006-01-02") + ".xml"
}
