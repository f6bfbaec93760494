// Package prerender warms the tile cache over the full validity span of
// the imported data.
package prerender

import (
	"context"
	"time"

	"github.com/ohdm/chronotile/log"
	"github.com/ohdm/chronotile/tilecache"
)

// DateRanger reports the validity span of the feature tables.
type DateRanger interface {
	FeatureDateRange() (time.Time, time.Time, error)
}

// Sweep requests every tile up to maxZoom for every day of the data's
// validity span. Failed tiles are logged and skipped, the sweep keeps
// going.
func Sweep(ctx context.Context, db DateRanger, coord *tilecache.Coordinator, maxZoom int) error {
	since, until, err := db.FeatureDateRange()
	if err != nil {
		return err
	}
	defer log.StopStep(log.StartStep("Prerendering z0-z%d from %s until %s",
		maxZoom, since.Format("2006-01-02"), until.Format("2006-01-02")))

	for day := since.Truncate(24 * time.Hour); !day.After(until); day = day.AddDate(0, 0, 1) {
		if err := sweepDay(ctx, coord, day, maxZoom); err != nil {
			return err
		}
	}
	return nil
}

func sweepDay(ctx context.Context, coord *tilecache.Coordinator, day time.Time, maxZoom int) error {
	for zoom := 0; zoom <= maxZoom; zoom++ {
		max := 1 << uint(zoom)
		for x := 0; x < max; x++ {
			for y := 0; y < max; y++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				key := tilecache.Key{
					Year:  day.Year(),
					Month: int(day.Month()),
					Day:   day.Day(),
					Zoom:  zoom,
					X:     x,
					Y:     y,
				}
				if _, err := coord.GetOrRender(ctx, key); err != nil {
					log.Warnf("prerendering %s: %v", key, err)
				}
			}
		}
	}
	return nil
}
