// Package tilecache coordinates tile rendering and caching. For every tile
// key at most one render runs at a time; concurrent requests for the same
// key share its result.
package tilecache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ohdm/chronotile/log"
	"github.com/ohdm/chronotile/proj"
	"github.com/ohdm/chronotile/render"
	"github.com/ohdm/chronotile/task"
)

// ErrRenderTimeout is returned when a waiter gives up on a pending render.
var ErrRenderTimeout = errors.New("tile render timed out")

var tilesServed = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "chronotile_tiles_served_total",
	Help: "Tile requests answered, by source.",
}, []string{"source"})

// Key identifies a tile of the map state at one day.
type Key struct {
	Year  int
	Month int
	Day   int
	Zoom  int
	X     int
	Y     int
}

func (k Key) String() string {
	return fmt.Sprintf("tile-%04d-%02d-%02d-%d-%d-%d", k.Year, k.Month, k.Day, k.Zoom, k.X, k.Y)
}

func (k Key) Date() time.Time {
	return time.Date(k.Year, time.Month(k.Month), k.Day, 0, 0, 0, 0, time.UTC)
}

type entryState int

const (
	statePending entryState = iota
	stateReady
)

type entry struct {
	state   entryState
	handle  *task.Handle
	expires time.Time
	// dispatched is closed once handle is set. The queue submit can block
	// on backpressure and runs outside the coordinator lock.
	dispatched chan struct{}
}

type Config struct {
	// WaitTimeout is the hard deadline a request waits for a pending
	// render before failing with ErrRenderTimeout.
	WaitTimeout time.Duration
	// TTLZoom is the zoom level above which cached tiles expire. Low-zoom
	// tiles are expensive to render and are kept forever.
	TTLZoom int
	// TTL is the expiry for tiles above TTLZoom.
	TTL time.Duration
}

// Coordinator tracks the cache state of every requested tile. The entry
// map is the single source of truth for in-flight renders: a key is
// either absent, pending with exactly one dispatched task, or ready.
type Coordinator struct {
	conf     Config
	blobs    BlobStore
	runner   *task.Runner
	renderer render.Renderer

	mu      sync.Mutex
	entries map[Key]*entry
}

func NewCoordinator(conf Config, blobs BlobStore, runner *task.Runner, renderer render.Renderer) *Coordinator {
	if conf.WaitTimeout == 0 {
		conf.WaitTimeout = 90 * time.Second
	}
	return &Coordinator{
		conf:     conf,
		blobs:    blobs,
		runner:   runner,
		renderer: renderer,
		entries:  make(map[Key]*entry),
	}
}

// GetOrRender returns the tile for key, rendering it when it is not
// cached. Concurrent calls for the same key trigger a single render.
func (c *Coordinator) GetOrRender(ctx context.Context, key Key) ([]byte, error) {
	bbox, err := proj.TileBBox(key.Zoom, key.X, key.Y)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	e, ok := c.entries[key]
	if ok && e.state == stateReady && !e.expires.IsZero() && time.Now().After(e.expires) {
		delete(c.entries, key)
		ok = false
	}
	if !ok {
		e = &entry{state: statePending, dispatched: make(chan struct{})}
		c.entries[key] = e
		c.mu.Unlock()
		e.handle = c.dispatch(key, bbox)
		close(e.dispatched)
	} else {
		c.mu.Unlock()
	}

	select {
	case <-e.dispatched:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	c.mu.Lock()
	state, handle := e.state, e.handle
	c.mu.Unlock()

	if state == statePending {
		return c.await(ctx, key, handle)
	}

	blob, err := c.blobs.Get(ctx, key.String())
	if err != nil {
		return nil, err
	}
	if blob == nil {
		// expired or evicted behind our back, render anew
		return c.renderAgain(ctx, key, bbox)
	}
	tilesServed.WithLabelValues("cache").Inc()
	return blob, nil
}

// Flush drops all cache entries and blobs.
func (c *Coordinator) Flush(ctx context.Context) error {
	c.mu.Lock()
	c.entries = make(map[Key]*entry)
	c.mu.Unlock()
	return c.blobs.Flush(ctx)
}

// dispatch queues the render task for key. The queue send blocks when
// the runner is saturated; callers must not hold c.mu.
func (c *Coordinator) dispatch(key Key, bbox proj.BBox) *task.Handle {
	req := render.Request{
		Date: key.Date(),
		Zoom: key.Zoom,
		X:    key.X,
		Y:    key.Y,
		BBox: bbox.ToMerc(),
	}
	return c.runner.Dispatch(func(ctx context.Context) ([]byte, error) {
		blob, err := c.renderer.Render(ctx, req)
		if err != nil {
			return nil, err
		}
		if err := c.blobs.Set(ctx, key.String(), blob, c.ttlFor(key.Zoom)); err != nil {
			return nil, err
		}
		return blob, nil
	})
}

// await blocks on a pending render. On success the entry becomes ready,
// on render failure it is removed so the next request retries. A waiter
// giving up leaves the entry pending; the render keeps running and its
// result stays usable.
func (c *Coordinator) await(ctx context.Context, key Key, handle *task.Handle) ([]byte, error) {
	waitCtx, cancel := context.WithTimeout(ctx, c.conf.WaitTimeout)
	defer cancel()

	select {
	case <-handle.Done():
	case <-waitCtx.Done():
		if !handle.IsDone() {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			return nil, errors.Wrapf(ErrRenderTimeout, "tile %s", key)
		}
	}

	blob, err := handle.Result(context.Background())
	if err != nil {
		c.remove(key, handle)
		return nil, err
	}

	c.mu.Lock()
	if e, ok := c.entries[key]; ok && e.handle == handle && e.state == statePending {
		e.state = stateReady
		if ttl := c.ttlFor(key.Zoom); ttl > 0 {
			e.expires = time.Now().Add(ttl)
			time.AfterFunc(ttl, func() { c.expire(key, handle) })
		}
	}
	c.mu.Unlock()
	tilesServed.WithLabelValues("render").Inc()
	return blob, nil
}

// renderAgain replaces a ready entry whose blob disappeared.
func (c *Coordinator) renderAgain(ctx context.Context, key Key, bbox proj.BBox) ([]byte, error) {
	log.Debugf("tile %s lost its cached blob, rendering again", key)
	c.mu.Lock()
	e, ok := c.entries[key]
	if !ok || e.state == stateReady {
		e = &entry{state: statePending, dispatched: make(chan struct{})}
		c.entries[key] = e
		c.mu.Unlock()
		e.handle = c.dispatch(key, bbox)
		close(e.dispatched)
	} else {
		c.mu.Unlock()
	}

	select {
	case <-e.dispatched:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return c.await(ctx, key, e.handle)
}

// expire drops a ready entry once its TTL lapsed, keeping the entry map
// bounded by the set of live tiles.
func (c *Coordinator) expire(key Key, handle *task.Handle) {
	c.mu.Lock()
	if e, ok := c.entries[key]; ok && e.handle == handle && e.state == stateReady {
		delete(c.entries, key)
	}
	c.mu.Unlock()
}

// remove drops the entry for key if it still belongs to handle.
func (c *Coordinator) remove(key Key, handle *task.Handle) {
	c.mu.Lock()
	if e, ok := c.entries[key]; ok && e.handle == handle {
		delete(c.entries, key)
	}
	c.mu.Unlock()
}

func (c *Coordinator) ttlFor(zoom int) time.Duration {
	if zoom > c.conf.TTLZoom {
		return c.conf.TTL
	}
	return 0
}
