package tilecache

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ohdm/chronotile/render"
	"github.com/ohdm/chronotile/task"
)

type memBlobStore struct {
	mu    sync.Mutex
	blobs map[string][]byte
}

func newMemBlobStore() *memBlobStore {
	return &memBlobStore{blobs: make(map[string][]byte)}
}

func (s *memBlobStore) Get(ctx context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.blobs[key], nil
}

func (s *memBlobStore) Set(ctx context.Context, key string, blob []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[key] = blob
	return nil
}

func (s *memBlobStore) Flush(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs = make(map[string][]byte)
	return nil
}

func (s *memBlobStore) delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.blobs, key)
}

type fakeRenderer struct {
	renders  int32
	blocked  chan struct{}
	failWith error
}

func (r *fakeRenderer) Render(ctx context.Context, req render.Request) ([]byte, error) {
	atomic.AddInt32(&r.renders, 1)
	if r.blocked != nil {
		<-r.blocked
	}
	if r.failWith != nil {
		return nil, r.failWith
	}
	return []byte("png-" + req.String()), nil
}

func (r *fakeRenderer) rendered() int32 {
	return atomic.LoadInt32(&r.renders)
}

func testCoordinator(t *testing.T, renderer render.Renderer) (*Coordinator, *memBlobStore) {
	t.Helper()
	blobs := newMemBlobStore()
	runner := task.NewRunner(4, 16, 0)
	t.Cleanup(runner.Stop)
	c := NewCoordinator(Config{WaitTimeout: time.Second, TTLZoom: 12, TTL: time.Hour},
		blobs, runner, renderer)
	return c, blobs
}

func testKey() Key {
	return Key{Year: 2020, Month: 6, Day: 1, Zoom: 3, X: 4, Y: 2}
}

func TestGetOrRenderCachesTile(t *testing.T) {
	r := &fakeRenderer{}
	c, blobs := testCoordinator(t, r)
	ctx := context.Background()
	key := testKey()

	tile, err := c.GetOrRender(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, []byte("png-2020-06-01/3/4/2"), tile)
	assert.Equal(t, int32(1), r.rendered())

	// second request is served from the cache
	again, err := c.GetOrRender(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, tile, again)
	assert.Equal(t, int32(1), r.rendered())

	blob, err := blobs.Get(ctx, key.String())
	require.NoError(t, err)
	assert.Equal(t, tile, blob)
}

func TestGetOrRenderSingleDispatch(t *testing.T) {
	r := &fakeRenderer{blocked: make(chan struct{})}
	c, _ := testCoordinator(t, r)
	key := testKey()

	var wg sync.WaitGroup
	results := make([][]byte, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tile, err := c.GetOrRender(context.Background(), key)
			assert.NoError(t, err)
			results[i] = tile
		}(i)
	}

	time.Sleep(50 * time.Millisecond)
	close(r.blocked)
	wg.Wait()

	assert.Equal(t, int32(1), r.rendered())
	assert.Equal(t, results[0], results[1])
}

func TestGetOrRenderTimeout(t *testing.T) {
	r := &fakeRenderer{blocked: make(chan struct{})}

	blobs := newMemBlobStore()
	runner := task.NewRunner(1, 4, 0)
	// unblock the renderer before stopping the runner, Stop drains the queue
	defer runner.Stop()
	defer close(r.blocked)
	c := NewCoordinator(Config{WaitTimeout: 30 * time.Millisecond}, blobs, runner, r)

	_, err := c.GetOrRender(context.Background(), testKey())
	assert.ErrorIs(t, err, ErrRenderTimeout)
}

func TestGetOrRenderTimedOutWaiterKeepsResult(t *testing.T) {
	r := &fakeRenderer{blocked: make(chan struct{})}

	blobs := newMemBlobStore()
	runner := task.NewRunner(1, 4, 0)
	defer runner.Stop()
	c := NewCoordinator(Config{WaitTimeout: 30 * time.Millisecond}, blobs, runner, r)
	key := testKey()

	_, err := c.GetOrRender(context.Background(), key)
	require.ErrorIs(t, err, ErrRenderTimeout)

	// the render finishes after the waiter gave up
	close(r.blocked)
	tile, err := c.GetOrRender(context.Background(), key)
	require.NoError(t, err)
	assert.NotEmpty(t, tile)
	// the completed render was reused, not redone
	assert.Equal(t, int32(1), r.rendered())
}

func TestGetOrRenderInvalidTile(t *testing.T) {
	r := &fakeRenderer{}
	c, _ := testCoordinator(t, r)

	_, err := c.GetOrRender(context.Background(), Key{Year: 2020, Month: 1, Day: 1, Zoom: 20})
	require.Error(t, err)
	assert.Equal(t, int32(0), r.rendered())
}

func TestGetOrRenderFailedRenderRetries(t *testing.T) {
	r := &fakeRenderer{failWith: errors.New("daemon down")}
	c, _ := testCoordinator(t, r)
	key := testKey()

	_, err := c.GetOrRender(context.Background(), key)
	require.Error(t, err)

	// failed entries are dropped, the next request renders again
	r.failWith = nil
	tile, err := c.GetOrRender(context.Background(), key)
	require.NoError(t, err)
	assert.NotEmpty(t, tile)
	assert.Equal(t, int32(2), r.rendered())
}

func TestGetOrRenderSelfHealsMissingBlob(t *testing.T) {
	r := &fakeRenderer{}
	c, blobs := testCoordinator(t, r)
	ctx := context.Background()
	key := testKey()

	_, err := c.GetOrRender(ctx, key)
	require.NoError(t, err)

	// evict behind the coordinator's back, e.g. TTL expiry
	blobs.delete(key.String())

	tile, err := c.GetOrRender(ctx, key)
	require.NoError(t, err)
	assert.NotEmpty(t, tile)
	assert.Equal(t, int32(2), r.rendered())
}

func TestFlush(t *testing.T) {
	r := &fakeRenderer{}
	c, blobs := testCoordinator(t, r)
	ctx := context.Background()
	key := testKey()

	_, err := c.GetOrRender(ctx, key)
	require.NoError(t, err)
	require.NoError(t, c.Flush(ctx))

	blob, err := blobs.Get(ctx, key.String())
	require.NoError(t, err)
	assert.Nil(t, blob)

	_, err = c.GetOrRender(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, int32(2), r.rendered())
}

func entryCount(c *Coordinator) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func TestExpiredEntriesAreEvicted(t *testing.T) {
	r := &fakeRenderer{}
	blobs := newMemBlobStore()
	runner := task.NewRunner(4, 16, 0)
	defer runner.Stop()
	c := NewCoordinator(Config{WaitTimeout: time.Second, TTLZoom: 5, TTL: 20 * time.Millisecond},
		blobs, runner, r)
	ctx := context.Background()

	for x := 0; x < 8; x++ {
		_, err := c.GetOrRender(ctx, Key{Year: 2020, Month: 6, Day: 1, Zoom: 6, X: x, Y: 0})
		require.NoError(t, err)
	}
	require.Equal(t, 8, entryCount(c))

	assert.Eventually(t, func() bool { return entryCount(c) == 0 },
		time.Second, 5*time.Millisecond)
}

func TestLowZoomEntriesAreKept(t *testing.T) {
	r := &fakeRenderer{}
	blobs := newMemBlobStore()
	runner := task.NewRunner(4, 16, 0)
	defer runner.Stop()
	c := NewCoordinator(Config{WaitTimeout: time.Second, TTLZoom: 5, TTL: 20 * time.Millisecond},
		blobs, runner, r)

	_, err := c.GetOrRender(context.Background(), testKey()) // zoom 3
	require.NoError(t, err)

	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, 1, entryCount(c))
}

func TestKeyString(t *testing.T) {
	assert.Equal(t, "tile-2020-06-01-3-4-2", testKey().String())
}
