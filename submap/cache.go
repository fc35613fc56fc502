package submap

import (
	"fmt"
	"image"
	"sort"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/edaniels/golog"

	"github.com/robomaps/cartobridge/spatial"
)

// defaultMinFetchDelay is the minimum time between texture fetch attempts
// for any one submap. It is the system's only backpressure on the engine.
const defaultMinFetchDelay = 250 * time.Millisecond

// slice is one cache entry. All fields are guarded by the cache mutex.
// The surface and version fields are only ever written together, so a
// reader holding the lock never observes a texture from one version paired
// with a surface from another.
type slice struct {
	id              ID
	pose            spatial.Pose
	metadataVersion int
	label           string

	texture *Texture
	surface *image.RGBA
	version int

	lastFetch     time.Time
	fetchInFlight bool
	pruned        bool
}

// PaintSlice is an immutable snapshot of one fetched submap, safe to hand
// to the compositor and display without holding the cache lock. The
// surface is replaced wholesale on every install and never mutated in
// place, so sharing the pointer is safe.
type PaintSlice struct {
	ID         ID
	Pose       spatial.Pose
	SlicePose  spatial.Pose
	Resolution float64
	Width      int
	Height     int
	Version    int
	Label      string
	Surface    *image.RGBA
}

// Cache is the single source of truth for what submap data has been
// fetched. Metadata updates from the subscription path, texture installs
// from completing fetch tasks, and snapshots from the redraw path all
// serialize through one mutex.
type Cache struct {
	mu            sync.Mutex
	logger        golog.Logger
	clock         clock.Clock
	minFetchDelay time.Duration
	slices        map[ID]*slice

	updated       chan struct{}
	activeFetches sync.WaitGroup
}

// NewCache returns an empty cache. A minFetchDelay of zero selects the
// default 250ms.
func NewCache(minFetchDelay time.Duration, logger golog.Logger) *Cache {
	if minFetchDelay == 0 {
		minFetchDelay = defaultMinFetchDelay
	}
	return &Cache{
		logger:        logger,
		clock:         clock.New(),
		minFetchDelay: minFetchDelay,
		slices:        map[ID]*slice{},
		updated:       make(chan struct{}, 1),
	}
}

// UpdateMetadata records the latest pose and version for a submap,
// creating the entry on first sight. It never blocks on fetch activity and
// is idempotent for repeated identical updates.
func (c *Cache) UpdateMetadata(id ID, pose spatial.Pose, version int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.slices[id]
	if !ok {
		s = &slice{id: id}
		c.slices[id] = s
	}
	s.pose = pose
	s.metadataVersion = version
	s.label = fmt.Sprintf("%d.%d", id.Index, version)
}

// Get returns a snapshot of one entry.
func (c *Cache) Get(id ID) (PaintSlice, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.slices[id]
	if !ok {
		return PaintSlice{}, false
	}
	return c.snapshotLocked(s), true
}

// Len returns the number of cached submaps.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.slices)
}

// Snapshot returns consistent copies of every entry, ordered by ID. The
// ordering is what makes the compositor's overlap policy deterministic.
func (c *Cache) Snapshot() []PaintSlice {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]PaintSlice, 0, len(c.slices))
	for _, s := range c.slices {
		out = append(out, c.snapshotLocked(s))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.Less(out[j].ID) })
	return out
}

func (c *Cache) snapshotLocked(s *slice) PaintSlice {
	ps := PaintSlice{
		ID:      s.id,
		Pose:    s.pose,
		Version: s.version,
		Label:   s.label,
		Surface: s.surface,
	}
	if s.texture != nil {
		ps.SlicePose = s.texture.SlicePose
		ps.Resolution = s.texture.Resolution
		ps.Width = s.texture.Width
		ps.Height = s.texture.Height
	}
	return ps
}

// Prune removes every cached submap whose ID is not in live. An entry with
// a fetch still in flight is only marked; the completing task removes it,
// which preserves the one-fetch-in-flight-per-ID guarantee across a
// remove/re-add cycle.
func (c *Cache) Prune(live map[ID]bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for id, s := range c.slices {
		if live[id] {
			s.pruned = false
			continue
		}
		if s.fetchInFlight {
			s.pruned = true
			continue
		}
		delete(c.slices, id)
	}
}

// Updated returns a channel that receives a (coalesced) signal after every
// successful texture install. By the time a receive completes, the
// installed texture is visible to Get and Snapshot.
func (c *Cache) Updated() <-chan struct{} {
	return c.updated
}

func (c *Cache) notifyLocked() {
	select {
	case c.updated <- struct{}{}:
	default:
	}
}

// Close blocks until every in-flight fetch task has fully completed, so
// that no task touches the cache or fires a notification after teardown.
func (c *Cache) Close() error {
	c.activeFetches.Wait()
	return nil
}
