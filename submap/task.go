package submap

import (
	"context"

	goutils "go.viam.com/utils"
)

// StartFetch issues an asynchronous texture fetch for the given submap if
// the scheduler allows one, and reports whether a task was started. The
// caller's control flow is never stalled by the remote call; completion is
// observable through Updated. Close blocks until all started tasks have
// finished.
func (c *Cache) StartFetch(ctx context.Context, q Querier, id ID) bool {
	if !c.ShouldFetch(id) {
		return false
	}
	c.activeFetches.Add(1)
	goutils.PanicCapturingGo(func() {
		defer c.activeFetches.Done()
		result, err := FetchTextures(ctx, q, id, c.logger)
		c.finishFetch(id, result, err)
	})
	return true
}

// finishFetch runs at the end of every fetch task. It always clears the
// in-flight flag; it installs the texture only when the fetch produced at
// least one texture. Installation and notification are ordered so that
// anyone reacting to the notification observes the fully installed
// texture.
func (c *Cache) finishFetch(id ID, result *Textures, err error) {
	if err != nil {
		// A malformed payload means the engine violated its protocol or
		// memory got corrupted somewhere; producing a wrong map silently
		// would be worse than going down.
		c.logger.Fatalw("malformed submap texture payload", "submap", id.String(), "error", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.slices[id]
	if !ok {
		return
	}
	s.fetchInFlight = false
	if s.pruned {
		delete(c.slices, id)
		return
	}
	if result == nil || len(result.Textures) == 0 {
		return
	}
	texture := result.Textures[0]
	s.texture = &texture
	s.version = result.Version
	s.surface = packSurface(&texture)
	c.notifyLocked()
}
