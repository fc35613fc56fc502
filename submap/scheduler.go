package submap

// ShouldFetch reports whether a texture fetch should be issued for the
// given submap and, if so, atomically marks it in flight and records the
// attempt time before releasing the lock, so concurrent callers can never
// double-schedule the same submap.
//
// A fetch is due when the cached texture version differs from the latest
// metadata version. A difference in either direction counts: the version
// can also be lower than what we have if the mapping engine restarted, and
// that must be treated as new data, not as stale. No fetch is issued while
// one is already in flight or within the minimum delay since the last
// attempt; the in-flight flag is cleared by the completing task on every
// path, including failure.
func (c *Cache) ShouldFetch(id ID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.slices[id]
	if !ok || s.pruned {
		return false
	}
	newerVersionAvailable := s.surface == nil || s.version != s.metadataVersion
	recentlyQueried := s.lastFetch.Add(c.minFetchDelay).After(c.clock.Now())
	if !newerVersionAvailable || recentlyQueried || s.fetchInFlight {
		return false
	}
	s.fetchInFlight = true
	s.lastFetch = c.clock.Now()
	return true
}

// FetchInFlight reports whether a fetch task for the given submap is
// currently running.
func (c *Cache) FetchInFlight(id ID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.slices[id]
	return ok && s.fetchInFlight
}
