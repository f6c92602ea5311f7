package engine

import (
	"fmt"

	"github.com/phil-mansfield/galtree/galaxy"
	"github.com/phil-mansfield/galtree/halo"
)

// Snapshot pairs a read-only halo catalog with the central galaxy assigned
// to each of its halos during the current realization.
type Snapshot struct {
	Catalog *halo.Catalog
	central []galaxy.Handle
}

// NewSnapshot wraps cat with an empty set of central assignments.
func NewSnapshot(cat *halo.Catalog) *Snapshot {
	return &Snapshot{Catalog: cat, central: make([]galaxy.Handle, len(cat.Halos))}
}

// Central returns the galaxy which heads halo i's satellite chain, or
// galaxy.Nil.
func (s *Snapshot) Central(i int) galaxy.Handle { return s.central[i] }

// ValidHost returns true if halo i is an empty central halo which can receive
// a new galaxy.
func (s *Snapshot) ValidHost(i int) bool {
	h := &s.Catalog.Halos[i]
	return h.Type == halo.Central && s.central[i].IsNil() &&
		!h.TreeFlags.Any(halo.InvalidHostFlags)
}

// ClearCentrals drops every central assignment.
func (s *Snapshot) ClearCentrals() {
	for i := range s.central {
		s.central[i] = galaxy.Nil
	}
}

// Cache retains catalogs between realizations. When keepAll is set, every
// snapshot up to the last requested one is kept in memory. Otherwise only
// the most recently loaded snapshot is held.
type Cache struct {
	loader  halo.Loader
	keepAll bool
	snaps   []*Snapshot
}

// NewCache creates a cache for snapshots 0 through lastSnap.
func NewCache(loader halo.Loader, lastSnap int, keepAll bool) *Cache {
	n := 1
	if keepAll {
		n = lastSnap + 1
	}
	return &Cache{loader: loader, keepAll: keepAll, snaps: make([]*Snapshot, n)}
}

// Get returns the snapshot for snap, loading its catalog if it is not held.
func (c *Cache) Get(snap int) (*Snapshot, error) {
	i := 0
	if c.keepAll {
		if snap < 0 || snap >= len(c.snaps) {
			return nil, fmt.Errorf(
				"Snapshot %d is outside the cached range [0, %d].",
				snap, len(c.snaps)-1,
			)
		}
		i = snap
	}

	if s := c.snaps[i]; s != nil && s.Catalog.Snapshot == snap {
		return s, nil
	}

	cat, err := c.loader.Load(snap)
	if err != nil {
		return nil, err
	}
	if cat.Snapshot != snap {
		return nil, fmt.Errorf(
			"Loader returned catalog for snapshot %d when asked for %d.",
			cat.Snapshot, snap,
		)
	}
	c.snaps[i] = NewSnapshot(cat)
	return c.snaps[i], nil
}

// ResetCentrals clears the central assignments of every held snapshot while
// keeping the catalogs themselves.
func (c *Cache) ResetCentrals() {
	for _, s := range c.snaps {
		if s != nil {
			s.ClearCentrals()
		}
	}
}

// Held returns the number of snapshots currently held.
func (c *Cache) Held() int {
	n := 0
	for _, s := range c.snaps {
		if s != nil {
			n++
		}
	}
	return n
}
