package halo

import (
	"fmt"
)

// Loader produces the catalog for a snapshot. Catalogs are treated as
// read-only once they have been returned.
type Loader interface {
	Load(snap int) (*Catalog, error)
}

// MemoryLoader serves catalogs which have already been built in memory. It is
// used for synthetic runs and tests.
type MemoryLoader struct {
	cats map[int]*Catalog
	// Loads counts the number of successful calls to Load.
	Loads int
}

var _ Loader = &MemoryLoader{}

// NewMemoryLoader creates a MemoryLoader which serves the given catalogs,
// keyed by their Snapshot fields.
func NewMemoryLoader(cats ...*Catalog) *MemoryLoader {
	ml := &MemoryLoader{cats: make(map[int]*Catalog)}
	for _, cat := range cats {
		ml.cats[cat.Snapshot] = cat
	}
	return ml
}

// Add registers a catalog, replacing any existing one for the same snapshot.
func (ml *MemoryLoader) Add(cat *Catalog) {
	ml.cats[cat.Snapshot] = cat
}

// Load returns the catalog for snap. Snapshots without a registered catalog
// are empty.
func (ml *MemoryLoader) Load(snap int) (*Catalog, error) {
	if snap < 0 {
		return nil, fmt.Errorf("Snapshot %d is negative.", snap)
	}
	ml.Loads++
	if cat, ok := ml.cats[snap]; ok {
		return cat, nil
	}
	return &Catalog{Snapshot: snap}, nil
}
