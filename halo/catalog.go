package halo

import (
	"fmt"
	"sort"
)

// Header describes the size of a snapshot's catalog.
type Header struct {
	NHalos, NGroups int
}

// Catalog holds every halo and FOF group of a single snapshot.
type Catalog struct {
	Snapshot int
	Halos    []Halo
	Groups   []FOFGroup

	// Lookup maps the descendant indices written by the previous snapshot onto
	// positions in Halos. It is sorted in ascending order, and is nil when the
	// descendant indices are already positions.
	Lookup []int
}

// NewCatalog creates a catalog for the given snapshot. FOF groups are
// assembled from each halo's FOFGroup field and the NextInFOF links are
// threaded through the halos in catalog order. Any existing NextInFOF values
// are overwritten.
func NewCatalog(snap int, halos []Halo, lookup []int) (*Catalog, error) {
	if lookup != nil && !sort.IntsAreSorted(lookup) {
		return nil, fmt.Errorf(
			"Index lookup table for snapshot %d is not sorted.", snap,
		)
	}

	nGroups := 0
	for i := range halos {
		g := halos[i].FOFGroup
		if g < 0 {
			return nil, fmt.Errorf(
				"Halo %d (ID %d) in snapshot %d has FOF group %d.",
				i, halos[i].ID, snap, g,
			)
		}
		if g+1 > nGroups {
			nGroups = g + 1
		}
	}

	groups := make([]FOFGroup, nGroups)
	last := make([]int, nGroups)
	for i := range groups {
		groups[i].FirstHalo = NoIndex
		last[i] = NoIndex
	}

	for i := range halos {
		g := halos[i].FOFGroup
		halos[i].NextInFOF = NoIndex
		if groups[g].FirstHalo == NoIndex {
			groups[g].FirstHalo = i
		} else {
			halos[last[g]].NextInFOF = i
		}
		last[g] = i
	}

	for i := range groups {
		if groups[i].FirstHalo == NoIndex {
			return nil, fmt.Errorf(
				"FOF group %d in snapshot %d contains no halos.", i, snap,
			)
		}
	}

	return &Catalog{Snapshot: snap, Halos: halos, Groups: groups, Lookup: lookup}, nil
}

// Header returns the halo and group counts of the catalog.
func (cat *Catalog) Header() Header {
	return Header{NHalos: len(cat.Halos), NGroups: len(cat.Groups)}
}

// FindOriginalIndex maps a descendant index written by the previous snapshot
// onto a position in cat.Halos. NoIndex is returned if the lookup table
// contains no exact match. If the catalog has no lookup table, index is
// returned unchanged.
func (cat *Catalog) FindOriginalIndex(index int) int {
	if cat.Lookup == nil {
		return index
	}
	return FindOriginalIndex(index, cat.Lookup)
}

// FindOriginalIndex returns the position of index within the ascending slice
// lookup, or NoIndex if it is not present.
func FindOriginalIndex(index int, lookup []int) int {
	i := sort.SearchInts(lookup, index)
	if i < len(lookup) && lookup[i] == index {
		return i
	}
	return NoIndex
}

// Valid returns true if i is a usable position in cat.Halos.
func (cat *Catalog) Valid(i int) bool {
	return i >= 0 && i < len(cat.Halos)
}
