/*
Package engine advances a population of galaxies from one snapshot's halo
catalog to the next. This is all bookkeeping: galaxies are assigned to their
descendant halos, killed when their halo lineage ends, created in empty
central halos, and merged into the satellite chains of their hosts. The
physics applied to each galaxy between snapshots is supplied by the caller
through the Physics interface.
*/
package engine

import (
	"github.com/rs/zerolog"

	"github.com/phil-mansfield/galtree/galaxy"
	"github.com/phil-mansfield/galtree/halo"
)

// Physics is everything the bookkeeping passes need from the galaxy
// formation model.
type Physics interface {
	// CopyHaloToGalaxy overwrites the halo-derived properties of gal with
	// those of h. It must not touch the baryonic reservoirs.
	CopyHaloToGalaxy(h *halo.Halo, gal *galaxy.Galaxy, snap int)
	// MergingTime estimates how long gal takes to sink to the centre of
	// host, whose central galaxy is target. A negative value means the
	// time could not be estimated.
	MergingTime(gal, target *galaxy.Galaxy, host *halo.Halo, snap int) float64
	// Evolve applies one step of physics to every non-ghost galaxy and
	// returns the number of galaxies it evolved.
	Evolve(pop *galaxy.Population, cat *halo.Catalog, snap int) (int, error)
}

// Reseeder is implemented by stochastic Physics which need to restart their
// random stream at the beginning of each realization.
type Reseeder interface {
	Reseed(realization int)
}

// Writer receives the population at each requested output snapshot.
type Writer interface {
	Write(pop *galaxy.Population, cat *halo.Catalog, snap, iOut, nOut int) error
}

// Context is the state shared by every snapshot of a run.
type Context struct {
	Pop     *galaxy.Population
	Physics Physics

	// LTTime and Redshift are indexed by snapshot. Redshift may be nil.
	LTTime   []float64
	Redshift []float64

	Log      zerolog.Logger
	Counters *Counters

	// CheckCounts turns on the consistency checks after the bookkeeping
	// passes of every snapshot.
	CheckCounts bool
	// NGhosts is the ghost count of the most recent snapshot.
	NGhosts int
}

// NewContext returns a Context with an empty population, a disabled logger
// and a fresh set of counters.
func NewContext(phys Physics, ltTime []float64) *Context {
	return &Context{
		Pop:      galaxy.NewPopulation(),
		Physics:  phys,
		LTTime:   ltTime,
		Log:      zerolog.Nop(),
		Counters: NewCounters(),
	}
}
