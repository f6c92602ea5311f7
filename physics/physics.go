/*
Package physics is a minimal galaxy formation model. It supplies the three
operations the bookkeeping engine needs from a physics implementation:
copying halo properties onto galaxies, estimating the time it takes a
satellite to merge, and evolving the baryonic reservoirs of every galaxy
between snapshots.

The model is deliberately simple: baryons fall into central halos in
proportion to their mass growth, hot gas cools over a dynamical time, and
cold gas forms stars with a fixed efficiency per dynamical time.
*/
package physics

import (
	"math"
	"math/rand"

	"github.com/phil-mansfield/galtree/cosmo"
	"github.com/phil-mansfield/galtree/galaxy"
	"github.com/phil-mansfield/galtree/halo"
)

// Params are the free parameters of the model.
type Params struct {
	BaryonFrac       float64
	SfEfficiency     float64
	MergerTimeFactor float64
	Seed             int64
}

// DefaultParams returns the parameters used when none are configured.
func DefaultParams() Params {
	return Params{
		BaryonFrac:       0.17,
		SfEfficiency:     0.03,
		MergerTimeFactor: 1.0,
		Seed:             1,
	}
}

// Model implements engine.Physics.
type Model struct {
	Params
	rng *rand.Rand
}

// New creates a Model seeded with p.Seed.
func New(p Params) *Model {
	return &Model{Params: p, rng: rand.New(rand.NewSource(p.Seed))}
}

// Reseed restarts the random stream for a new realization. Each realization
// gets its own stream, and the same realization always gets the same one.
func (m *Model) Reseed(realization int) {
	m.rng = rand.New(rand.NewSource(m.Seed + int64(realization)))
}

// Vvir returns the circular velocity at the virial radius of h.
func Vvir(h *halo.Halo) float64 {
	if h.Rvir <= 0 || h.Mvir <= 0 {
		return 0
	}
	return math.Sqrt(cosmo.G * h.Mvir / h.Rvir)
}

// CopyHaloToGalaxy overwrites the halo-derived properties of gal with those
// of h, along with the tree tracking state.
func (m *Model) CopyHaloToGalaxy(h *halo.Halo, gal *galaxy.Galaxy, snap int) {
	gal.Type = galaxy.Type(h.Type)
	gal.Len = h.Len
	gal.HaloDescIndex = h.DescIndex
	gal.TreeFlags = h.TreeFlags
	gal.SnapSkipCounter = h.SnapOffset
	gal.Mvir = h.Mvir
	gal.Rvir = h.Rvir
	gal.Vvir = Vvir(h)
	gal.Vmax = h.Vmax
	gal.Pos = h.Pos
	gal.Vel = h.Vel
}

// MergingTime returns the dynamical friction time of gal in the host halo,
// using the Binney & Tremaine estimate with the satellite placed at the
// host's virial radius. It returns -1 when the time is undefined.
func (m *Model) MergingTime(gal, target *galaxy.Galaxy, host *halo.Halo, snap int) float64 {
	if gal.Len <= 0 || host.Len <= 0 {
		return -1
	}
	satMass := gal.Mvir + gal.StellarMass + gal.ColdGas
	coulomb := math.Log(float64(host.Len)/float64(gal.Len) + 1)
	vvir := Vvir(host)
	if satMass <= 0 || coulomb <= 0 || vvir <= 0 {
		return -1
	}

	r := host.Rvir
	return m.MergerTimeFactor * 2 * 1.17 * r * r * vvir / (coulomb * cosmo.G * satMass)
}

// Evolve moves every non-ghost galaxy in pop forward by its Dt and returns
// the number of galaxies it evolved. Orphans have their merger clock counted
// down, but Model never merges them into their MergerTarget.
func (m *Model) Evolve(pop *galaxy.Population, cat *halo.Catalog, snap int) (int, error) {
	n := 0
	for gal := pop.Get(pop.First()); gal != nil; gal = pop.Get(gal.Next) {
		if gal.Ghost {
			continue
		}
		if gal.CosInc == 0 {
			gal.CosInc = m.rng.Float64()
		}

		if gal.Type == galaxy.Central && gal.DM > 0 {
			gal.HotGas += m.BaryonFrac * gal.DM
		}

		tDyn := dynamicalTime(gal)
		if tDyn > 0 && gal.Dt > 0 {
			cool := gal.HotGas * math.Min(1, gal.Dt/tDyn)
			gal.HotGas -= cool
			gal.ColdGas += cool

			stars := math.Min(gal.ColdGas, m.SfEfficiency*gal.ColdGas*gal.Dt/tDyn)
			metalFrac := 0.0
			if gal.ColdGas > 0 {
				metalFrac = gal.MetalsColdGas / gal.ColdGas
			}
			gal.ColdGas -= stars
			gal.MetalsColdGas -= stars * metalFrac
			gal.StellarMass += stars
			gal.Sfr = stars / gal.Dt
		} else {
			gal.Sfr = 0
		}

		if gal.Type == galaxy.Orphan {
			gal.MergTime -= gal.Dt
		}
		n++
	}
	return n, nil
}

func dynamicalTime(gal *galaxy.Galaxy) float64 {
	if gal.Vvir <= 0 {
		return 0
	}
	return gal.Rvir / gal.Vvir
}
