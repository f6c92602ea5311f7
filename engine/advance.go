package engine

import (
	"fmt"

	"github.com/phil-mansfield/galtree/galaxy"
	"github.com/phil-mansfield/galtree/halo"
)

// Result summarizes the bookkeeping of a single snapshot.
type Result struct {
	Snapshot int
	Live     int // Live galaxies after the bookkeeping passes.
	Ghosts   int
	Evolved  int // Galaxies evolved by the physics plus ghosts.
	Kills    int
	Mergers  int
	New      int
}

type advancer struct {
	ctx  *Context
	snap *Snapshot
	cat  *halo.Catalog
	pop  *galaxy.Population
	i    int
	res  Result
}

// Advance moves ctx.Pop from its previous snapshot onto the catalog held by
// snap, which must be snapshot i. It returns the snapshot's counts, or an
// *InvariantError if the population was found to be corrupt.
func Advance(ctx *Context, snap *Snapshot, i int) (Result, error) {
	if i < 0 || i >= len(ctx.LTTime) {
		return Result{}, fmt.Errorf(
			"No lookback time for snapshot %d: only %d are known.",
			i, len(ctx.LTTime),
		)
	}

	a := &advancer{
		ctx: ctx, snap: snap, cat: snap.Catalog, pop: ctx.Pop, i: i,
		res: Result{Snapshot: i},
	}

	a.reset()
	if err := a.assign(); err != nil {
		return a.res, err
	}
	a.sweep()
	a.spawn()
	if err := a.resolveMergers(); err != nil {
		return a.res, err
	}
	if err := a.sync(); err != nil {
		return a.res, err
	}

	ctx.NGhosts = a.res.Ghosts
	a.res.Live = a.pop.Len()

	if ctx.CheckCounts {
		if err := CheckCounts(a.pop, snap, i, a.res.Ghosts); err != nil {
			return a.res, err
		}
		if err := Verify(a.pop, snap, i); err != nil {
			return a.res, err
		}
	}

	if a.pop.Len() > 0 {
		n, err := ctx.Physics.Evolve(a.pop, a.cat, i)
		if err != nil {
			return a.res, fmt.Errorf("physics failed on snapshot %d: %w", i, err)
		}
		a.res.Evolved = n
	}
	a.res.Evolved += a.res.Ghosts

	if ctx.Counters != nil {
		ctx.Counters.Observe(a.res)
	}
	ctx.Log.Debug().
		Int("snapshot", i).
		Int("live", a.res.Live).
		Int("ghosts", a.res.Ghosts).
		Int("killed", a.res.Kills).
		Int("mergers", a.res.Mergers).
		Int("new", a.res.New).
		Int("evolved", a.res.Evolved).
		Msg("Advanced snapshot")

	return a.res, nil
}

func (a *advancer) fail(kind error, pass string, gal *galaxy.Galaxy, h int) error {
	id := int64(-1)
	if gal != nil {
		id = gal.ID
	}
	return &InvariantError{Kind: kind, Pass: pass, Snapshot: a.i, Galaxy: id, Halo: h}
}

func (a *advancer) kill(prev, h galaxy.Handle) galaxy.Handle {
	a.res.Kills++
	return a.pop.Remove(prev, h)
}

// reset forgets every galaxy's halo and ghost status and counts down the
// number of snapshots until its halo reappears.
func (a *advancer) reset() {
	for gal := a.pop.Get(a.pop.First()); gal != nil; gal = a.pop.Get(gal.Next) {
		gal.Halo = halo.NoIndex
		gal.Ghost = false
		gal.SnapSkipCounter--
	}
}

// assign moves each galaxy onto its descendant halo. Galaxies without one
// are killed along with the satellites of any chain they head. Galaxies
// whose halo has skipped this snapshot become ghosts.
func (a *advancer) assign() error {
	prev := galaxy.Nil
	for h := a.pop.First(); !h.IsNil(); {
		gal := a.pop.Get(h)

		if gal.SnapSkipCounter > 0 {
			a.markGhosts(gal)
			prev, h = h, gal.Next
			continue
		}

		// Only galaxies which own their halo use the index this snapshot.
		// Everyone else may still be pointing at a later snapshot.
		owner := gal.Type < galaxy.Orphan
		idx := gal.HaloDescIndex
		if a.cat.Lookup != nil && idx > halo.NoIndex && owner && !gal.Ghost {
			idx = a.cat.FindOriginalIndex(idx)
		}

		if idx <= halo.NoIndex || (owner && idx >= len(a.cat.Halos)) {
			if gal.IsHead() {
				for cur := a.pop.Get(gal.NextInHalo); cur != nil; cur = a.pop.Get(cur.NextInHalo) {
					cur.HaloDescIndex = halo.NoIndex
				}
			}
			h = a.kill(prev, h)
			continue
		}

		gal.OldType = gal.Type
		gal.Dt = gal.LTTime - a.ctx.LTTime[a.i]

		if owner {
			if gal.TreeFlags.Has(halo.Merger) {
				gal.Status = galaxy.PendingMerger
				gal.Halo = idx
				gal.TreeFlags = gal.TreeFlags.Clear(halo.Merger)
				a.res.Mergers++
			} else {
				gal.DM = a.cat.Halos[idx].Mvir - gal.Mvir
				gal.Halo = idx
				if !a.snap.central[idx].IsNil() {
					return a.fail(ErrDoubleAssignment, "assignment", gal, idx)
				}
				a.snap.central[idx] = h
				a.setChainHalo(gal, idx)
			}
		}

		prev, h = h, gal.Next
	}
	return nil
}

func (a *advancer) markGhosts(head *galaxy.Galaxy) {
	for cur := head; cur != nil; cur = a.pop.Get(cur.NextInHalo) {
		if cur.HaloDescIndex > halo.NoIndex {
			a.res.Ghosts++
			cur.Ghost = true
		}
	}
}

func (a *advancer) setChainHalo(head *galaxy.Galaxy, idx int) {
	for cur := a.pop.Get(head.NextInHalo); cur != nil; cur = a.pop.Get(cur.NextInHalo) {
		cur.Halo = idx
	}
}

// sweep kills every galaxy which has no descendant halo. This catches the
// satellites whose chain head died during assignment.
func (a *advancer) sweep() {
	prev := galaxy.Nil
	for h := a.pop.First(); !h.IsNil(); {
		gal := a.pop.Get(h)
		if gal.HaloDescIndex < 0 {
			h = a.kill(prev, h)
			continue
		}
		prev, h = h, gal.Next
	}
}

// spawn creates a galaxy in every empty central halo.
func (a *advancer) spawn() {
	lt := a.ctx.LTTime[a.i]
	for i := range a.cat.Halos {
		if !a.snap.ValidHost(i) {
			continue
		}
		gal := a.pop.New()
		h := gal.Handle()
		gal.Halo = i
		gal.LTTime = lt
		gal.Dt = a.ctx.LTTime[0] - lt
		gal.DM = a.cat.Halos[i].Mvir
		a.snap.central[i] = h
		a.pop.Append(h)
		a.res.New++
	}
}

// resolveMergers places every galaxy whose halo merged into another one.
// If the target halo is still empty the galaxy becomes its central.
// Otherwise it becomes an orphan and its whole chain is appended to the
// chain of the target's central.
func (a *advancer) resolveMergers() error {
	for gal := a.pop.Get(a.pop.First()); gal != nil; gal = a.pop.Get(gal.Next) {
		if !gal.IsPendingMerger() {
			continue
		}
		h := gal.Handle()
		idx := gal.Halo
		host := &a.cat.Halos[idx]
		gal.Status = galaxy.Active

		central := a.snap.central[idx]
		if central.IsNil() {
			gal.DM = host.Mvir - gal.Mvir
			a.snap.central[idx] = h
			gal.Type = galaxy.Type(host.Type)
			a.setChainHalo(gal, idx)
			continue
		}

		target := a.pop.Get(central)
		if target == nil {
			return a.fail(ErrNullChainHead, "merger", gal, idx)
		}

		gal.Type = galaxy.Orphan
		a.pop.ChainTail(central).NextInHalo = h
		gal.FirstInHalo = central
		for cur := a.pop.Get(gal.NextInHalo); cur != nil; cur = a.pop.Get(cur.NextInHalo) {
			cur.FirstInHalo = central
			cur.Halo = idx
		}

		gal.MergerTarget = central
		gal.MergTime = a.ctx.Physics.MergingTime(gal, target, host, a.i) + gal.Dt
	}
	return nil
}

// sync brings every non-ghost galaxy up to date with its halo.
func (a *advancer) sync() error {
	lt := a.ctx.LTTime[a.i]
	for gal := a.pop.Get(a.pop.First()); gal != nil; gal = a.pop.Get(gal.Next) {
		if gal.IsPendingMerger() {
			return a.fail(ErrUnresolvedMerger, "sync", gal, gal.Halo)
		}
		if gal.Ghost {
			continue
		}
		if gal.Halo == halo.NoIndex {
			return a.fail(ErrMissingHalo, "sync", gal, halo.NoIndex)
		}
		gal.LTTime = lt
		if gal.Type < galaxy.Orphan {
			a.ctx.Physics.CopyHaloToGalaxy(&a.cat.Halos[gal.Halo], gal, a.i)
		}
	}
	return nil
}
